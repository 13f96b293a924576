package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/clearance"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/config"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/export"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/fetcher"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/parser"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/scraper"
	"github.com/bonghwa-tools/bonghwa-scraper/internal/storage"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bonghwa",
		Short: "bonghwa — classifieds listing scraper for bonghwa.co.kr",
		Long: `bonghwa scrapes the rental category pages of www.bonghwa.co.kr past
its anti-bot challenge, extracts the listing rows, filters them by
category label, and writes raw HTML, structured JSON, and a numbered
plain-text summary.

The challenge clearance token is cached in a shared JSON store and
refreshed on demand: one refresh and one retry per page, because a
refresh opens an interactive browser session.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scrapeCmd creates the "scrape" subcommand running the full pipeline.
func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Fetch, extract, filter, and export both category pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			store := clearance.NewStore(cfg.Clearance.StorePath, logger)
			refresher := newRefresher(cfg, store, logger)

			pageFetcher := fetcher.New(cfg, logger)
			defer pageFetcher.Close()

			extractor, err := parser.NewExtractor(&cfg.Parser, logger)
			if err != nil {
				return fmt.Errorf("create extractor: %w", err)
			}

			files, err := storage.NewFileStore(cfg.Storage.OutputDir, logger)
			if err != nil {
				return fmt.Errorf("create file store: %w", err)
			}

			exporter := export.NewExporter(cfg.Export.SummaryPath, cfg.Export.NewMarker, logger)

			var opts []scraper.Option
			if cfg.Storage.Type == "mongodb" {
				sink, err := storage.NewMongoSink(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
				if err != nil {
					return fmt.Errorf("create mongodb sink: %w", err)
				}
				defer sink.Close()
				opts = append(opts, scraper.WithSink(sink))
			}

			s := scraper.New(cfg, store, pageFetcher, refresher, extractor, files, exporter, logger, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := s.Run(ctx); err != nil {
				return fmt.Errorf("scrape: %w", err)
			}

			logger.Info("scrape complete", "summary", cfg.Export.SummaryPath)
			return nil
		},
	}
}

// refreshCmd creates the "refresh" subcommand forcing a token refresh.
func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a clearance token refresh for the site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			store := clearance.NewStore(cfg.Clearance.StorePath, logger)
			refresher := newRefresher(cfg, store, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec, err := refresher.Refresh(ctx, cfg.Site.BaseURL)
			if err != nil {
				return err
			}

			fmt.Printf("clearance token refreshed (captured %s)\n", rec.CapturedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("user agent: %s\n", rec.UserAgent)
			return nil
		},
	}
}

// exportCmd creates the "export" subcommand rebuilding the summary from
// the filtered JSON files already on disk.
func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Rebuild the summary document from saved filtered listings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			files, err := storage.NewFileStore(cfg.Storage.OutputDir, logger)
			if err != nil {
				return err
			}

			blocks := make([]export.PageListings, 0, len(cfg.Site.Pages))
			for _, page := range cfg.Site.Pages {
				records, err := files.LoadFiltered(page)
				if err != nil {
					return err
				}
				blocks = append(blocks, export.PageListings{Page: page, Records: records})
			}
			sort.Slice(blocks, func(i, j int) bool { return blocks[i].Page.ID > blocks[j].Page.ID })

			exporter := export.NewExporter(cfg.Export.SummaryPath, cfg.Export.NewMarker, logger)
			if err := exporter.Write(exporter.Build(blocks...)); err != nil {
				return err
			}

			for _, block := range blocks {
				fmt.Printf("cat=%d (%s): %d 건\n", block.Page.ID, block.Page.ExpectedLabel, len(block.Records))
			}
			fmt.Printf("summary written to %s\n", cfg.Export.SummaryPath)
			return nil
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Site:\n")
			fmt.Printf("  Base URL:         %s\n", cfg.Site.BaseURL)
			for _, page := range cfg.Site.Pages {
				fmt.Printf("  cat=%d:            %s (label %s)\n", page.ID, page.URL, page.ExpectedLabel)
			}
			fmt.Printf("\nClearance:\n")
			fmt.Printf("  Store Path:       %s\n", cfg.Clearance.StorePath)
			fmt.Printf("  Refresher:        %s\n", cfg.Clearance.Refresher)
			fmt.Printf("  Headed:           %v\n", cfg.Clearance.Headed)
			fmt.Printf("  Timeout:          %s\n", cfg.Clearance.Timeout)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Request Timeout:  %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Politeness Delay: %s\n", cfg.Fetcher.PolitenessDelay)
			fmt.Printf("  Max Body Size:    %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  Block Markers:    %d configured\n", len(cfg.Fetcher.BlockMarkers))
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:             %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Dir:       %s\n", cfg.Storage.OutputDir)
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Summary Path:     %s\n", cfg.Export.SummaryPath)
			fmt.Printf("  New Marker:       %s\n", cfg.Export.NewMarker)
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bonghwa %s\n", config.Version)
		},
	}
}

// setup loads and validates configuration and builds the logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(&cfg.Logging), nil
}

// newRefresher picks the configured refresh strategy.
func newRefresher(cfg *config.Config, store *clearance.Store, logger *slog.Logger) clearance.Refresher {
	if cfg.Clearance.Refresher == "exec" {
		return clearance.NewExecRefresher(cfg.Clearance.HelperCommand, store, cfg.Clearance.Headed, cfg.Clearance.Timeout, logger)
	}
	return clearance.NewBrowserRefresher(store, cfg.Clearance.Headed, cfg.Clearance.Timeout, logger)
}

// setupLogger creates a structured logger.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
