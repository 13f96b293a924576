package config

import (
	"fmt"
	"net/url"
	"regexp"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Site.BaseURL); err != nil {
		return fmt.Errorf("site.base_url: %w", err)
	}
	if len(cfg.Site.Pages) == 0 {
		return fmt.Errorf("site.pages must list at least one category page")
	}
	for _, page := range cfg.Site.Pages {
		if err := ValidateURL(page.URL); err != nil {
			return fmt.Errorf("site.pages cat=%d: %w", page.ID, err)
		}
		if page.ExpectedLabel == "" {
			return fmt.Errorf("site.pages cat=%d: expected_label must not be empty", page.ID)
		}
	}

	if cfg.Clearance.StorePath == "" {
		return fmt.Errorf("clearance.store_path must not be empty")
	}
	switch cfg.Clearance.Refresher {
	case "browser":
	case "exec":
		if cfg.Clearance.HelperCommand == "" {
			return fmt.Errorf("clearance.helper_command is required for the exec refresher")
		}
	default:
		return fmt.Errorf("clearance.refresher must be 'browser' or 'exec', got %q", cfg.Clearance.Refresher)
	}
	if cfg.Clearance.Timeout <= 0 {
		return fmt.Errorf("clearance.timeout must be > 0")
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.PolitenessDelay < 0 {
		return fmt.Errorf("fetcher.politeness_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if len(cfg.Fetcher.BlockMarkers) == 0 {
		return fmt.Errorf("fetcher.block_markers must not be empty")
	}

	if cfg.Parser.RowSelector == "" || cfg.Parser.PhoneColSelector == "" {
		return fmt.Errorf("parser.row_selector and parser.phone_col_selector must not be empty")
	}
	if _, err := regexp.Compile(cfg.Parser.PhonePattern); err != nil {
		return fmt.Errorf("parser.phone_pattern is not a valid regexp: %w", err)
	}

	switch cfg.Storage.Type {
	case "file":
		if cfg.Storage.OutputDir == "" {
			return fmt.Errorf("storage.output_dir must not be empty")
		}
	case "mongodb":
		if cfg.Storage.MongoURI == "" || cfg.Storage.MongoDatabase == "" || cfg.Storage.MongoCollection == "" {
			return fmt.Errorf("storage.mongo_uri, storage.mongo_database and storage.mongo_collection are required for mongodb storage")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: file, mongodb)", cfg.Storage.Type)
	}

	if cfg.Export.SummaryPath == "" {
		return fmt.Errorf("export.summary_path must not be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a fetch target.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
