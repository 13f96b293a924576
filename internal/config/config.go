package config

import (
	"time"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the bonghwa scraper.
type Config struct {
	Site      SiteConfig      `mapstructure:"site"      yaml:"site"`
	Clearance ClearanceConfig `mapstructure:"clearance" yaml:"clearance"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Parser    ParserConfig    `mapstructure:"parser"    yaml:"parser"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Export    ExportConfig    `mapstructure:"export"    yaml:"export"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// SiteConfig identifies the target site and its category listing pages.
type SiteConfig struct {
	BaseURL string               `mapstructure:"base_url" yaml:"base_url"`
	Pages   []types.CategoryPage `mapstructure:"pages"    yaml:"pages"`
}

// ClearanceConfig controls the challenge-token store and refresher.
type ClearanceConfig struct {
	// StorePath is the JSON file holding clearance token records. The
	// refresher appends to it; everyone else only reads the latest record.
	StorePath string `mapstructure:"store_path" yaml:"store_path"`

	// Refresher selects the refresh strategy: "browser" drives a local
	// Chromium via rod, "exec" shells out to an external helper.
	Refresher string `mapstructure:"refresher" yaml:"refresher"`

	// HelperCommand is the external helper program for the "exec" refresher.
	HelperCommand string `mapstructure:"helper_command" yaml:"helper_command"`

	// Headed opens a visible browser window. Interactive challenges
	// usually need a headed session.
	Headed bool `mapstructure:"headed" yaml:"headed"`

	// Timeout bounds one refresh attempt end to end.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"  yaml:"request_timeout"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay" yaml:"politeness_delay"`
	MaxBodySize     int64         `mapstructure:"max_body_size"    yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"     yaml:"tls_insecure"`
	AcceptLanguage  string        `mapstructure:"accept_language"  yaml:"accept_language"`

	// BlockMarkers are literal substrings whose presence in a 200
	// response marks it as a challenge block page. The block page text is
	// an external, changeable contract, hence configurable.
	BlockMarkers []string `mapstructure:"block_markers" yaml:"block_markers"`
}

// ParserConfig controls listing extraction from page markup.
type ParserConfig struct {
	RowSelector       string `mapstructure:"row_selector"        yaml:"row_selector"`
	CategorySelector  string `mapstructure:"category_selector"   yaml:"category_selector"`
	PhoneColSelector  string `mapstructure:"phone_col_selector"  yaml:"phone_col_selector"`
	NewMarkerSelector string `mapstructure:"new_marker_selector" yaml:"new_marker_selector"`
	PhonePattern      string `mapstructure:"phone_pattern"       yaml:"phone_pattern"`
}

// StorageConfig controls structured output.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"` // file, mongodb
	OutputDir       string `mapstructure:"output_dir"       yaml:"output_dir"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// ExportConfig controls the summary document.
type ExportConfig struct {
	SummaryPath string `mapstructure:"summary_path" yaml:"summary_path"`

	// NewMarker is the literal printed for freshly posted rows.
	NewMarker string `mapstructure:"new_marker" yaml:"new_marker"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with the fixed bonghwa.co.kr targets
// and sensible defaults everywhere else.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL: "https://www.bonghwa.co.kr/",
			Pages: []types.CategoryPage{
				{ID: 5, ExpectedLabel: "아파트임대", URL: "https://www.bonghwa.co.kr/listing.cfm?cat=5"},
				{ID: 7, ExpectedLabel: "주택임대", URL: "https://www.bonghwa.co.kr/listing.cfm?cat=7"},
			},
		},
		Clearance: ClearanceConfig{
			StorePath: "bonghwa_cookies.json",
			Refresher: "browser",
			Headed:    true,
			Timeout:   30 * time.Second,
		},
		Fetcher: FetcherConfig{
			RequestTimeout:  20 * time.Second,
			PolitenessDelay: 1 * time.Second,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			AcceptLanguage:  "ko-KR,ko;q=0.9,en;q=0.5",
			BlockMarkers: []string{
				"attention required",
				"just a moment",
				"checking your browser",
				"please verify you are a human",
				"cf-error",
				"captcha",
			},
		},
		Parser: ParserConfig{
			RowSelector:       "div.col-lg-9.col-md-8.col-sm-8",
			CategorySelector:  "span.cattxt",
			PhoneColSelector:  "div.col-lg-3.col-md-4.col-sm-4",
			NewMarkerSelector: `img[src*="icn_new"]`,
			PhonePattern:      `0\d{1,2}-\d{3,4}-\d{4}`,
		},
		Storage: StorageConfig{
			Type:      "file",
			OutputDir: "./output",
		},
		Export: ExportConfig{
			SummaryPath: "./output/임대_summary.txt",
			NewMarker:   "NEW",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
