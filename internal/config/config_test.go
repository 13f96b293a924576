package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestDefaultConfigPages(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Site.Pages) != 2 {
		t.Fatalf("expected 2 category pages, got %d", len(cfg.Site.Pages))
	}

	labels := map[int]string{}
	for _, page := range cfg.Site.Pages {
		labels[page.ID] = page.ExpectedLabel
		if !strings.Contains(page.URL, "cat=") {
			t.Errorf("page URL missing category parameter: %s", page.URL)
		}
	}
	if labels[5] != "아파트임대" {
		t.Errorf("cat=5 label = %q", labels[5])
	}
	if labels[7] != "주택임대" {
		t.Errorf("cat=7 label = %q", labels[7])
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad base url", func(c *Config) { c.Site.BaseURL = "ftp://example.com" }},
		{"no pages", func(c *Config) { c.Site.Pages = nil }},
		{"page without label", func(c *Config) { c.Site.Pages[0].ExpectedLabel = "" }},
		{"empty store path", func(c *Config) { c.Clearance.StorePath = "" }},
		{"unknown refresher", func(c *Config) { c.Clearance.Refresher = "magic" }},
		{"exec without helper", func(c *Config) { c.Clearance.Refresher = "exec"; c.Clearance.HelperCommand = "" }},
		{"zero clearance timeout", func(c *Config) { c.Clearance.Timeout = 0 }},
		{"zero request timeout", func(c *Config) { c.Fetcher.RequestTimeout = 0 }},
		{"negative politeness delay", func(c *Config) { c.Fetcher.PolitenessDelay = -time.Second }},
		{"no block markers", func(c *Config) { c.Fetcher.BlockMarkers = nil }},
		{"empty row selector", func(c *Config) { c.Parser.RowSelector = "" }},
		{"bad phone pattern", func(c *Config) { c.Parser.PhonePattern = "0[" }},
		{"unknown storage type", func(c *Config) { c.Storage.Type = "sqlite" }},
		{"mongodb without uri", func(c *Config) { c.Storage.Type = "mongodb" }},
		{"empty summary path", func(c *Config) { c.Export.SummaryPath = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateExecRefresher(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Clearance.Refresher = "exec"
	cfg.Clearance.HelperCommand = "cf-clearance-scraper"

	if err := Validate(cfg); err != nil {
		t.Errorf("exec refresher with a helper must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Site.BaseURL != "https://www.bonghwa.co.kr/" {
		t.Errorf("unexpected base url %q", cfg.Site.BaseURL)
	}
	if cfg.Clearance.Refresher != "browser" {
		t.Errorf("unexpected refresher %q", cfg.Clearance.Refresher)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bonghwa.yaml")
	yaml := `
clearance:
  store_path: /var/lib/bonghwa/cookies.json
  refresher: exec
  helper_command: cf-clearance-scraper
fetcher:
  politeness_delay: 3s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Clearance.StorePath != "/var/lib/bonghwa/cookies.json" {
		t.Errorf("store_path override lost: %q", cfg.Clearance.StorePath)
	}
	if cfg.Clearance.Refresher != "exec" {
		t.Errorf("refresher override lost: %q", cfg.Clearance.Refresher)
	}
	if cfg.Fetcher.PolitenessDelay != 3*time.Second {
		t.Errorf("politeness_delay override lost: %v", cfg.Fetcher.PolitenessDelay)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level override lost: %q", cfg.Logging.Level)
	}

	// Unset keys keep their defaults.
	if len(cfg.Site.Pages) != 2 {
		t.Errorf("default pages lost: %+v", cfg.Site.Pages)
	}
	if cfg.Export.NewMarker != "NEW" {
		t.Errorf("default new_marker lost: %q", cfg.Export.NewMarker)
	}
}

func TestValidateURL(t *testing.T) {
	cases := []struct {
		url string
		ok  bool
	}{
		{"https://www.bonghwa.co.kr/listing.cfm?cat=5", true},
		{"http://example.com", true},
		{"ftp://example.com", false},
		{"https://", false},
		{"not a url", false},
	}

	for _, tc := range cases {
		err := ValidateURL(tc.url)
		if tc.ok && err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", tc.url, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error", tc.url)
		}
	}
}
