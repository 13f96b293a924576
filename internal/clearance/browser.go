package clearance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// BrowserRefresher solves the challenge with a local Chromium driven by
// Rod. It navigates to the site, lets the challenge run (a headed window
// allows a human to click through interactive checks), and waits until
// the clearance cookie is issued.
type BrowserRefresher struct {
	store   *Store
	headed  bool
	timeout time.Duration
	logger  *slog.Logger
}

// NewBrowserRefresher creates a Rod-based refresher writing to the store.
func NewBrowserRefresher(store *Store, headed bool, timeout time.Duration, logger *slog.Logger) *BrowserRefresher {
	return &BrowserRefresher{
		store:   store,
		headed:  headed,
		timeout: timeout,
		logger:  logger.With("component", "browser_refresher"),
	}
}

// Refresh implements Refresher.
func (r *BrowserRefresher) Refresh(ctx context.Context, siteURL string) (Record, error) {
	rec, err := r.solve(ctx, siteURL)
	if err != nil {
		return Record{}, &types.RefreshError{SiteURL: siteURL, Err: err}
	}

	if err := r.store.Append(siteURL, rec); err != nil {
		return Record{}, &types.RefreshError{SiteURL: siteURL, Err: err}
	}

	r.logger.Info("clearance refreshed", "site", siteURL, "captured_at", rec.CapturedAt)
	return rec, nil
}

func (r *BrowserRefresher) solve(ctx context.Context, siteURL string) (Record, error) {
	l := launcher.New().
		Headless(!r.headed).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		// Fixed window geometry keeps interactive click targets stable.
		Set("window-size", "1920,1080").
		Set("window-position", "0,0")

	launchURL, err := l.Launch()
	if err != nil {
		return Record{}, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(launchURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return Record{}, fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := stealth.Page(browser)
	if err != nil {
		return Record{}, fmt.Errorf("stealth page: %w", err)
	}

	if err := page.Timeout(r.timeout).Navigate(siteURL); err != nil {
		return Record{}, fmt.Errorf("navigate %s: %w", siteURL, err)
	}

	r.logger.Info("waiting for clearance cookie", "site", siteURL, "headed", r.headed, "timeout", r.timeout)

	deadline := time.Now().Add(r.timeout)
	for {
		select {
		case <-ctx.Done():
			return Record{}, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}

		cookies, err := page.Cookies(nil)
		if err != nil {
			continue
		}
		for _, c := range cookies {
			if c.Name != "cf_clearance" || c.Value == "" {
				continue
			}
			ua, err := r.userAgent(page)
			if err != nil {
				return Record{}, err
			}
			return Record{
				Token:      c.Value,
				UserAgent:  ua,
				CapturedAt: time.Now().UTC(),
			}, nil
		}

		if time.Now().After(deadline) {
			return Record{}, fmt.Errorf("no clearance cookie within %s", r.timeout)
		}
	}
}

// userAgent reads the user-agent the browser actually presented. The
// token is only honored together with the exact user-agent it was
// issued for.
func (r *BrowserRefresher) userAgent(page *rod.Page) (string, error) {
	res, err := page.Eval(`() => navigator.userAgent`)
	if err != nil {
		return "", fmt.Errorf("read user agent: %w", err)
	}
	return res.Value.String(), nil
}
