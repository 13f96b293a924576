package clearance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/bonghwa-tools/bonghwa-scraper/internal/types"
)

// Refresher obtains a fresh clearance token for a site. Implementations
// block until the token is captured or the attempt times out; on success
// the shared store holds the new record as its latest entry.
//
// Refreshing is expensive (it opens an interactive browser session), so
// callers are expected to invoke it at most once per page fetch.
type Refresher interface {
	// Refresh solves the challenge for siteURL and returns the captured
	// record. The record has also been appended to the store.
	Refresh(ctx context.Context, siteURL string) (Record, error)
}

// ExecRefresher shells out to an external challenge-solving helper.
// The helper's only contract with this scraper: given a target URL it
// eventually appends a usable record to the shared store, or exits
// non-zero.
type ExecRefresher struct {
	command string
	store   *Store
	headed  bool
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecRefresher creates a refresher invoking the given helper command.
func NewExecRefresher(command string, store *Store, headed bool, timeout time.Duration, logger *slog.Logger) *ExecRefresher {
	return &ExecRefresher{
		command: command,
		store:   store,
		headed:  headed,
		timeout: timeout,
		logger:  logger.With("component", "exec_refresher"),
	}
}

// Refresh implements Refresher.
func (r *ExecRefresher) Refresh(ctx context.Context, siteURL string) (Record, error) {
	args := []string{siteURL, "--file", r.store.Path()}
	if r.headed {
		args = append(args, "--headed")
	}
	if r.timeout > 0 {
		args = append(args, "--timeout", strconv.Itoa(int(r.timeout.Seconds())))
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		// The helper gets extra slack beyond its own --timeout so it can
		// exit cleanly before we kill it.
		runCtx, cancel = context.WithTimeout(ctx, r.timeout+15*time.Second)
		defer cancel()
	}

	r.logger.Info("invoking clearance helper", "command", r.command, "site", siteURL, "headed", r.headed)

	cmd := exec.CommandContext(runCtx, r.command, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Record{}, &types.RefreshError{SiteURL: siteURL, Err: fmt.Errorf("helper timed out after %s", r.timeout)}
		}
		return Record{}, &types.RefreshError{SiteURL: siteURL, Err: fmt.Errorf("helper failed: %w: %s", err, truncate(out, 512))}
	}

	rec, err := r.store.Latest(siteURL)
	if err != nil {
		return Record{}, &types.RefreshError{SiteURL: siteURL, Err: fmt.Errorf("helper exited cleanly but no record readable: %w", err)}
	}

	r.logger.Info("clearance refreshed", "site", siteURL, "captured_at", rec.CapturedAt)
	return rec, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
