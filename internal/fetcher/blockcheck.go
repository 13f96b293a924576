package fetcher

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// challengeProbes are XPath probes for structural pieces of the
// challenge interstitial. They still match when the copy text changes.
var challengeProbes = []string{
	`//form[@id='challenge-form']`,
	`//div[@id='cf-wrapper']`,
	`//div[@id='challenge-error-title']`,
	`//*[@class='cf-turnstile' or @id='turnstile-wrapper']`,
}

// BlockDetector decides whether an HTTP 200 body is actually the
// anti-bot interstitial rather than the listing page.
type BlockDetector struct {
	markers []string
	logger  *slog.Logger
}

// NewBlockDetector creates a detector for the given literal markers.
// Markers are matched case-insensitively as plain substrings.
func NewBlockDetector(markers []string, logger *slog.Logger) *BlockDetector {
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return &BlockDetector{
		markers: lowered,
		logger:  logger.With("component", "block_detector"),
	}
}

// IsBlockPage reports whether the body looks like a challenge page:
// any configured marker substring, or any structural challenge probe.
func (d *BlockDetector) IsBlockPage(body []byte) bool {
	lowered := strings.ToLower(string(body))
	for _, marker := range d.markers {
		if strings.Contains(lowered, marker) {
			d.logger.Debug("block marker matched", "marker", marker)
			return true
		}
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		// Unparseable markup is not a block page; the extractor will
		// deal with it.
		return false
	}
	for _, probe := range challengeProbes {
		if node := htmlquery.FindOne(doc, probe); node != nil {
			d.logger.Debug("challenge probe matched", "probe", probe)
			return true
		}
	}
	return false
}
