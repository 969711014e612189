// Package capture turns a user trigger into text. Selection capture walks a
// chain of strategies over the focused application; screenshot capture runs
// an interactive region grab through the recognition engine.
package capture

import (
	"context"
	"errors"
	"strings"
)

// ErrDismissed reports that the user dismissed an interactive capture (ESC
// on the region overlay). Not a failure: the request simply ends.
var ErrDismissed = errors.New("capture dismissed by user")

// Outcome is the immutable result of a capture attempt. Method names the
// strategy that produced the text, or the last one tried when Succeeded is
// false.
type Outcome struct {
	Text      string
	Method    string
	CaptureMs int64
	Succeeded bool
}

// Options are the tunable knobs of a single capture run. The coordinator
// snapshots these from live configuration per request, so a config change
// mid-capture does not tear a run in half.
type Options struct {
	CopyDelayMs    int
	CopyRetryCount int
	MaxChars       int
}

// strategy is one way of obtaining text. The chain tries strategies in
// priority order; an unavailable strategy is skipped without counting as a
// failure.
type strategy interface {
	name() string
	available() bool
	tryCapture(ctx context.Context, opts Options) (string, error)
}

// normalize canonicalizes line endings, trims surrounding whitespace and
// truncates to maxChars runes.
func normalize(text string, maxChars int) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)
	if maxChars > 0 {
		runes := []rune(text)
		if len(runes) > maxChars {
			text = string(runes[:maxChars])
		}
	}
	return text
}
