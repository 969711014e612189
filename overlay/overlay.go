// Package overlay provides interactive screen-region selection.
package overlay

import (
	"context"

	"github.com/liweimin/tts-tool/screenshot"
)

// Selector defines a synchronous region-selection API. Select blocks until
// the user commits or dismisses the overlay. Returns (region, cancelled,
// error); when cancelled is true the region is undefined and err is nil.
//
// Once the overlay is on screen the user interaction runs to completion
// even if ctx is cancelled; callers re-check ctx after Select returns and
// discard the region then. Tearing the window down mid-drag would leave the
// desktop in a confusing state. A ctx cancelled before the overlay opens
// returns ctx.Err(), never the cancelled flag: that flag means the user
// dismissed the overlay.
type Selector interface {
	Select(ctx context.Context) (screenshot.Region, bool, error)
}

// NewSelector returns the platform implementation.
func NewSelector() Selector {
	return newPlatformSelector()
}
