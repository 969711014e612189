package capture

import (
	"context"
	"log"
	"time"

	"github.com/liweimin/tts-tool/ocr"
	"github.com/liweimin/tts-tool/overlay"
	"github.com/liweimin/tts-tool/screenshot"
	"github.com/liweimin/tts-tool/sound"
)

// MethodScreenshot names the screenshot recognition path.
const MethodScreenshot = "screenshot-ocr"

// ScreenshotSource captures text from a user-selected screen region:
// audible cue, interactive overlay, in-memory PNG grab, recognition.
type ScreenshotSource struct {
	selector overlay.Selector
	engine   ocr.Engine
	cue      func()
	grab     func(screenshot.Region) ([]byte, error)
}

// NewScreenshotSource wires the production implementation.
func NewScreenshotSource(selector overlay.Selector, engine ocr.Engine) *ScreenshotSource {
	return &ScreenshotSource{
		selector: selector,
		engine:   engine,
		cue:      sound.Chime,
		grab:     screenshot.CaptureRegion,
	}
}

// Capture runs the screenshot pipeline. Returns ErrDismissed when the user
// cancels the overlay. A zero-area drag short-circuits to an empty outcome
// without touching the screen or the recognition engine.
func (s *ScreenshotSource) Capture(ctx context.Context, opts Options) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	start := time.Now()

	region, cancelled, err := s.selector.Select(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if cancelled {
		return Outcome{}, ErrDismissed
	}
	// The overlay runs the interaction to completion; a request superseded
	// while it was on screen discards the committed region here.
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	// Cue at region release: recognition takes a moment and the user is not
	// necessarily watching the screen.
	s.cue()

	if region.Width <= 0 || region.Height <= 0 {
		log.Printf("Capture: zero-area region, nothing to recognize")
		return Outcome{Method: MethodScreenshot, CaptureMs: time.Since(start).Milliseconds()}, nil
	}

	imageData, err := s.grab(region)
	if err != nil {
		return Outcome{}, err
	}

	text, err := s.engine.Recognize(ctx, imageData)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		// "No text detected" and transport failures both end as an empty
		// outcome; the speech layer owns the user-facing notice.
		log.Printf("Capture: recognition returned no text: %v", err)
		return Outcome{Method: MethodScreenshot, CaptureMs: time.Since(start).Milliseconds()}, nil
	}

	return Outcome{
		Text:      normalize(text, opts.MaxChars),
		Method:    MethodScreenshot,
		CaptureMs: time.Since(start).Milliseconds(),
		Succeeded: true,
	}, nil
}
