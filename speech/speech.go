// Package speech turns captured text into audio through the platform
// text-to-speech engine, with a stop-then-speak controller on top.
package speech

import (
	"log"
	"sync"
)

// Engine is the synthesis backend. Say blocks until the utterance finishes
// or StopNow interrupts it. Implementations serialize their own COM or
// device access; the controller may call StopNow from a different goroutine
// than the one inside Say.
type Engine interface {
	Say(text string, rateWPM int, voiceFilter string) error
	StopNow() error
}

// Notice spoken instead of silence when a capture yields no text and the
// user has not opted out.
const emptyCaptureNotice = "no text captured"

// Controller owns the speaking state. At most one utterance is active;
// submitting a new one stops the current one first.
type Controller struct {
	engine Engine

	mu               sync.Mutex
	speaking         bool
	seq              uint64
	rateWPM          int
	voiceFilter      string
	speakEmptyNotice bool
}

// NewController returns a controller over engine with initial voice
// settings.
func NewController(engine Engine, rateWPM int, voiceFilter string, speakEmptyNotice bool) *Controller {
	return &Controller{
		engine:           engine,
		rateWPM:          rateWPM,
		voiceFilter:      voiceFilter,
		speakEmptyNotice: speakEmptyNotice,
	}
}

// Configure applies updated voice settings. They take effect on the next
// utterance; an utterance in flight keeps the settings it started with.
func (c *Controller) Configure(rateWPM int, voiceFilter string, speakEmptyNotice bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rateWPM = rateWPM
	c.voiceFilter = voiceFilter
	c.speakEmptyNotice = speakEmptyNotice
}

// Speak stops any current utterance and starts speaking text. Empty text
// speaks the empty-capture notice, or does nothing when the notice is
// disabled. Speak returns once the new utterance has been handed to the
// engine; it does not wait for it to finish.
func (c *Controller) Speak(text string) {
	c.mu.Lock()
	if text == "" {
		if !c.speakEmptyNotice {
			c.mu.Unlock()
			log.Printf("Speech: empty text, notice disabled, staying idle")
			return
		}
		text = emptyCaptureNotice
	}

	c.seq++
	seq := c.seq
	rate := c.rateWPM
	voice := c.voiceFilter
	c.speaking = true
	c.mu.Unlock()

	// Synchronous stop: the old utterance must be silent before the new one
	// starts, so two utterances never overlap.
	if err := c.engine.StopNow(); err != nil {
		log.Printf("Speech: stop before speak failed: %v", err)
	}

	go func() {
		if err := c.engine.Say(text, rate, voice); err != nil {
			log.Printf("Speech: synthesis failed: %v", err)
		}
		c.mu.Lock()
		// Only the newest utterance owns the speaking flag.
		if c.seq == seq {
			c.speaking = false
		}
		c.mu.Unlock()
	}()
}

// Stop silences the engine and returns to idle. Safe to call when idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.seq++
	c.speaking = false
	c.mu.Unlock()

	if err := c.engine.StopNow(); err != nil {
		log.Printf("Speech: stop failed: %v", err)
	}
}

// Speaking reports whether an utterance is in flight.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}
