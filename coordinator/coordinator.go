// Package coordinator arbitrates capture requests. Each trigger becomes a
// generation-numbered request; a newer request immediately preempts
// everything in flight, so the user always hears the most recent thing they
// asked for.
package coordinator

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/liweimin/tts-tool/capture"
)

// Kind identifies what a request captures.
type Kind string

const (
	KindSelection  Kind = "selection"
	KindScreenshot Kind = "screenshot"
	KindReplay     Kind = "replay"
)

// Source produces text for one request kind.
type Source interface {
	Capture(ctx context.Context, opts capture.Options) (capture.Outcome, error)
}

// Speaker is the speech side of the pipeline. Speak replaces whatever is
// currently playing; empty text is the speaker's notice decision.
type Speaker interface {
	Speak(text string)
	Stop()
}

// Translator rewrites text before speech, best effort.
type Translator interface {
	Apply(ctx context.Context, text string) string
}

// Coordinator owns the request lifecycle. A single generation counter
// covers all kinds: any submission supersedes any in-flight request,
// selection or screenshot alike.
type Coordinator struct {
	selection  Source
	screenshot Source
	translator Translator
	speaker    Speaker

	mu       sync.Mutex
	nextGen  uint64
	inflight map[uint64]context.CancelFunc
	opts     capture.Options
	lastText string

	// wg lets tests wait for dispatched requests to settle.
	wg sync.WaitGroup
}

// New builds a coordinator with initial capture options.
func New(selection, screenshot Source, translator Translator, speaker Speaker, opts capture.Options) *Coordinator {
	return &Coordinator{
		selection:  selection,
		screenshot: screenshot,
		translator: translator,
		speaker:    speaker,
		inflight:   make(map[uint64]context.CancelFunc),
		opts:       opts,
	}
}

// UpdateOptions applies new capture options. Requests already in flight
// keep the options they started with.
func (c *Coordinator) UpdateOptions(opts capture.Options) {
	c.mu.Lock()
	c.opts = opts
	c.mu.Unlock()
}

// Submit starts a request of the given kind. Every in-flight request is
// cancelled and current speech is stopped before the new request runs.
// Returns the request's generation number.
func (c *Coordinator) Submit(kind Kind) uint64 {
	c.mu.Lock()
	for _, cancel := range c.inflight {
		cancel()
	}
	c.nextGen++
	gen := c.nextGen
	ctx, cancel := context.WithCancel(context.Background())
	c.inflight[gen] = cancel
	opts := c.opts
	c.mu.Unlock()

	// Silence before capture: the trigger itself means "stop reading that".
	c.speaker.Stop()

	c.wg.Add(1)
	go c.run(ctx, gen, kind, opts)
	return gen
}

// Replay speaks the last captured text again as a full request, subject to
// the same preemption rules.
func (c *Coordinator) Replay() uint64 {
	return c.Submit(KindReplay)
}

func (c *Coordinator) run(ctx context.Context, gen uint64, kind Kind, opts capture.Options) {
	defer c.wg.Done()
	defer c.finish(gen)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Request %d: panic recovered: %v", gen, r)
		}
	}()

	start := time.Now()
	out, err := c.captureFor(ctx, kind, opts)
	elapsed := time.Since(start).Milliseconds()

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil):
		log.Printf("Request %d: kind=%s capture_ms=%d outcome=superseded", gen, kind, elapsed)
		return
	case errors.Is(err, capture.ErrDismissed):
		log.Printf("Request %d: kind=%s capture_ms=%d outcome=dismissed", gen, kind, elapsed)
		return
	case err != nil:
		log.Printf("Request %d: kind=%s capture_ms=%d outcome=error err=%v", gen, kind, elapsed, err)
		return
	}

	text := out.Text
	if text != "" && kind != KindReplay {
		// Replay speaks stored text verbatim; it was already translated.
		text = c.translator.Apply(ctx, text)
	}

	// A request superseded during capture or translation must not reach the
	// speaker, even if its cancellation raced the cancel call. The stale
	// check and the Speak handoff stay under one mutex hold so a newer
	// Submit cannot allocate its generation between them; Speak is
	// non-blocking, it only swaps the pending utterance.
	c.mu.Lock()
	if gen != c.nextGen || ctx.Err() != nil {
		c.mu.Unlock()
		log.Printf("Request %d: kind=%s capture_ms=%d outcome=superseded", gen, kind, elapsed)
		return
	}
	if text != "" {
		c.lastText = text
	}
	c.speaker.Speak(text)
	c.mu.Unlock()

	outcome := "ok"
	if text == "" {
		outcome = "empty"
	}
	log.Printf("Request %d: kind=%s method=%s capture_ms=%d outcome=%s chars=%d",
		gen, kind, out.Method, out.CaptureMs, outcome, len(text))
}

func (c *Coordinator) captureFor(ctx context.Context, kind Kind, opts capture.Options) (capture.Outcome, error) {
	switch kind {
	case KindSelection:
		return c.selection.Capture(ctx, opts)
	case KindScreenshot:
		return c.screenshot.Capture(ctx, opts)
	case KindReplay:
		c.mu.Lock()
		text := c.lastText
		c.mu.Unlock()
		return capture.Outcome{Text: text, Method: "replay"}, nil
	default:
		return capture.Outcome{}, errors.New("unknown request kind")
	}
}

func (c *Coordinator) finish(gen uint64) {
	c.mu.Lock()
	if cancel, ok := c.inflight[gen]; ok {
		cancel()
		delete(c.inflight, gen)
	}
	c.mu.Unlock()
}

// Wait blocks until every dispatched request has finished. Used by tests
// and shutdown.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
