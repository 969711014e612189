package coordinator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/liweimin/tts-tool/capture"
)

// fakeSource returns a fixed outcome, optionally blocking until released or
// cancelled.
type fakeSource struct {
	mu      sync.Mutex
	outcome capture.Outcome
	err     error
	started chan struct{}
	proceed chan struct{}
	opts    []capture.Options
}

func (s *fakeSource) Capture(ctx context.Context, opts capture.Options) (capture.Outcome, error) {
	s.mu.Lock()
	s.opts = append(s.opts, opts)
	started, proceed := s.started, s.proceed
	outcome, err := s.outcome, s.err
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if proceed != nil {
		select {
		case <-proceed:
		case <-ctx.Done():
			return capture.Outcome{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return capture.Outcome{}, err
	}
	return outcome, err
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	stops  int
}

func (f *fakeSpeaker) Speak(text string) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
}

func (f *fakeSpeaker) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *fakeSpeaker) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

// markTranslator uppercases so tests can see it ran.
type markTranslator struct {
	mu    sync.Mutex
	calls int
}

func (m *markTranslator) Apply(ctx context.Context, text string) string {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return strings.ToUpper(text)
}

func newTestCoordinator(selection, screenshot *fakeSource) (*Coordinator, *fakeSpeaker, *markTranslator) {
	speaker := &fakeSpeaker{}
	translator := &markTranslator{}
	c := New(selection, screenshot, translator, speaker, capture.Options{
		CopyDelayMs:    260,
		CopyRetryCount: 2,
		MaxChars:       4000,
	})
	return c, speaker, translator
}

func TestSubmitSpeaksCapturedText(t *testing.T) {
	selection := &fakeSource{outcome: capture.Outcome{Text: "hello", Method: "accessibility"}}
	c, speaker, translator := newTestCoordinator(selection, &fakeSource{})

	c.Submit(KindSelection)
	c.Wait()

	if got := speaker.texts(); len(got) != 1 || got[0] != "HELLO" {
		t.Errorf("Expected translated text spoken once, got %v", got)
	}
	if translator.calls != 1 {
		t.Errorf("Expected one translation, got %d", translator.calls)
	}
	if speaker.stops != 1 {
		t.Errorf("Expected speech stopped at trigger time, got %d stops", speaker.stops)
	}
}

func TestGenerationsIncrease(t *testing.T) {
	c, _, _ := newTestCoordinator(&fakeSource{}, &fakeSource{})

	g1 := c.Submit(KindSelection)
	g2 := c.Submit(KindScreenshot)
	g3 := c.Submit(KindSelection)
	c.Wait()

	if !(g1 < g2 && g2 < g3) {
		t.Errorf("Generations must increase: %d %d %d", g1, g2, g3)
	}
}

func TestNewerRequestPreemptsInflight(t *testing.T) {
	selection := &fakeSource{
		outcome: capture.Outcome{Text: "stale"},
		started: make(chan struct{}, 1),
		proceed: make(chan struct{}),
	}
	screenshot := &fakeSource{outcome: capture.Outcome{Text: "fresh", Method: "screenshot-ocr"}}
	c, speaker, _ := newTestCoordinator(selection, screenshot)

	c.Submit(KindSelection)
	<-selection.started

	// Cross-kind preemption: the screenshot trigger cancels the selection
	// capture still blocked inside its source.
	c.Submit(KindScreenshot)
	c.Wait()

	if got := speaker.texts(); len(got) != 1 || got[0] != "FRESH" {
		t.Errorf("Only the newest request may speak, got %v", got)
	}
}

func TestReplaySpeaksLastTextWithoutRetranslating(t *testing.T) {
	selection := &fakeSource{outcome: capture.Outcome{Text: "again"}}
	c, speaker, translator := newTestCoordinator(selection, &fakeSource{})

	c.Submit(KindSelection)
	c.Wait()
	c.Replay()
	c.Wait()

	if got := speaker.texts(); len(got) != 2 || got[0] != "AGAIN" || got[1] != "AGAIN" {
		t.Errorf("Expected the stored text spoken twice, got %v", got)
	}
	if translator.calls != 1 {
		t.Errorf("Replay must not retranslate, got %d translation calls", translator.calls)
	}
}

func TestReplayWithNothingCapturedSpeaksEmpty(t *testing.T) {
	c, speaker, _ := newTestCoordinator(&fakeSource{}, &fakeSource{})

	c.Replay()
	c.Wait()

	if got := speaker.texts(); len(got) != 1 || got[0] != "" {
		t.Errorf("Expected empty text handed to the speaker, got %v", got)
	}
}

func TestDismissedRequestStaysSilent(t *testing.T) {
	screenshot := &fakeSource{err: capture.ErrDismissed}
	c, speaker, _ := newTestCoordinator(&fakeSource{}, screenshot)

	c.Submit(KindScreenshot)
	c.Wait()

	if got := speaker.texts(); len(got) != 0 {
		t.Errorf("Dismissal must not speak, got %v", got)
	}
	if speaker.stops != 1 {
		t.Errorf("Trigger still stops current speech, got %d stops", speaker.stops)
	}
}

func TestEmptyCaptureHandedToSpeaker(t *testing.T) {
	selection := &fakeSource{outcome: capture.Outcome{Method: "ctrl+insert"}}
	c, speaker, translator := newTestCoordinator(selection, &fakeSource{})

	c.Submit(KindSelection)
	c.Wait()

	if got := speaker.texts(); len(got) != 1 || got[0] != "" {
		t.Errorf("Empty capture must reach the speaker for the notice decision, got %v", got)
	}
	if translator.calls != 0 {
		t.Errorf("Empty text must not be translated, got %d calls", translator.calls)
	}
}

// gatedSpeaker blocks inside the first Speak call until released, widening
// the handoff window so the test can observe its exclusivity.
type gatedSpeaker struct {
	mu      sync.Mutex
	once    sync.Once
	entered chan struct{}
	release chan struct{}
	spoken  []string
}

func (g *gatedSpeaker) Speak(text string) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	g.mu.Lock()
	g.spoken = append(g.spoken, text)
	g.mu.Unlock()
}

func (g *gatedSpeaker) Stop() {}

func (g *gatedSpeaker) texts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.spoken...)
}

func TestSpeakHandoffExcludesNewSubmissions(t *testing.T) {
	selection := &fakeSource{outcome: capture.Outcome{Text: "first"}}
	screenshot := &fakeSource{outcome: capture.Outcome{Text: "second"}}
	speaker := &gatedSpeaker{entered: make(chan struct{}), release: make(chan struct{})}
	c := New(selection, screenshot, &markTranslator{}, speaker, capture.Options{})

	c.Submit(KindSelection)
	<-speaker.entered

	// A trigger arriving while the first request is inside its Speak handoff
	// must wait: its generation may not be allocated between that request's
	// stale check and the handoff, or a stale utterance could play last.
	done := make(chan uint64, 1)
	go func() { done <- c.Submit(KindScreenshot) }()

	select {
	case <-done:
		t.Fatal("Submit completed during an in-flight speak handoff")
	case <-time.After(50 * time.Millisecond):
	}

	close(speaker.release)
	<-done
	c.Wait()

	if got := speaker.texts(); len(got) != 2 || got[0] != "FIRST" || got[1] != "SECOND" {
		t.Errorf("Expected both utterances in submission order, got %v", got)
	}
}

func TestUpdateOptionsAppliesToNextRequest(t *testing.T) {
	selection := &fakeSource{outcome: capture.Outcome{Text: "x"}}
	c, _, _ := newTestCoordinator(selection, &fakeSource{})

	c.Submit(KindSelection)
	c.Wait()

	c.UpdateOptions(capture.Options{CopyDelayMs: 500, CopyRetryCount: 5, MaxChars: 100})
	c.Submit(KindSelection)
	c.Wait()

	selection.mu.Lock()
	defer selection.mu.Unlock()
	if len(selection.opts) != 2 {
		t.Fatalf("Expected 2 captures, got %d", len(selection.opts))
	}
	if selection.opts[0].CopyDelayMs != 260 {
		t.Errorf("First request got wrong options: %+v", selection.opts[0])
	}
	if selection.opts[1].CopyDelayMs != 500 || selection.opts[1].MaxChars != 100 {
		t.Errorf("Second request got wrong options: %+v", selection.opts[1])
	}
}
