package capture

import (
	"context"
	"log"
	"time"

	"github.com/liweimin/tts-tool/clipboard"
	"github.com/liweimin/tts-tool/uia"
)

// MethodAccessibility names the zero-side-effect strategy; clipboard
// strategies report the copy variant they used.
const MethodAccessibility = "accessibility"

// ClipboardSession is the slice of clipboard.Session the chain needs.
// Tests substitute a fake; production wires the real session.
type ClipboardSession interface {
	ReadText() string
	WriteText(text string)
	SimulateCopy(v clipboard.CopyVariant) error
	Release() error
}

// SelectionChain captures the focused application's selected text. The
// accessibility reader runs first because it has no side effects; when it
// yields nothing the chain cycles through clipboard copy-simulation
// variants, all inside one save/restore session.
type SelectionChain struct {
	reader  uia.Reader
	acquire func() (ClipboardSession, error)
	sleep   func(time.Duration)
}

// NewSelectionChain builds the production chain over reader.
func NewSelectionChain(reader uia.Reader) *SelectionChain {
	return &SelectionChain{
		reader:  reader,
		acquire: func() (ClipboardSession, error) { return clipboard.Acquire() },
		sleep:   time.Sleep,
	}
}

// Capture walks the strategy list in priority order: accessibility once,
// then copyRetryCount+1 clipboard attempts cycling the variants. An
// Outcome with Succeeded=false and empty text means every strategy came
// back blank; the caller decides whether that speaks a notice. The only
// errors are ctx cancellation and clipboard acquisition failure.
func (c *SelectionChain) Capture(ctx context.Context, opts Options) (Outcome, error) {
	start := time.Now()

	lease := &sessionLease{acquire: c.acquire}
	defer lease.release()

	lastMethod := ""
	for _, s := range c.strategies(lease, opts) {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if !s.available() {
			continue
		}
		lastMethod = s.name()

		text, err := s.tryCapture(ctx, opts)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			log.Printf("Capture: %s failed: %v", s.name(), err)
			continue
		}
		if text = normalize(text, opts.MaxChars); text != "" {
			return Outcome{
				Text:      text,
				Method:    s.name(),
				CaptureMs: time.Since(start).Milliseconds(),
				Succeeded: true,
			}, nil
		}
	}

	return Outcome{Method: lastMethod, CaptureMs: time.Since(start).Milliseconds()}, nil
}

// strategies builds the ordered attempt list: the accessibility reader,
// then the clipboard variants cycled across copyRetryCount+1 attempts.
func (c *SelectionChain) strategies(lease *sessionLease, opts Options) []strategy {
	list := []strategy{&accessibilityStrategy{reader: c.reader}}

	attempts := opts.CopyRetryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(opts.CopyDelayMs) * time.Millisecond
	for i := 0; i < attempts; i++ {
		list = append(list, &clipboardStrategy{
			variant: clipboard.Variants[i%len(clipboard.Variants)],
			lease:   lease,
			delay:   delay,
			sleep:   c.sleep,
		})
	}
	return list
}

// sessionLease acquires the clipboard session on first use and releases it
// once, so the save/restore bracket spans every clipboard attempt but the
// clipboard is untouched when accessibility wins.
type sessionLease struct {
	acquire func() (ClipboardSession, error)
	session ClipboardSession
}

func (l *sessionLease) get() (ClipboardSession, error) {
	if l.session != nil {
		return l.session, nil
	}
	session, err := l.acquire()
	if err != nil {
		return nil, err
	}
	l.session = session
	return session, nil
}

func (l *sessionLease) release() {
	if l.session != nil {
		l.session.Release()
		l.session = nil
	}
}

type accessibilityStrategy struct {
	reader uia.Reader
}

func (s *accessibilityStrategy) name() string { return MethodAccessibility }

func (s *accessibilityStrategy) available() bool {
	return s.reader != nil && s.reader.Available()
}

func (s *accessibilityStrategy) tryCapture(ctx context.Context, opts Options) (string, error) {
	return s.reader.ReadSelection()
}

// clipboardStrategy blanks the clipboard, asks the foreground application
// to copy with one simulation variant, waits copy_delay_ms, and reads back.
// Blanking first makes fresh content distinguishable from leftovers.
type clipboardStrategy struct {
	variant clipboard.CopyVariant
	lease   *sessionLease
	delay   time.Duration
	sleep   func(time.Duration)
}

func (s *clipboardStrategy) name() string    { return s.variant.String() }
func (s *clipboardStrategy) available() bool { return true }

func (s *clipboardStrategy) tryCapture(ctx context.Context, opts Options) (string, error) {
	session, err := s.lease.get()
	if err != nil {
		return "", err
	}

	session.WriteText("")
	if err := session.SimulateCopy(s.variant); err != nil {
		return "", err
	}
	s.sleep(s.delay)
	return session.ReadText(), nil
}
