// Package clipboard wraps the system clipboard as a single serialized
// resource. The copy-simulation capture path actively mutates global OS
// state the user did not ask to change, so every use of it goes through a
// Session that saves the previous contents up front and restores them on
// release, regardless of how the capture attempt ended.
package clipboard

import (
	"sync"

	xclipboard "golang.design/x/clipboard"
)

// CopyVariant selects one copy-simulation method sent to the foreground
// application, in chain priority order.
type CopyVariant int

const (
	VariantWMCopy CopyVariant = iota
	VariantCtrlC
	VariantCtrlInsert
)

func (v CopyVariant) String() string {
	switch v {
	case VariantWMCopy:
		return "wm_copy"
	case VariantCtrlC:
		return "ctrl+c"
	case VariantCtrlInsert:
		return "ctrl+insert"
	default:
		return "unknown"
	}
}

// Variants lists the simulation methods in priority order.
var Variants = []CopyVariant{VariantWMCopy, VariantCtrlC, VariantCtrlInsert}

// mu serializes all clipboard access across the process. Sessions hold it
// for their whole lifetime: the save/mutate/restore bracket must not
// interleave with unrelated writes.
var mu sync.Mutex

func Init() error {
	return xclipboard.Init()
}

// Write performs a mutex-guarded clipboard write.
func Write(text string) error {
	mu.Lock()
	defer mu.Unlock()
	xclipboard.Write(xclipboard.FmtText, []byte(text))
	return nil
}

// Session is an exclusive lease on the clipboard. Acquire saves the current
// text contents; Release writes them back and drops the lease. Release is
// idempotent so it can sit in a defer next to early returns.
type Session struct {
	saved    string
	released bool
}

func Acquire() (*Session, error) {
	mu.Lock()
	return &Session{saved: string(xclipboard.Read(xclipboard.FmtText))}, nil
}

// Saved returns the text present when the session was acquired.
func (s *Session) Saved() string { return s.saved }

// ReadText returns the current clipboard text.
func (s *Session) ReadText() string {
	return string(xclipboard.Read(xclipboard.FmtText))
}

// WriteText replaces the clipboard text within the session. Used to blank
// the clipboard before a copy simulation so fresh content is detectable.
func (s *Session) WriteText(text string) {
	xclipboard.Write(xclipboard.FmtText, []byte(text))
}

// SimulateCopy asks the foreground application to copy its selection.
func (s *Session) SimulateCopy(v CopyVariant) error {
	return simulateCopy(v)
}

// Release restores the saved contents and ends the session.
func (s *Session) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	defer mu.Unlock()
	xclipboard.Write(xclipboard.FmtText, []byte(s.saved))
	return nil
}
