// Package uia reads the focused application's current text selection
// through the platform accessibility API.
package uia

// Reader is the accessibility selection capability. Availability is
// detected once at startup; an unavailable reader is skipped by the capture
// chain rather than treated as a runtime failure.
type Reader interface {
	Available() bool
	ReadSelection() (string, error)
}

// NewReader returns the platform implementation.
func NewReader() Reader {
	return newPlatformReader()
}
