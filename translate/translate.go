// Package translate decides whether captured text needs translation before
// speech and performs it through a pluggable service. Translation is best
// effort: any failure falls back to the original text.
package translate

import (
	"context"
	"log"
	"sync"
	"unicode"
)

// Service translates text into the target language.
type Service interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Gate wraps a Service with language-dominance detection and the
// enable/disable switch from configuration. The switch is flipped by the
// config watcher while request goroutines read it, so it sits under a
// mutex.
type Gate struct {
	service Service

	mu      sync.Mutex
	enabled bool
}

// NewGate returns a gate over service. A nil service disables translation
// regardless of the enabled flag.
func NewGate(service Service, enabled bool) *Gate {
	return &Gate{service: service, enabled: enabled}
}

// SetEnabled applies a configuration change.
func (g *Gate) SetEnabled(enabled bool) {
	g.mu.Lock()
	g.enabled = enabled
	g.mu.Unlock()
}

func (g *Gate) isEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Apply returns the text to speak. Text already dominated by the target
// language, or text with no alphabetic content, passes through untouched.
// A translation failure logs and returns the original text; capture output
// is never lost to a network hiccup.
func (g *Gate) Apply(ctx context.Context, text string) string {
	if !g.isEnabled() || g.service == nil {
		return text
	}
	if !IsMostlyEnglish(text) {
		return text
	}
	translated, err := g.service.Translate(ctx, text)
	if err != nil {
		log.Printf("Translation failed, speaking original text: %v", err)
		return text
	}
	if translated == "" {
		return text
	}
	return translated
}

// IsMostlyEnglish reports whether text is dominated by English. Text with
// more than 2 CJK characters, or where CJK characters exceed 5% of the
// total, is not English. Text with no Latin letters at all is not English
// either (digits and punctuation alone do not qualify).
func IsMostlyEnglish(text string) bool {
	if text == "" {
		return false
	}

	var total, cjk int
	hasLatin := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isCJK(r) {
			cjk++
		}
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			hasLatin = true
		}
	}
	if total == 0 {
		return false
	}
	if cjk > 2 {
		return false
	}
	if float64(cjk)/float64(total) > 0.05 {
		return false
	}
	return hasLatin
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
