//go:build !windows

package speech

import "fmt"

type stubEngine struct{}

// NewEngine returns a placeholder engine on platforms without a bundled
// text-to-speech backend.
func NewEngine() Engine { return stubEngine{} }

func (stubEngine) Say(text string, rateWPM int, voiceFilter string) error {
	return fmt.Errorf("text-to-speech not implemented for this platform")
}

func (stubEngine) StopNow() error { return nil }
