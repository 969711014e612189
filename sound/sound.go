// Package sound plays the short audible cues the pipeline uses instead of
// visual progress indicators.
package sound

// Chime marks the moment a screen region is committed, so the user knows
// capture is in progress without watching the screen.
func Chime() {
	chime()
}
