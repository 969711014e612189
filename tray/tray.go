// Package tray puts the tool in the system tray with its action menu.
package tray

import (
	"log"

	"github.com/getlantern/systray"
)

// Handlers are the menu actions. Exit always quits the tray loop; the
// OnExit callback runs afterwards for cleanup.
type Handlers struct {
	ReadAgain  func()
	Screenshot func()
	Settings   func()
	OpenLogs   func()
	OnExit     func()
}

// Run starts the tray loop. Blocks until Exit is chosen or Quit is called;
// most callers run it on the main goroutine.
func Run(h Handlers) {
	systray.Run(func() { onReady(h) }, func() {
		if h.OnExit != nil {
			h.OnExit()
		}
	})
}

// Quit stops the tray loop from another goroutine.
func Quit() {
	systray.Quit()
}

func onReady(h Handlers) {
	systray.SetIcon(getIcon())
	systray.SetTitle("TTS Tool")
	systray.SetTooltip("TTS Tool - read selected text aloud")

	mReadAgain := systray.AddMenuItem("Read Again", "Speak the last captured text again")
	mScreenshot := systray.AddMenuItem("Screenshot OCR", "Select a screen region and read it")
	systray.AddSeparator()
	mSettings := systray.AddMenuItem("Settings", "Open the settings panel")
	mLogs := systray.AddMenuItem("Open Logs", "Open the log file")
	systray.AddSeparator()
	mExit := systray.AddMenuItem("Exit", "Quit the application")

	go func() {
		for {
			select {
			case <-mReadAgain.ClickedCh:
				if h.ReadAgain != nil {
					h.ReadAgain()
				}
			case <-mScreenshot.ClickedCh:
				if h.Screenshot != nil {
					h.Screenshot()
				}
			case <-mSettings.ClickedCh:
				if h.Settings != nil {
					h.Settings()
				}
			case <-mLogs.ClickedCh:
				if h.OpenLogs != nil {
					h.OpenLogs()
				}
			case <-mExit.ClickedCh:
				log.Printf("Exit selected from tray menu")
				systray.Quit()
				return
			}
		}
	}()
}
