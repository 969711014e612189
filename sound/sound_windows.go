//go:build windows

package sound

import "golang.org/x/sys/windows"

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procMessageBeep = user32.NewProc("MessageBeep")
)

func chime() {
	// MB_OK system sound; asynchronous, returns immediately.
	procMessageBeep.Call(0)
}
