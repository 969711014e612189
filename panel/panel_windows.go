//go:build windows

package panel

import "os/exec"

const controlPanelName = "tts-tool-panel.exe"

func openWithDefault(path string) error {
	// cmd's start resolves the file association without blocking.
	return start(exec.Command("cmd", "/c", "start", "", path))
}
