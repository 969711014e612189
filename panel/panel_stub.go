//go:build !windows

package panel

import "os/exec"

const controlPanelName = "tts-tool-panel"

func openWithDefault(path string) error {
	return start(exec.Command("xdg-open", path))
}
