// Package panel launches the external settings and log viewers. The
// control panel is a separate process that shares nothing with this one but
// the config and log files on disk.
package panel

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// OpenSettings opens the configuration file for editing. If a control-panel
// executable sits next to this binary it is preferred; otherwise the file
// opens in the system editor. The running process picks edits up through
// the config watcher.
func OpenSettings(configPath string) error {
	if exe, err := os.Executable(); err == nil {
		companion := filepath.Join(filepath.Dir(exe), controlPanelName)
		if _, err := os.Stat(companion); err == nil {
			log.Printf("Launching control panel: %s", companion)
			return start(exec.Command(companion, "--config", configPath))
		}
	}
	log.Printf("Opening config file in system editor: %s", configPath)
	return openWithDefault(configPath)
}

// OpenLogs opens the current log file in the system viewer.
func OpenLogs(logPath string) error {
	if logPath == "" {
		return fmt.Errorf("file logging is disabled")
	}
	if _, err := os.Stat(logPath); err != nil {
		return fmt.Errorf("log file not found: %w", err)
	}
	return openWithDefault(logPath)
}

func start(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", cmd.Path, err)
	}
	// Detach: the child outlives any interest we have in it.
	go func() { _ = cmd.Wait() }()
	return nil
}
