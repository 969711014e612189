package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Read(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if s != Defaults() {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestReadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
hotkey = "ctrl+shift+t"
screenshot_hotkey = "ctrl+shift+r"
copy_delay_ms = 100
max_chars = 500
tts_rate = 220
skip_if_no_text = true
enable_auto_translation = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if s.Hotkey != "ctrl+shift+t" {
		t.Errorf("Hotkey = %q", s.Hotkey)
	}
	if s.CopyDelayMs != 100 {
		t.Errorf("CopyDelayMs = %d", s.CopyDelayMs)
	}
	if s.MaxChars != 500 {
		t.Errorf("MaxChars = %d", s.MaxChars)
	}
	if s.TTSRate != 220 {
		t.Errorf("TTSRate = %d", s.TTSRate)
	}
	if !s.SkipIfNoText {
		t.Errorf("SkipIfNoText should be true")
	}
	if s.EnableAutoTranslation {
		t.Errorf("EnableAutoTranslation should be false")
	}
	// Unset keys keep their defaults.
	if s.CopyRetryCount != 2 {
		t.Errorf("CopyRetryCount = %d, want default 2", s.CopyRetryCount)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		wantOK bool
	}{
		{"defaults", func(s *Settings) {}, true},
		{"negative delay", func(s *Settings) { s.CopyDelayMs = -1 }, false},
		{"negative retries", func(s *Settings) { s.CopyRetryCount = -1 }, false},
		{"zero max chars", func(s *Settings) { s.MaxChars = 0 }, false},
		{"bare key hotkey", func(s *Settings) { s.Hotkey = "q" }, false},
		{"unknown modifier", func(s *Settings) { s.Hotkey = "hyper+q" }, false},
		{"colliding hotkeys", func(s *Settings) { s.ScreenshotHotkey = "Alt+Q" }, false},
		{"three part combo", func(s *Settings) { s.Hotkey = "ctrl+alt+q" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Defaults()
			tc.mutate(&s)
			err := Validate(s)
			if tc.wantOK && err != nil {
				t.Errorf("Validate returned %v, want nil", err)
			}
			if !tc.wantOK && err == nil {
				t.Errorf("Validate returned nil, want error")
			}
		})
	}
}

func TestWriteDefaultIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteDefaultIfMissing(path); err != nil {
		t.Fatalf("WriteDefaultIfMissing failed: %v", err)
	}
	s, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if s != Defaults() {
		t.Errorf("round-tripped defaults differ: %+v", s)
	}

	// A second call must not clobber user edits.
	edited := s
	edited.MaxChars = 123
	if err := Write(edited, path); err != nil {
		t.Fatal(err)
	}
	if err := WriteDefaultIfMissing(path); err != nil {
		t.Fatal(err)
	}
	s, err = Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.MaxChars != 123 {
		t.Errorf("WriteDefaultIfMissing overwrote existing file")
	}
}

func TestWatchAppliesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Write(Defaults(), path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan Settings, 1)
	go Watch(ctx, path, 10*time.Millisecond, func(s Settings) {
		select {
		case changed <- s:
		default:
		}
	})

	// Ensure the mtime moves even on coarse filesystem clocks.
	time.Sleep(20 * time.Millisecond)
	edited := Defaults()
	edited.TTSRate = 240
	if err := Write(edited, path); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	_ = os.Chtimes(path, now, now)

	select {
	case s := <-changed:
		if s.TTSRate != 240 {
			t.Errorf("watched settings TTSRate = %d, want 240", s.TTSRate)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch never reported the change")
	}
}
