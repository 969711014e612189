package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is where the user-tunable settings file lives. The control
// panel process edits the same file; the resident process only reads it.
const DefaultPath = "config.toml"

// Settings holds the user-tunable configuration persisted in config.toml.
// All fields hot-reload while the app is running (see Watch).
type Settings struct {
	Hotkey                string `toml:"hotkey"`
	ScreenshotHotkey      string `toml:"screenshot_hotkey"`
	CopyDelayMs           int    `toml:"copy_delay_ms"`
	CopyRetryCount        int    `toml:"copy_retry_count"`
	MaxChars              int    `toml:"max_chars"`
	TTSRate               int    `toml:"tts_rate"`
	TTSVoiceContains      string `toml:"tts_voice_contains"`
	SkipIfNoText          bool   `toml:"skip_if_no_text"`
	EnableAutoTranslation bool   `toml:"enable_auto_translation"`
}

// Defaults returns the built-in settings used when config.toml is absent.
func Defaults() Settings {
	return Settings{
		Hotkey:                "alt+q",
		ScreenshotHotkey:      "alt+r",
		CopyDelayMs:           260,
		CopyRetryCount:        2,
		MaxChars:              4000,
		TTSRate:               180,
		TTSVoiceContains:      "",
		SkipIfNoText:          false,
		EnableAutoTranslation: true,
	}
}

// Service holds collaborator settings sourced from the environment
// (optionally via a .env file next to the executable).
type Service struct {
	OCRAPIKey         string
	OCRModel          string
	OCREndpoint       string
	TranslateEndpoint string
	EnableFileLogging bool
}

// LoadService reads service settings from the environment. A .env file in
// the executable directory (or pointed to by TTS_TOOL_ENV) is loaded first.
func LoadService() Service {
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}
	return Service{
		OCRAPIKey:         os.Getenv("OCR_API_KEY"),
		OCRModel:          getEnvWithDefault("OCR_MODEL", "google/gemini-2.0-flash-001"),
		OCREndpoint:       getEnvWithDefault("OCR_ENDPOINT", "https://openrouter.ai/api/v1/chat/completions"),
		TranslateEndpoint: getEnvWithDefault("TRANSLATE_ENDPOINT", "https://translate.googleapis.com/translate_a/single"),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}
}

// Read loads settings from path. A missing file yields the defaults; any
// other read or parse failure is an error. The result is always validated.
func Read(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}

	s := Defaults()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse config: %w", err)
	}
	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Write persists settings to path.
func Write(s Settings, path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WriteDefaultIfMissing seeds a default config file so the control panel
// always has something to edit.
func WriteDefaultIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Write(Defaults(), path)
}

// Validate rejects settings the pipeline cannot run with.
func Validate(s Settings) error {
	if err := validateCombo(s.Hotkey); err != nil {
		return fmt.Errorf("hotkey: %w", err)
	}
	if err := validateCombo(s.ScreenshotHotkey); err != nil {
		return fmt.Errorf("screenshot_hotkey: %w", err)
	}
	if normalizeCombo(s.Hotkey) == normalizeCombo(s.ScreenshotHotkey) {
		return errors.New("hotkey and screenshot_hotkey cannot be the same")
	}
	if s.CopyDelayMs < 0 {
		return errors.New("copy_delay_ms must be >= 0")
	}
	if s.CopyRetryCount < 0 {
		return errors.New("copy_retry_count must be >= 0")
	}
	if s.MaxChars <= 0 {
		return errors.New("max_chars must be > 0")
	}
	return nil
}

var validModifiers = map[string]bool{
	"ctrl":  true,
	"alt":   true,
	"shift": true,
	"win":   true,
	"cmd":   true,
	"super": true,
}

func validateCombo(combo string) error {
	parts := splitCombo(combo)
	if len(parts) < 2 {
		return fmt.Errorf("invalid combo %q, example: alt+q", combo)
	}
	for _, mod := range parts[:len(parts)-1] {
		if !validModifiers[mod] {
			return fmt.Errorf("unknown modifier %q in %q", mod, combo)
		}
	}
	return nil
}

func normalizeCombo(combo string) string {
	return strings.Join(splitCombo(combo), "+")
}

func splitCombo(combo string) []string {
	var parts []string
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	if alt := os.Getenv("TTS_TOOL_ENV"); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
