package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liweimin/tts-tool/capture"
	"github.com/liweimin/tts-tool/clipboard"
	"github.com/liweimin/tts-tool/config"
	"github.com/liweimin/tts-tool/coordinator"
	"github.com/liweimin/tts-tool/hotkey"
	"github.com/liweimin/tts-tool/logutil"
	"github.com/liweimin/tts-tool/ocr"
	"github.com/liweimin/tts-tool/overlay"
	"github.com/liweimin/tts-tool/panel"
	"github.com/liweimin/tts-tool/singleinstance"
	"github.com/liweimin/tts-tool/speech"
	"github.com/liweimin/tts-tool/translate"
	"github.com/liweimin/tts-tool/tray"
	"github.com/liweimin/tts-tool/uia"
)

const configWatchInterval = 500 * time.Millisecond

func main() {
	svc := config.LoadService()
	logutil.Setup(svc.EnableFileLogging)

	lock, err := singleinstance.Acquire()
	if err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			log.Printf("Another instance is already running, exiting")
			os.Exit(0)
		}
		log.Fatalf("Failed to acquire instance lock: %v", err)
	}
	defer lock.Release()

	if err := config.WriteDefaultIfMissing(config.DefaultPath); err != nil {
		log.Printf("Failed to write default config: %v", err)
	}
	cfg, err := config.Read(config.DefaultPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := clipboard.Init(); err != nil {
		log.Fatalf("Failed to initialize clipboard: %v", err)
	}

	// Screenshot capture needs a recognition backend; without an API key the
	// selection pipeline still works.
	var recognizer ocr.Engine
	if svc.OCRAPIKey != "" {
		engine, err := ocr.NewVisionEngine(ocr.Config{
			APIKey:   svc.OCRAPIKey,
			Model:    svc.OCRModel,
			Endpoint: svc.OCREndpoint,
		})
		if err != nil {
			log.Fatalf("Failed to configure recognition engine: %v", err)
		}
		recognizer = engine
		log.Printf("Recognition engine ready, model: %s", svc.OCRModel)
	} else {
		recognizer = unavailableEngine{}
		log.Printf("OCR_API_KEY not set, screenshot capture will report no text")
	}

	selection := capture.NewSelectionChain(uia.NewReader())
	screenshotSource := capture.NewScreenshotSource(overlay.NewSelector(), recognizer)

	gate := translate.NewGate(translate.NewGoogleClient(svc.TranslateEndpoint), cfg.EnableAutoTranslation)
	speaker := speech.NewController(speech.NewEngine(), cfg.TTSRate, cfg.TTSVoiceContains, !cfg.SkipIfNoText)

	coord := coordinator.New(selection, screenshotSource, gate, speaker, captureOptions(cfg))

	listener := hotkey.NewListener()
	if err := listener.Update(hotkeyBindings(cfg, coord)); err != nil {
		log.Fatalf("Failed to bind hotkeys: %v", err)
	}
	listener.Start()
	defer listener.Stop()

	log.Printf("TTS Tool initialized")
	log.Printf("Read hotkey: %s, screenshot hotkey: %s", cfg.Hotkey, cfg.ScreenshotHotkey)

	// Hot-reload the user config. Capture options apply to the next request;
	// a rebind failure keeps the previous hotkeys.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go config.Watch(watchCtx, config.DefaultPath, configWatchInterval, func(updated config.Settings) {
		coord.UpdateOptions(captureOptions(updated))
		gate.SetEnabled(updated.EnableAutoTranslation)
		speaker.Configure(updated.TTSRate, updated.TTSVoiceContains, !updated.SkipIfNoText)
		if err := listener.Update(hotkeyBindings(updated, coord)); err != nil {
			log.Printf("Config update: hotkey rebind failed, keeping previous bindings: %v", err)
		}
		log.Printf("Configuration reloaded")
	})

	// Forward signals into the tray loop so both exits converge.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("Shutting down due to signal...")
		tray.Quit()
	}()

	tray.Run(tray.Handlers{
		ReadAgain:  func() { coord.Replay() },
		Screenshot: func() { coord.Submit(coordinator.KindScreenshot) },
		Settings: func() {
			if err := panel.OpenSettings(config.DefaultPath); err != nil {
				log.Printf("Failed to open settings: %v", err)
			}
		},
		OpenLogs: func() {
			if err := panel.OpenLogs(logutil.Path()); err != nil {
				log.Printf("Failed to open logs: %v", err)
			}
		},
		OnExit: func() {
			log.Printf("Shutting down...")
			speaker.Stop()
		},
	})
}

func captureOptions(cfg config.Settings) capture.Options {
	return capture.Options{
		CopyDelayMs:    cfg.CopyDelayMs,
		CopyRetryCount: cfg.CopyRetryCount,
		MaxChars:       cfg.MaxChars,
	}
}

func hotkeyBindings(cfg config.Settings, coord *coordinator.Coordinator) []hotkey.Binding {
	return []hotkey.Binding{
		{Combo: cfg.Hotkey, Action: func() { coord.Submit(coordinator.KindSelection) }},
		{Combo: cfg.ScreenshotHotkey, Action: func() { coord.Submit(coordinator.KindScreenshot) }},
	}
}

// unavailableEngine stands in when no API key is configured.
type unavailableEngine struct{}

func (unavailableEngine) Recognize(ctx context.Context, imageData []byte) (string, error) {
	return "", errors.New("recognition engine not configured, set OCR_API_KEY")
}
