package config

import (
	"context"
	"log"
	"os"
	"time"
)

// Watch polls path for modification-time changes and invokes onChange with
// the freshly read settings. Invalid or unreadable files are logged and
// skipped; the previous settings stay in effect. Watch blocks until ctx is
// cancelled, so run it in its own goroutine.
func Watch(ctx context.Context, path string, interval time.Duration, onChange func(Settings)) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	lastMtime := fileMtime(path)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		mtime := fileMtime(path)
		if mtime.IsZero() || mtime.Equal(lastMtime) {
			continue
		}
		lastMtime = mtime

		s, err := Read(path)
		if err != nil {
			log.Printf("Config reload skipped: %v", err)
			continue
		}
		log.Printf("Config file changed, applying new settings")
		onChange(s)
	}
}

func fileMtime(path string) time.Time {
	st, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return st.ModTime()
}
