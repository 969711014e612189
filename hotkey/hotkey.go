// Package hotkey listens for global keyboard combinations and dispatches
// the bound actions. Bindings are hot-swappable so configuration changes
// apply without restarting the listener.
package hotkey

import (
	"fmt"
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Binding ties a combo string like "alt+q" to an action.
type Binding struct {
	Combo  string
	Action func()
}

// Modifier rawcodes, left and right variants plus the generic code some
// layouts report.
var modifierCodes = map[string][]uint16{
	"ctrl":  {162, 163, 17},
	"alt":   {164, 165, 18},
	"shift": {160, 161, 16},
	"cmd":   {91, 92},
}

// keyCodes maps non-alphanumeric key names to rawcodes. Letters and digits
// are derived arithmetically.
var keyCodes = map[string]uint16{
	"space":  32,
	"enter":  13,
	"tab":    9,
	"esc":    27,
	"escape": 27,
	"up":     38,
	"down":   40,
	"left":   37,
	"right":  39,
	"home":   36,
	"end":    35,
	"insert": 45,
	"delete": 46,
	"f1":     112, "f2": 113, "f3": 114, "f4": 115,
	"f5": 116, "f6": 117, "f7": 118, "f8": 119,
	"f9": 120, "f10": 121, "f11": 122, "f12": 123,
}

type compiledBinding struct {
	combo   string
	mods    [][]uint16 // one entry per required modifier, any code satisfies
	key     uint16
	latched bool
	action  func()
}

// Listener owns the global hook. One event loop serves all bindings.
type Listener struct {
	mu       sync.Mutex
	bindings []*compiledBinding
	pressed  map[uint16]bool
	started  bool
}

func NewListener() *Listener {
	return &Listener{pressed: make(map[uint16]bool)}
}

// Update replaces the active bindings. All combos are parsed before any
// swap happens; an invalid combo leaves the previous bindings in place.
func (l *Listener) Update(bindings []Binding) error {
	compiled := make([]*compiledBinding, 0, len(bindings))
	for _, b := range bindings {
		cb, err := compile(b)
		if err != nil {
			return err
		}
		compiled = append(compiled, cb)
	}

	l.mu.Lock()
	l.bindings = compiled
	l.mu.Unlock()
	for _, cb := range compiled {
		log.Printf("Hotkey bound: %s", cb.combo)
	}
	return nil
}

// Start launches the event loop goroutine. Idempotent.
func (l *Listener) Start() {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}
	l.started = true
	l.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}
		log.Printf("Hotkey listener running")

		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown, gohook.KeyHold:
				l.keyDown(ev.Rawcode)
			case gohook.KeyUp:
				l.keyUp(ev.Rawcode)
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
}

// Stop tears down the global hook.
func (l *Listener) Stop() {
	gohook.End()
}

func (l *Listener) keyDown(rawcode uint16) {
	var fire []*compiledBinding

	l.mu.Lock()
	l.pressed[rawcode] = true
	for _, b := range l.bindings {
		if !l.pressed[b.key] || !l.modsHeld(b) {
			continue
		}
		// Latch until the main key is released so holding the combo fires
		// once, not per key repeat.
		if b.latched {
			continue
		}
		b.latched = true
		fire = append(fire, b)
	}
	l.mu.Unlock()

	for _, b := range fire {
		log.Printf("Hotkey triggered: %s", b.combo)
		go b.action()
	}
}

func (l *Listener) keyUp(rawcode uint16) {
	l.mu.Lock()
	delete(l.pressed, rawcode)
	for _, b := range l.bindings {
		if b.key == rawcode {
			b.latched = false
		}
	}
	l.mu.Unlock()
}

// modsHeld reports whether every required modifier of b has at least one of
// its rawcodes down. Caller holds l.mu.
func (l *Listener) modsHeld(b *compiledBinding) bool {
	for _, alternatives := range b.mods {
		held := false
		for _, code := range alternatives {
			if l.pressed[code] {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return true
}

// compile parses "mod+...+key" into rawcodes. The last part is the main
// key; everything before it must be a modifier.
func compile(b Binding) (*compiledBinding, error) {
	if b.Action == nil {
		return nil, fmt.Errorf("binding %q has no action", b.Combo)
	}
	parts := strings.Split(strings.ToLower(b.Combo), "+")
	if len(parts) < 2 {
		return nil, fmt.Errorf("combo %q needs at least one modifier and a key", b.Combo)
	}

	cb := &compiledBinding{combo: b.Combo, action: b.Action}
	for _, part := range parts[:len(parts)-1] {
		part = strings.TrimSpace(part)
		name := part
		switch part {
		case "win", "cmd", "super":
			name = "cmd"
		}
		codes, ok := modifierCodes[name]
		if !ok {
			return nil, fmt.Errorf("combo %q: unknown modifier %q", b.Combo, part)
		}
		cb.mods = append(cb.mods, codes)
	}

	keyName := strings.TrimSpace(parts[len(parts)-1])
	key, err := keyRawcode(keyName)
	if err != nil {
		return nil, fmt.Errorf("combo %q: %v", b.Combo, err)
	}
	cb.key = key
	return cb, nil
}

func keyRawcode(name string) (uint16, error) {
	if code, ok := keyCodes[name]; ok {
		return code, nil
	}
	if len(name) == 1 {
		c := name[0]
		switch {
		case c >= 'a' && c <= 'z':
			return uint16(c - 'a' + 'A'), nil
		case c >= '0' && c <= '9':
			return uint16(c), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}
