package hotkey

import (
	"testing"
	"time"
)

func TestCompile(t *testing.T) {
	noop := func() {}
	cases := []struct {
		combo   string
		wantErr bool
	}{
		{"alt+q", false},
		{"ctrl+alt+r", false},
		{"Ctrl+Shift+F5", false},
		{"win+space", false},
		{"q", true},
		{"alt+", true},
		{"bogus+q", true},
		{"alt+notakey", true},
	}
	for _, tc := range cases {
		_, err := compile(Binding{Combo: tc.combo, Action: noop})
		if (err != nil) != tc.wantErr {
			t.Errorf("compile(%q) error = %v, wantErr %v", tc.combo, err, tc.wantErr)
		}
	}

	if _, err := compile(Binding{Combo: "alt+q"}); err == nil {
		t.Error("Expected error for binding without action")
	}
}

func TestKeyRawcode(t *testing.T) {
	cases := []struct {
		name string
		want uint16
	}{
		{"q", 81},
		{"a", 65},
		{"z", 90},
		{"0", 48},
		{"9", 57},
		{"f5", 116},
		{"space", 32},
		{"esc", 27},
	}
	for _, tc := range cases {
		got, err := keyRawcode(tc.name)
		if err != nil {
			t.Errorf("keyRawcode(%q) error: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("keyRawcode(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func waitFor(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatal("no hotkey fired")
		return ""
	}
}

func TestBindingFiresOnCombo(t *testing.T) {
	fired := make(chan string, 8)
	l := NewListener()
	err := l.Update([]Binding{
		{Combo: "alt+q", Action: func() { fired <- "read" }},
		{Combo: "alt+r", Action: func() { fired <- "screenshot" }},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Feed the state machine directly instead of installing the OS hook.
	l.keyDown(164) // left alt
	l.keyDown(81)  // q
	if got := waitFor(t, fired); got != "read" {
		t.Errorf("Expected read action, got %q", got)
	}

	// Key repeat while latched must not refire.
	l.keyDown(81)
	select {
	case got := <-fired:
		t.Errorf("Latched combo refired: %q", got)
	case <-time.After(50 * time.Millisecond):
	}

	// Release and press again fires again.
	l.keyUp(81)
	l.keyDown(81)
	if got := waitFor(t, fired); got != "read" {
		t.Errorf("Expected read action after relatch, got %q", got)
	}

	// Second binding with the same modifier still held.
	l.keyUp(81)
	l.keyDown(82) // r
	if got := waitFor(t, fired); got != "screenshot" {
		t.Errorf("Expected screenshot action, got %q", got)
	}
}

func TestBindingRequiresAllModifiers(t *testing.T) {
	fired := make(chan string, 8)
	l := NewListener()
	if err := l.Update([]Binding{{Combo: "ctrl+alt+q", Action: func() { fired <- "x" }}}); err != nil {
		t.Fatal(err)
	}

	l.keyDown(164) // alt only
	l.keyDown(81)  // q
	select {
	case got := <-fired:
		t.Errorf("Fired without ctrl: %q", got)
	case <-time.After(50 * time.Millisecond):
	}

	l.keyDown(162) // left ctrl
	l.keyUp(81)
	l.keyDown(81)
	if got := waitFor(t, fired); got != "x" {
		t.Errorf("Expected action with full combo, got %q", got)
	}
}

func TestUpdateSwapsBindings(t *testing.T) {
	fired := make(chan string, 8)
	l := NewListener()
	if err := l.Update([]Binding{{Combo: "alt+q", Action: func() { fired <- "old" }}}); err != nil {
		t.Fatal(err)
	}
	if err := l.Update([]Binding{{Combo: "alt+w", Action: func() { fired <- "new" }}}); err != nil {
		t.Fatal(err)
	}

	l.keyDown(164)
	l.keyDown(81) // old key, no longer bound
	select {
	case got := <-fired:
		t.Errorf("Stale binding fired: %q", got)
	case <-time.After(50 * time.Millisecond):
	}

	l.keyDown(87) // w
	if got := waitFor(t, fired); got != "new" {
		t.Errorf("Expected new binding, got %q", got)
	}
}

func TestUpdateRejectsInvalidComboAtomically(t *testing.T) {
	fired := make(chan string, 8)
	l := NewListener()
	if err := l.Update([]Binding{{Combo: "alt+q", Action: func() { fired <- "keep" }}}); err != nil {
		t.Fatal(err)
	}
	if err := l.Update([]Binding{{Combo: "garbage", Action: func() {}}}); err == nil {
		t.Fatal("Expected error for invalid combo")
	}

	l.keyDown(164)
	l.keyDown(81)
	if got := waitFor(t, fired); got != "keep" {
		t.Errorf("Previous bindings must survive a failed update, got %q", got)
	}
}
