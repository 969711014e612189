//go:build windows

package clipboard

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessID = user32.NewProc("GetWindowThreadProcessId")
	procGetGUIThreadInfo         = user32.NewProc("GetGUIThreadInfo")
	procSendMessageW             = user32.NewProc("SendMessageW")
	procKeybdEvent               = user32.NewProc("keybd_event")
	procGetAsyncKeyState         = user32.NewProc("GetAsyncKeyState")
)

const (
	wmCopy          = 0x0301
	vkShift         = 0x10
	vkControl       = 0x11
	vkMenu          = 0x12
	vkInsert        = 0x2D
	keyeventfKeyup  = 0x0002
	keyDownMask     = 0x8000
	letterC         = 'C'
	modifierWaitMax = 120 * time.Millisecond
)

type guiThreadInfo struct {
	cbSize        uint32
	flags         uint32
	hwndActive    windows.HWND
	hwndFocus     windows.HWND
	hwndCapture   windows.HWND
	hwndMenuOwner windows.HWND
	hwndMoveSize  windows.HWND
	hwndCaret     windows.HWND
	rcCaret       struct{ left, top, right, bottom int32 }
}

func simulateCopy(v CopyVariant) error {
	switch v {
	case VariantWMCopy:
		return sendWMCopy()
	case VariantCtrlC:
		waitForModifierRelease()
		sendKeyChord(vkControl, letterC)
		return nil
	case VariantCtrlInsert:
		waitForModifierRelease()
		sendKeyChord(vkControl, vkInsert)
		return nil
	default:
		return fmt.Errorf("unknown copy variant %d", v)
	}
}

// sendWMCopy posts WM_COPY to the focused control of the foreground window.
// Some applications honor it without any keyboard interaction at all.
func sendWMCopy() error {
	foreground, _, _ := procGetForegroundWindow.Call()
	if foreground == 0 {
		return fmt.Errorf("no foreground window")
	}
	target := focusWindow(foreground)
	if target == 0 {
		target = foreground
	}
	procSendMessageW.Call(target, wmCopy, 0, 0)
	return nil
}

func focusWindow(foreground uintptr) uintptr {
	threadID, _, _ := procGetWindowThreadProcessID.Call(foreground, 0)
	if threadID == 0 {
		return 0
	}
	var info guiThreadInfo
	info.cbSize = uint32(unsafe.Sizeof(info))
	ok, _, _ := procGetGUIThreadInfo.Call(threadID, uintptr(unsafe.Pointer(&info)))
	if ok == 0 {
		return 0
	}
	return uintptr(info.hwndFocus)
}

func sendKeyChord(modifier, key uintptr) {
	procKeybdEvent.Call(modifier, 0, 0, 0)
	procKeybdEvent.Call(key, 0, 0, 0)
	procKeybdEvent.Call(key, 0, keyeventfKeyup, 0)
	procKeybdEvent.Call(modifier, 0, keyeventfKeyup, 0)
}

// waitForModifierRelease gives the user's own hotkey modifiers a moment to
// come up before injecting Ctrl, so the target app does not see Ctrl+Alt+C.
func waitForModifierRelease() {
	deadline := time.Now().Add(modifierWaitMax)
	for time.Now().Before(deadline) {
		if !anyModifierDown() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func anyModifierDown() bool {
	for _, vk := range []uintptr{vkMenu, vkControl, vkShift} {
		state, _, _ := procGetAsyncKeyState.Call(vk)
		if state&keyDownMask != 0 {
			return true
		}
	}
	return false
}
