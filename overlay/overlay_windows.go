//go:build windows

package overlay

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"github.com/liweimin/tts-tool/screenshot"
)

// windowsSelector shows a dimmed fullscreen layered window with a
// rubber-band rectangle. Mouse release commits the region, ESC cancels.
type windowsSelector struct{}

func newPlatformSelector() Selector { return &windowsSelector{} }

// One overlay at a time. A preempted request that is still inside Select
// finishes its interaction; the superseding request queues behind it.
var overlayMu sync.Mutex

// Selection state shared with the window procedure. Guarded by overlayMu:
// only one overlay window exists at any moment.
var sel struct {
	hwnd      win.HWND
	originX   int32
	originY   int32
	dragging  bool
	startX    int32
	startY    int32
	curX      int32
	curY      int32
	cancelled bool
	region    screenshot.Region
}

const overlayAlpha = 77 // ~30% opacity, same dimming as a 0.3 alpha overlay

func (s *windowsSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	overlayMu.Lock()
	defer overlayMu.Unlock()

	// A request superseded while waiting its turn never opened the overlay;
	// report cancellation, not user dismissal.
	if err := ctx.Err(); err != nil {
		return screenshot.Region{}, false, err
	}

	// The message loop must stay on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("Overlay: virtual screen x=%d y=%d w=%d h=%d", vx, vy, vw, vh)

	sel.originX, sel.originY = vx, vy
	sel.dragging = false
	sel.cancelled = false
	sel.region = screenshot.Region{}

	classNameStr := fmt.Sprintf("TTSToolOverlay_%d", time.Now().UnixNano())
	className, err := syscall.UTF16PtrFromString(classNameStr)
	if err != nil {
		return screenshot.Region{}, false, err
	}

	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   overlayWndProc,
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
		HbrBackground: win.HBRUSH(win.GetStockObject(win.BLACK_BRUSH)),
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return screenshot.Region{}, false, fmt.Errorf("failed to register overlay window class")
	}
	defer win.UnregisterClass(className)

	title, _ := syscall.UTF16PtrFromString("Select region - drag to capture, ESC to cancel")
	sel.hwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_LAYERED|win.WS_EX_TOOLWINDOW,
		className,
		title,
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if sel.hwnd == 0 {
		return screenshot.Region{}, false, fmt.Errorf("failed to create overlay window")
	}

	win.SetLayeredWindowAttributes(sel.hwnd, 0, overlayAlpha, win.LWA_ALPHA)
	win.ShowWindow(sel.hwnd, win.SW_SHOW)
	win.SetForegroundWindow(sel.hwnd)
	win.SetFocus(sel.hwnd)
	win.UpdateWindow(sel.hwnd)

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	sel.hwnd = 0

	if sel.cancelled {
		log.Printf("Overlay: selection cancelled")
		return screenshot.Region{}, true, nil
	}
	log.Printf("Overlay: region committed %+v", sel.region)
	return sel.region, false, nil
}

var overlayWndProc = syscall.NewCallback(func(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		sel.dragging = true
		sel.startX, sel.startY = mouseXY(lParam)
		sel.curX, sel.curY = sel.startX, sel.startY
		win.SetCapture(hwnd)
		return 0

	case win.WM_MOUSEMOVE:
		if sel.dragging {
			sel.curX, sel.curY = mouseXY(lParam)
			win.InvalidateRect(hwnd, nil, true)
		}
		return 0

	case win.WM_LBUTTONUP:
		if sel.dragging {
			sel.dragging = false
			win.ReleaseCapture()
			sel.curX, sel.curY = mouseXY(lParam)
			sel.region = dragRegion()
			win.DestroyWindow(hwnd)
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			sel.cancelled = true
			win.DestroyWindow(hwnd)
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		if sel.dragging {
			drawBand(hdc)
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
})

func mouseXY(lParam uintptr) (int32, int32) {
	x := int32(int16(win.LOWORD(uint32(lParam))))
	y := int32(int16(win.HIWORD(uint32(lParam))))
	return x, y
}

func drawBand(hdc win.HDC) {
	pen := win.CreatePen(win.PS_SOLID, 2, win.RGB(255, 64, 64))
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	win.Rectangle_(hdc,
		min32(sel.startX, sel.curX),
		min32(sel.startY, sel.curY),
		max32(sel.startX, sel.curX),
		max32(sel.startY, sel.curY),
	)

	win.SelectObject(hdc, oldBrush)
	win.SelectObject(hdc, oldPen)
	win.DeleteObject(win.HGDIOBJ(pen))
}

// dragRegion converts the client-space drag rectangle to absolute
// virtual-screen coordinates.
func dragRegion() screenshot.Region {
	left := min32(sel.startX, sel.curX)
	top := min32(sel.startY, sel.curY)
	return screenshot.Region{
		X:      int(sel.originX + left),
		Y:      int(sel.originY + top),
		Width:  int(max32(sel.startX, sel.curX) - left),
		Height: int(max32(sel.startY, sel.curY) - top),
	}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
