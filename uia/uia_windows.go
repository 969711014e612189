//go:build windows

package uia

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// Raw COM bindings for the small slice of UI Automation the capture chain
// needs: focused element -> text pattern -> selection -> text. go-ole's
// IDispatch helpers do not apply (UIA interfaces are not automation
// compatible), so calls go through the vtables directly.

var (
	clsidCUIAutomation          = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation            = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
	iidIUIAutomationTextPattern = ole.NewGUID("{32EBA289-3583-42C9-9C59-3B6D9A1E9B6A}")
)

// UIA_TextPatternId
const textPatternID = 10014

var procSysFreeString = syscall.NewLazyDLL("oleaut32.dll").NewProc("SysFreeString")

type windowsReader struct {
	mu   sync.Mutex
	auto *automation
}

func newPlatformReader() Reader {
	r := &windowsReader{}
	// S_FALSE (already initialized) comes back as an error; harmless.
	_ = ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	unknown, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		log.Printf("UI Automation not available: %v", err)
		return r
	}
	r.auto = (*automation)(unsafe.Pointer(unknown))
	log.Printf("UI Automation selection reader initialized")
	return r
}

func (r *windowsReader) Available() bool { return r.auto != nil }

// ReadSelection returns the focused control's selected text, or empty when
// the control exposes no text pattern or nothing is selected.
func (r *windowsReader) ReadSelection() (string, error) {
	if r.auto == nil {
		return "", fmt.Errorf("UI Automation not available")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, err := r.auto.focusedElement()
	if err != nil {
		return "", err
	}
	if elem == nil {
		return "", nil
	}
	defer elem.Release()

	pattern, err := elem.textPattern()
	if err != nil {
		return "", err
	}
	if pattern == nil {
		return "", nil
	}
	defer pattern.Release()

	ranges, err := pattern.selection()
	if err != nil {
		return "", err
	}
	if ranges == nil {
		return "", nil
	}
	defer ranges.Release()

	n, err := ranges.length()
	if err != nil {
		return "", err
	}

	var chunks []string
	for i := int32(0); i < n; i++ {
		rng, err := ranges.element(i)
		if err != nil || rng == nil {
			continue
		}
		piece, err := rng.text()
		rng.Release()
		if err == nil && piece != "" {
			chunks = append(chunks, piece)
		}
	}
	return strings.Join(chunks, ""), nil
}

type automation struct{ ole.IUnknown }

type automationVtbl struct {
	ole.IUnknownVtbl
	CompareElements   uintptr
	CompareRuntimeIds uintptr
	GetRootElement    uintptr
	ElementFromHandle uintptr
	ElementFromPoint  uintptr
	GetFocusedElement uintptr
}

func (a *automation) vtbl() *automationVtbl {
	return (*automationVtbl)(unsafe.Pointer(a.RawVTable))
}

func (a *automation) focusedElement() (*element, error) {
	var elem *element
	hr, _, _ := syscall.SyscallN(a.vtbl().GetFocusedElement,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(&elem)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return elem, nil
}

type element struct{ ole.IUnknown }

type elementVtbl struct {
	ole.IUnknownVtbl
	SetFocus                  uintptr
	GetRuntimeId              uintptr
	FindFirst                 uintptr
	FindAll                   uintptr
	FindFirstBuildCache       uintptr
	FindAllBuildCache         uintptr
	BuildUpdatedCache         uintptr
	GetCurrentPropertyValue   uintptr
	GetCurrentPropertyValueEx uintptr
	GetCachedPropertyValue    uintptr
	GetCachedPropertyValueEx  uintptr
	GetCurrentPatternAs       uintptr
	GetCachedPatternAs        uintptr
	GetCurrentPattern         uintptr
	GetCachedPattern          uintptr
}

func (e *element) vtbl() *elementVtbl {
	return (*elementVtbl)(unsafe.Pointer(e.RawVTable))
}

func (e *element) textPattern() (*textPattern, error) {
	var unknown *ole.IUnknown
	hr, _, _ := syscall.SyscallN(e.vtbl().GetCurrentPattern,
		uintptr(unsafe.Pointer(e)),
		uintptr(textPatternID),
		uintptr(unsafe.Pointer(&unknown)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	if unknown == nil {
		return nil, nil
	}
	defer unknown.Release()

	var raw uintptr
	hr, _, _ = syscall.SyscallN(unknown.VTable().QueryInterface,
		uintptr(unsafe.Pointer(unknown)),
		uintptr(unsafe.Pointer(iidIUIAutomationTextPattern)),
		uintptr(unsafe.Pointer(&raw)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return (*textPattern)(unsafe.Pointer(raw)), nil
}

type textPattern struct{ ole.IUnknown }

type textPatternVtbl struct {
	ole.IUnknownVtbl
	RangeFromPoint uintptr
	RangeFromChild uintptr
	GetSelection   uintptr
}

func (p *textPattern) vtbl() *textPatternVtbl {
	return (*textPatternVtbl)(unsafe.Pointer(p.RawVTable))
}

func (p *textPattern) selection() (*textRangeArray, error) {
	var ranges *textRangeArray
	hr, _, _ := syscall.SyscallN(p.vtbl().GetSelection,
		uintptr(unsafe.Pointer(p)),
		uintptr(unsafe.Pointer(&ranges)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return ranges, nil
}

type textRangeArray struct{ ole.IUnknown }

type textRangeArrayVtbl struct {
	ole.IUnknownVtbl
	GetLength  uintptr
	GetElement uintptr
}

func (a *textRangeArray) vtbl() *textRangeArrayVtbl {
	return (*textRangeArrayVtbl)(unsafe.Pointer(a.RawVTable))
}

func (a *textRangeArray) length() (int32, error) {
	var n int32
	hr, _, _ := syscall.SyscallN(a.vtbl().GetLength,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(&n)))
	if hr != 0 {
		return 0, ole.NewError(hr)
	}
	return n, nil
}

func (a *textRangeArray) element(i int32) (*textRange, error) {
	var rng *textRange
	hr, _, _ := syscall.SyscallN(a.vtbl().GetElement,
		uintptr(unsafe.Pointer(a)),
		uintptr(i),
		uintptr(unsafe.Pointer(&rng)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return rng, nil
}

type textRange struct{ ole.IUnknown }

type textRangeVtbl struct {
	ole.IUnknownVtbl
	Clone                 uintptr
	Compare               uintptr
	CompareEndpoints      uintptr
	ExpandToEnclosingUnit uintptr
	FindAttribute         uintptr
	FindText              uintptr
	GetAttributeValue     uintptr
	GetBoundingRectangles uintptr
	GetEnclosingElement   uintptr
	GetText               uintptr
}

func (r *textRange) vtbl() *textRangeVtbl {
	return (*textRangeVtbl)(unsafe.Pointer(r.RawVTable))
}

func (r *textRange) text() (string, error) {
	var bstr *uint16
	hr, _, _ := syscall.SyscallN(r.vtbl().GetText,
		uintptr(unsafe.Pointer(r)),
		^uintptr(0), // -1: no length limit
		uintptr(unsafe.Pointer(&bstr)))
	if hr != 0 {
		return "", ole.NewError(hr)
	}
	if bstr == nil {
		return "", nil
	}
	defer procSysFreeString.Call(uintptr(unsafe.Pointer(bstr)))
	return ole.BstrToString(bstr), nil
}
