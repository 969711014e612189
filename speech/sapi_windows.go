//go:build windows

package speech

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// SAPI SpVoice.Speak flags
const (
	svsfFlagsAsync        = 1
	svsfPurgeBeforeSpeak  = 2
	sapiWaitUntilFinished = -1
)

// sapiEngine drives the Windows Speech API through COM automation. All COM
// calls happen under mu; the SpVoice object is created lazily on the first
// utterance so the process starts fast.
type sapiEngine struct {
	mu    sync.Mutex
	voice *ole.IDispatch
}

// NewEngine returns the Windows SAPI engine.
func NewEngine() Engine {
	return &sapiEngine{}
}

func (e *sapiEngine) ensureVoice() (*ole.IDispatch, error) {
	if e.voice != nil {
		return e.voice, nil
	}
	// S_FALSE on repeat initialization is fine.
	_ = ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, fmt.Errorf("failed to create SAPI voice: %v", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, fmt.Errorf("failed to query SAPI dispatch: %v", err)
	}
	e.voice = voice
	return voice, nil
}

// Say speaks text at rateWPM with the first installed voice whose
// description contains voiceFilter. Blocks until the utterance completes or
// StopNow purges it.
func (e *sapiEngine) Say(text string, rateWPM int, voiceFilter string) error {
	e.mu.Lock()
	voice, err := e.ensureVoice()
	if err != nil {
		e.mu.Unlock()
		return err
	}

	if _, err := oleutil.PutProperty(voice, "Rate", wpmToSAPIRate(rateWPM)); err != nil {
		log.Printf("SAPI: failed to set rate: %v", err)
	}
	if voiceFilter != "" {
		if err := e.selectVoice(voice, voiceFilter); err != nil {
			log.Printf("SAPI: voice selection failed: %v", err)
		}
	}

	// Async start with purge, then wait. Purge lets a later StopNow (or the
	// next utterance) cut this one off mid-sentence.
	_, err = oleutil.CallMethod(voice, "Speak", text, svsfFlagsAsync|svsfPurgeBeforeSpeak)
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("SAPI speak failed: %v", err)
	}

	if _, err := oleutil.CallMethod(voice, "WaitUntilDone", sapiWaitUntilFinished); err != nil {
		return fmt.Errorf("SAPI wait failed: %v", err)
	}
	return nil
}

// StopNow purges the speech queue by speaking an empty async utterance.
func (e *sapiEngine) StopNow() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voice == nil {
		return nil
	}
	_, err := oleutil.CallMethod(e.voice, "Speak", "", svsfFlagsAsync|svsfPurgeBeforeSpeak)
	if err != nil {
		return fmt.Errorf("SAPI purge failed: %v", err)
	}
	return nil
}

// selectVoice picks the first voice whose description contains filter,
// case-insensitively. Unknown filters leave the current voice in place.
func (e *sapiEngine) selectVoice(voice *ole.IDispatch, filter string) error {
	voicesVar, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		return fmt.Errorf("failed to enumerate voices: %v", err)
	}
	voices := voicesVar.ToIDispatch()
	defer voices.Release()

	countVar, err := oleutil.GetProperty(voices, "Count")
	if err != nil {
		return fmt.Errorf("failed to count voices: %v", err)
	}
	count := int(countVar.Val)

	needle := strings.ToLower(filter)
	for i := 0; i < count; i++ {
		itemVar, err := oleutil.CallMethod(voices, "Item", i)
		if err != nil {
			continue
		}
		item := itemVar.ToIDispatch()
		descVar, err := oleutil.CallMethod(item, "GetDescription")
		if err != nil {
			item.Release()
			continue
		}
		desc := descVar.ToString()
		if strings.Contains(strings.ToLower(desc), needle) {
			_, err := oleutil.PutPropertyRef(voice, "Voice", item)
			item.Release()
			if err != nil {
				return fmt.Errorf("failed to set voice %q: %v", desc, err)
			}
			log.Printf("SAPI: using voice %q", desc)
			return nil
		}
		item.Release()
	}
	return fmt.Errorf("no installed voice matches %q", filter)
}

// wpmToSAPIRate maps words per minute onto the SAPI -10..10 scale. SAPI
// rate n multiplies the default speed by 1.11^n around a 156.63 wpm
// baseline.
func wpmToSAPIRate(wpm int) int {
	if wpm <= 0 {
		return 0
	}
	rate := int(math.Round(math.Log(float64(wpm)/156.63) / math.Log(1.11)))
	if rate < -10 {
		rate = -10
	}
	if rate > 10 {
		rate = 10
	}
	return rate
}
