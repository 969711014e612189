package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeService struct {
	result string
	err    error
	calls  int
}

func (f *fakeService) Translate(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.result, f.err
}

func TestIsMostlyEnglish(t *testing.T) {
	cases := []struct {
		name string
		text string
		want bool
	}{
		{"plain english", "The quick brown fox jumps over the lazy dog", true},
		{"empty", "", false},
		{"whitespace only", "   \n\t", false},
		{"digits only", "12345 67890", false},
		{"punctuation only", "!?.,;:", false},
		{"chinese", "这是一段中文文本内容", false},
		{"mostly chinese with english word", "这是中文 hello 内容", false},
		{"english with two cjk chars", "This is a long English sentence mentioning 中文 briefly in passing here", true},
		{"english with three cjk chars", "short 中文字", false},
		{"japanese", "これは日本語のテキストです", false},
		{"korean", "이것은 한국어 텍스트입니다", false},
		{"english with numbers", "Chapter 12 covers error handling in Go", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMostlyEnglish(tc.text); got != tc.want {
				t.Errorf("IsMostlyEnglish(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestGateDisabledPassesThrough(t *testing.T) {
	svc := &fakeService{result: "translated"}
	gate := NewGate(svc, false)

	if got := gate.Apply(context.Background(), "hello world"); got != "hello world" {
		t.Errorf("Expected passthrough, got %q", got)
	}
	if svc.calls != 0 {
		t.Errorf("Service should not be called when disabled, got %d calls", svc.calls)
	}
}

func TestGateTranslatesEnglish(t *testing.T) {
	svc := &fakeService{result: "你好世界"}
	gate := NewGate(svc, true)

	if got := gate.Apply(context.Background(), "hello world"); got != "你好世界" {
		t.Errorf("Expected translated text, got %q", got)
	}
	if svc.calls != 1 {
		t.Errorf("Expected 1 service call, got %d", svc.calls)
	}
}

func TestGateSkipsNonEnglish(t *testing.T) {
	svc := &fakeService{result: "should not appear"}
	gate := NewGate(svc, true)

	text := "这段文字已经是中文了"
	if got := gate.Apply(context.Background(), text); got != text {
		t.Errorf("Expected passthrough for non-English text, got %q", got)
	}
	if svc.calls != 0 {
		t.Errorf("Service should not be called, got %d calls", svc.calls)
	}
}

func TestGateFallsBackOnError(t *testing.T) {
	svc := &fakeService{err: fmt.Errorf("network down")}
	gate := NewGate(svc, true)

	if got := gate.Apply(context.Background(), "hello world"); got != "hello world" {
		t.Errorf("Expected original text on failure, got %q", got)
	}
}

func TestGateSetEnabled(t *testing.T) {
	svc := &fakeService{result: "翻译"}
	gate := NewGate(svc, false)
	gate.SetEnabled(true)

	if got := gate.Apply(context.Background(), "some english text"); got != "翻译" {
		t.Errorf("Expected translation after enabling, got %q", got)
	}
}

func TestGateConcurrentToggle(t *testing.T) {
	svc := &fakeService{result: "翻译"}
	gate := NewGate(svc, false)

	// The config watcher flips the switch while request goroutines read it;
	// the race detector flags any unsynchronized access here.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			gate.SetEnabled(i%2 == 0)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			got := gate.Apply(context.Background(), "hello world")
			if got != "hello world" && got != "翻译" {
				t.Errorf("Unexpected result %q", got)
				return
			}
		}
	}()
	wg.Wait()
}

func TestGoogleClientParsesSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("tl") != "zh-CN" || q.Get("sl") != "auto" {
			t.Errorf("Unexpected query params: %v", q)
		}
		if q.Get("q") != "hello world" {
			t.Errorf("Unexpected text param: %q", q.Get("q"))
		}
		fmt.Fprint(w, `[[["你好","hello",null,null],["世界","world",null,null]],null,"en"]`)
	}))
	defer server.Close()

	client := NewGoogleClient(server.URL)
	got, err := client.Translate(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got != "你好世界" {
		t.Errorf("Expected joined segments, got %q", got)
	}
}

func TestGoogleClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewGoogleClient(server.URL)
	if _, err := client.Translate(context.Background(), "hello"); err == nil {
		t.Error("Expected error from non-200 status")
	}
}
