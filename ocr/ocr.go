// Package ocr extracts text from screenshots through a vision language
// model exposed over an OpenAI-compatible chat completions API.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Engine recognizes text in a PNG image. Implementations must honor ctx
// cancellation; a superseded capture should not keep a network call alive.
type Engine interface {
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// Config holds the vision API connection settings.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string // chat/completions URL; empty means the OpenRouter default
}

const (
	defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	maxRetries      = 3
	initialDelay    = 1 * time.Second
)

// OpenAI-compatible API structures
type message struct {
	Role    string    `json:"role"`
	Content []content `json:"content"`
}

type content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Message responseMessage `json:"message"`
}

type responseMessage struct {
	Content string `json:"content"`
}

type apiError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // string or number depending on provider
}

const ocrPrompt = "Perform OCR on this image. Return ONLY the raw extracted text with:\n" +
	"- No formatting\n" +
	"- No XML/HTML tags\n" +
	"- No markdown\n" +
	"- No explanations\n" +
	"- Preserve line breaks accurately from the visual layout.\n" +
	"If no text found, return 'NO_TEXT_FOUND'"

// VisionEngine is the HTTP client for the vision API.
type VisionEngine struct {
	cfg    Config
	client *http.Client
}

// NewVisionEngine validates the config and returns a ready engine.
func NewVisionEngine(cfg Config) (*VisionEngine, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return &VisionEngine{
		cfg:    cfg,
		client: &http.Client{Timeout: 45 * time.Second},
	}, nil
}

// Recognize sends the PNG to the vision model and returns the extracted
// text. Returns an error when the model reports the image has no text.
func (e *VisionEngine) Recognize(ctx context.Context, imageData []byte) (string, error) {
	base64Image := base64.StdEncoding.EncodeToString(imageData)

	request := chatRequest{
		Model: e.cfg.Model,
		Messages: []message{
			{
				Role: "user",
				Content: []content{
					{Type: "text", Text: ocrPrompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: fmt.Sprintf("data:image/png;base64,%s", base64Image),
					}},
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2000,
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(initialDelay) * (1.5 * float64(attempt)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		response, err := e.makeAPIRequest(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
			continue
		}

		if len(response.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in API response")
			continue
		}

		extracted := cleanExtractedText(response.Choices[0].Message.Content)
		if extracted == "" || extracted == "NO_TEXT_FOUND" {
			return "", fmt.Errorf("no text detected in image")
		}
		return extracted, nil
	}

	return "", fmt.Errorf("failed after %d attempts: %v", maxRetries, lastErr)
}

func (e *VisionEngine) makeAPIRequest(ctx context.Context, request chatRequest) (*chatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.cfg.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", e.cfg.APIKey))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %v", err)
	}
	defer resp.Body.Close()

	var response chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return &response, nil
}

// cleanExtractedText strips tag artifacts some vision models append.
func cleanExtractedText(text string) string {
	if text == "</image>" {
		return ""
	}
	text = strings.TrimSuffix(text, "</image>")
	return text
}
