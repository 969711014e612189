package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultGoogleEndpoint = "https://translate.googleapis.com/translate_a/single"
	targetLanguage        = "zh-CN"
)

// GoogleClient translates through the free Google web endpoint.
type GoogleClient struct {
	endpoint string
	client   *http.Client
}

// NewGoogleClient returns a client for the given endpoint, or the public
// Google endpoint when empty.
func NewGoogleClient(endpoint string) *GoogleClient {
	if endpoint == "" {
		endpoint = defaultGoogleEndpoint
	}
	return &GoogleClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 3 * time.Second},
	}
}

// Translate translates text to Simplified Chinese. The endpoint responds
// with nested arrays; the translated sentence segments live at [0][i][0].
func (c *GoogleClient) Translate(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", "auto")
	params.Set("tl", targetLanguage)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translation endpoint returned status %d", resp.StatusCode)
	}

	var payload []interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode translation response: %v", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translation response")
	}

	segments, ok := payload[0].([]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected translation response shape")
	}

	var sb strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if piece, ok := parts[0].(string); ok {
			sb.WriteString(piece)
		}
	}
	return sb.String(), nil
}
