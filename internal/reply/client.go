package reply

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://emoticai-backend.onrender.com/"

// Client calls the remote reply service: one GET per user message carrying the
// input text and the display name. The response body is either plain text or a
// JSON object with a "message" field; both are accepted.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

type jsonReply struct {
	Message string `json:"message"`
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Fetch returns the assistant reply for input. Any transport error, timeout, or
// non-2xx status is a uniform failure; the caller turns it into a placeholder
// message.
func (c *Client) Fetch(ctx context.Context, input, username string) (string, error) {
	// Mock mode for offline runs.
	if strings.HasPrefix(c.BaseURL, "mock://") {
		return c.mockFetch(input)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("input", input)
	q.Set("username", username)
	u.RawQuery = q.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return "", fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("reply service returned %d", resp.StatusCode)
	}

	// Structured payloads carry the reply in a "message" field.
	var parsed jsonReply
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message, nil
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", errors.New("empty reply body")
	}
	return text, nil
}

func (c *Client) mockFetch(input string) (string, error) {
	if strings.Contains(c.BaseURL, "fail") {
		return "", errors.New("mock reply failure")
	}
	return "You said: " + input, nil
}
