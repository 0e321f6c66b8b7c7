package proctor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Status is the signal reported by the external proctoring feed.
type Status string

const (
	StatusSafe     Status = "safe"
	StatusMissing  Status = "missing"
	StatusMultiple Status = "multiple"
)

// ParseStatus maps a raw feed value onto the known enum. Anything that is
// neither safe nor missing (multiple faces, looking away, future values)
// collapses into StatusMultiple.
func ParseStatus(raw string) Status {
	switch raw {
	case string(StatusSafe):
		return StatusSafe
	case string(StatusMissing):
		return StatusMissing
	default:
		return StatusMultiple
	}
}

// Alert reports whether the status should raise a proctoring warning.
func (s Status) Alert() bool {
	return s != StatusSafe
}

// Message returns the warning text shown alongside an active alert.
func (s Status) Message() string {
	switch s {
	case StatusMissing:
		return "Face not detected"
	case StatusMultiple:
		return "Multiple faces detected"
	default:
		return ""
	}
}

// Client polls the external proctoring service over HTTP.
// The service itself (camera capture, face inference) is an opaque
// collaborator; this client only consumes its status endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a proctor feed client against the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

// Status fetches the current proctor status. Callers are expected to treat
// any error as transient and keep their previous value.
func (c *Client) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("poll proctor feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("proctor feed returned %d", resp.StatusCode)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode proctor status: %w", err)
	}

	return ParseStatus(body.Status), nil
}

// VideoFeedURL returns the opaque MJPEG stream URL for display purposes.
func (c *Client) VideoFeedURL() string {
	return c.baseURL + "/video_feed"
}
