package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// maxErrorBody caps how much of a rejection response is kept for diagnostics.
const maxErrorBody = 4 << 10

// Client posts attendance payloads to the configured endpoint. Delivery
// is at-most-once: a failed request is reported to the caller and never
// retried.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client with a bounded request timeout so a stalled
// request cannot starve the monitor loop. A non-positive timeout selects
// the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send serializes the payload and posts it to endpoint. Any 2xx response
// counts as delivered; everything else is an error carrying the status
// and response body.
func (client *Client) Send(payload Payload, endpoint string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	request, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("send %s event: %w", payload.EventType, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	return fmt.Errorf("api request failed with status %d: %s",
		response.StatusCode, strings.TrimSpace(string(detail)))
}
