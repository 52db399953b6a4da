package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

const maxResponseBody = 1 << 20

// TriggerClient makes the secret-authenticated calls between pipeline stages.
type TriggerClient struct {
	http *http.Client
}

func NewTriggerClient(client *http.Client) *TriggerClient {
	if client == nil {
		client = &http.Client{}
	}
	return &TriggerClient{http: client}
}

type InvokeResult struct {
	Status   int
	Body     []byte
	Duration time.Duration
}

func (r *InvokeResult) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Invoke sends an empty-bodied request with the given headers and returns the
// downstream status and body whatever the status is.
func (c *TriggerClient) Invoke(ctx context.Context, method, url string, header http.Header) (*InvokeResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request to %s: %w", url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}
	return &InvokeResult{Status: resp.StatusCode, Body: body, Duration: time.Since(start)}, nil
}

// Preview cuts body to at most limit bytes on a rune boundary, marking the cut.
func Preview(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}
