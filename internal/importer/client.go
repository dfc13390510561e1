package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repcoach/internal/models"
)

// Client pushes plans to a remote RepCoach server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a client for the server's admin plan endpoint.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// PushPlan POSTs a raw plan and returns the stored plan id. Server errors
// are retried up to 3 times with exponential backoff; 4xx responses are not.
func (c *Client) PushPlan(ctx context.Context, raw models.RawPlan) (string, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("marshaling plan: %w", err)
	}

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/plans", bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
			var stored struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(body, &stored); err != nil {
				return "", fmt.Errorf("decoding response: %w", err)
			}
			return stored.ID, nil
		case resp.StatusCode < 500:
			return "", fmt.Errorf("push rejected (status %d): %s", resp.StatusCode, body)
		}
		lastErr = fmt.Errorf("push failed (status %d): %s", resp.StatusCode, body)
	}

	return "", fmt.Errorf("after 3 attempts: %w", lastErr)
}
