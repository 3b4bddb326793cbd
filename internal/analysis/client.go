// Package analysis talks to the external summarization service that turns
// precomputed aggregates into free-text guidance for the manager. The
// service is opaque: nothing here depends on its output for any invariant.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sdiallo/tably/internal/boundary"
	"github.com/sdiallo/tably/internal/service"
)

type Client struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		URL:    url,
		APIKey: apiKey,
		HTTP:   &http.Client{Timeout: 30 * time.Second},
	}
}

type request struct {
	Period    boundary.Period    `json:"period"`
	Breakdown *service.Breakdown `json:"breakdown"`
}

// Summarize posts the period's category breakdown and returns the service's
// free-text analysis verbatim.
func (c *Client) Summarize(ctx context.Context, period boundary.Period, breakdown *service.Breakdown) (string, error) {
	if c.URL == "" {
		return "", fmt.Errorf("analysis service not configured")
	}

	body, err := json.Marshal(request{Period: period, Breakdown: breakdown})
	if err != nil {
		return "", fmt.Errorf("encoding analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling analysis service: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("analysis service returned %s", res.Status)
	}

	var parsed struct {
		Analysis string `json:"analysis"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding analysis response: %w", err)
	}
	return parsed.Analysis, nil
}
