// Package entities is an HTTP client for the external named-entity
// extraction service.
package entities

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint       = "http://127.0.0.1:8855/entities"
	DefaultRequestTimeout = 20 * time.Second
)

// relevantLabels are the entity types that contribute to an article's
// fingerprint.
var relevantLabels = map[string]struct{}{
	"PERSON": {},
	"ORG":    {},
	"GPE":    {},
	"EVENT":  {},
	"NORP":   {},
	"LOC":    {},
	"FAC":    {},
	"DATE":   {},
}

type Options struct {
	Endpoint       string
	RequestTimeout time.Duration
}

type Client struct {
	opts       Options
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	if strings.TrimSpace(opts.Endpoint) == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Client{
		opts: opts,
		httpClient: &http.Client{
			Timeout: opts.RequestTimeout,
		},
	}
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Entities []struct {
		Text  string `json:"text"`
		Label string `json:"label"`
	} `json:"entities"`
}

// Extract returns the relevant entity strings found in text, lowercased,
// trimmed and deduplicated.
func (c *Client) Extract(ctx context.Context, text string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("entity client is nil")
	}

	body, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal entity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build entity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("entity request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read entity response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("entity service status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode entity response: %w", err)
	}

	seen := make(map[string]struct{}, len(parsed.Entities))
	entities := make([]string, 0, len(parsed.Entities))
	for _, ent := range parsed.Entities {
		if _, ok := relevantLabels[strings.ToUpper(strings.TrimSpace(ent.Label))]; !ok {
			continue
		}
		value := strings.ToLower(strings.TrimSpace(ent.Text))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		entities = append(entities, value)
	}
	return entities, nil
}
