// Package api is the thin client CLI commands use to submit extracted
// drafts to the feed server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"musicfeed/pkg/feed"
)

// Client talks to the feed HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the feed API at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// apiError is the error payload the server renders
type apiError struct {
	Error string `json:"error"`
}

// Add submits a draft and returns the stored item. Conflict and validation
// rejections surface as the matching feed sentinel errors.
func (c *Client) Add(ctx context.Context, draft feed.Draft) (feed.Item, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return feed.Item{}, fmt.Errorf("marshal draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/music-feed", bytes.NewReader(body))
	if err != nil {
		return feed.Item{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return feed.Item{}, fmt.Errorf("%w: feed api: %v", feed.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return feed.Item{}, c.asError(resp)
	}

	var item feed.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return feed.Item{}, fmt.Errorf("decode feed api response: %w", err)
	}
	return item, nil
}

// asError maps a non-200 response to the failure taxonomy, keeping the
// server's error message
func (c *Client) asError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	msg := strings.TrimSpace(string(data))
	var payload apiError
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", feed.ErrConflict, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", feed.ErrValidation, msg)
	default:
		return fmt.Errorf("%w: feed api error %d: %s", feed.ErrUpstream, resp.StatusCode, msg)
	}
}
