// Package admin is the operator side of the REST API: a small client for the
// room and alert endpoints and table rendering for the CLI.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	transporthttp "github.com/mahmud-r-farhan/Realtime-Location-Tracker/internal/transport/http"
)

const defaultTimeout = 10 * time.Second

// ErrUnauthorized is returned when the server rejects the operator token.
var ErrUnauthorized = errors.New("operator token rejected")

// Client talks to a running tracker server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for baseURL (scheme and host, e.g. http://localhost:3000).
// token may be empty when the server runs without an operator secret.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// Rooms fetches live room statistics.
func (c *Client) Rooms(ctx context.Context) (*transporthttp.RoomsResponse, error) {
	var out transporthttp.RoomsResponse
	if err := c.get(ctx, "/api/rooms", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Alerts fetches the newest journaled SOS alerts of room. limit <= 0 uses the
// server default.
func (c *Client) Alerts(ctx context.Context, room string, limit int) (*transporthttp.AlertsResponse, error) {
	path := "/api/rooms/" + url.PathEscape(room) + "/alerts"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out transporthttp.AlertsResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("GET %s: %w", path, ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		var body transporthttp.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			return fmt.Errorf("GET %s: %s (%d)", path, body.Error, resp.StatusCode)
		}
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
