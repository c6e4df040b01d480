// Package pollsource fetches poll snapshots and the organization key from
// the meeting backend, over HTTP polling or a WebSocket subscription.
package pollsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voteaudit/internal/domain"
)

// Organization carries the organization's public signing key.
type Organization struct {
	VoteDecryptPublicMainKey string `json:"vote_decrypt_public_main_key"`
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = client
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.Token = token
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.HTTPClient = &http.Client{Timeout: timeout}
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) FetchPolls(ctx context.Context) ([]domain.Poll, error) {
	var polls []domain.Poll
	if err := c.getJSON(ctx, "/polls", &polls); err != nil {
		return nil, fmt.Errorf("fetch polls: %w", err)
	}
	return polls, nil
}

func (c *Client) FetchOrganization(ctx context.Context) (Organization, error) {
	var org Organization
	if err := c.getJSON(ctx, "/organization", &org); err != nil {
		return Organization{}, fmt.Errorf("fetch organization: %w", err)
	}
	return org, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c == nil {
		return fmt.Errorf("backend client is nil")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d body %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
