// Package history fetches paged message history over the REST API.
// It is the pull half of the chat feed; the push half arrives over the
// realtime transport.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mamafit-chat/internal/domain"
	"mamafit-chat/internal/observability"
)

var ErrRoomNotFound = errors.New("history: room not found")

// Page is one page of message history for a room.
type Page struct {
	Messages []domain.MessageRecord `json:"messages"`
	HasMore  bool                   `json:"hasMore"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client calls the message-history REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a history client for the given API base URL,
// e.g. "http://localhost:8080/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetToken sets the bearer token attached to requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetHTTPClient overrides the underlying HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// GetMessages retrieves a page of messages for a room, newest first.
// before, when non-nil, restricts the page to messages older than the
// given time (cursor pagination).
func (c *Client) GetMessages(ctx context.Context, roomID string, limit int, before *time.Time) (*Page, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if before != nil {
		q.Set("before", before.UTC().Format(time.RFC3339Nano))
	}
	endpoint := fmt.Sprintf("%s/rooms/%s/messages?%s", c.baseURL, url.PathEscape(roomID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.HistoryRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()
	observability.HistoryRequestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("history api error (status %d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("history api error: status %d", resp.StatusCode)
	}

	var page Page
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("unmarshal history page: %w", err)
	}
	return &page, nil
}
