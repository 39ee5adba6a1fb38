// Package client talks to the chat endpoint the way the web widget does:
// form-POST a user message, then consume the event stream as it arrives.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/velkovn/agentchat/internal/stream"
)

type Client struct {
	http    *http.Client
	baseURL string
}

func New(baseURL string) *Client {
	return &Client{
		http: &http.Client{
			// No timeout, replies stream for as long as they stream.
			Timeout: 0,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewSessionID returns an opaque client-generated session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Chat posts one user message and streams the reply events to fn in arrival
// order. It returns nil on a clean end of stream, ctx.Err() if ctx is
// canceled mid-stream, and a descriptive error for transport or server
// failures.
func (c *Client) Chat(ctx context.Context, sessionID, message string, fn stream.Handler) error {
	form := url.Values{
		"session_id":   {sessionID},
		"user_message": {message},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readServerError(resp)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		return fmt.Errorf("unexpected content type %q", ct)
	}

	return stream.Decode(ctx, resp.Body, fn)
}

func readServerError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
