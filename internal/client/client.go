// Package client is the typed HTTP client for the relay API used by the
// terminal UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
)

// Client talks to a running relay server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the relay rooted at baseURL. A nil httpClient
// uses a default one.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// History returns the stored transcript.
func (c *Client) History(ctx context.Context) (chat.Transcript, error) {
	var out struct {
		History chat.Transcript `json:"history"`
	}
	if err := c.send(ctx, chat.Request{Action: chat.ActionGetHistory}, &out); err != nil {
		return nil, err
	}
	if out.History == nil {
		out.History = chat.Transcript{}
	}
	return out.History, nil
}

// Ask relays a question and returns the answer or fallback text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	if err := c.send(ctx, chat.Request{Action: chat.ActionProcessQuestion, Query: question}, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

// Clear empties the stored transcript.
func (c *Client) Clear(ctx context.Context) error {
	return c.send(ctx, chat.Request{Action: chat.ActionClearHistory}, nil)
}

func (c *Client) send(ctx context.Context, req chat.Request, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/relay", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("relay %s: %w", req.Action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read relay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("relay %s: %s", req.Action, failure.Error)
		}
		return fmt.Errorf("relay %s: status %d", req.Action, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode relay response: %w", err)
	}
	return nil
}
