// Package query talks to the remote email-assistant endpoint that answers
// questions.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoAnswer means the endpoint replied with well-formed JSON that has
	// no usable answer field.
	ErrNoAnswer = errors.New("response has no answer")
	// ErrMalformedResponse means the body was not JSON at all.
	ErrMalformedResponse = errors.New("response is not valid json")
)

// StatusError reports a non-2xx reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("query endpoint returned status %d", e.Code)
	}
	return fmt.Sprintf("query endpoint returned status %d: %s", e.Code, e.Body)
}

// maxErrorBody caps how much of a failed response is kept for logging.
const maxErrorBody = 512

// Client issues exactly one POST per question. It sets no timeout of its
// own; the transport's defaults apply.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client posting to endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL questions are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ask posts {query} and returns the answer text.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	payload, err := json.Marshal(struct {
		Query string `json:"query"`
	}{question})
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read query response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return "", &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	return parseAnswer(body)
}

// parseAnswer extracts a non-empty string "answer" from body. A null root
// cannot carry fields at all and counts as malformed.
func parseAnswer(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", ErrMalformedResponse
	}
	if gjson.ParseBytes(body).Type == gjson.Null {
		return "", ErrMalformedResponse
	}

	answer := gjson.GetBytes(body, "answer")
	if answer.Type != gjson.String || answer.Str == "" {
		return "", ErrNoAnswer
	}
	return answer.Str, nil
}
