// Package mailbox reads the email and to-do listings the assistant backend
// exposes. The listings are display-only; their shape is read leniently.
package mailbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Email is one row of the recent-emails list.
type Email struct {
	ID       string
	Sender   string
	Subject  string
	Snippet  string
	Tag      string
	TagEmoji string
}

// HasTag reports whether the email carries a tag worth showing.
func (e Email) HasTag() bool {
	return e.Tag != "" && e.Tag != "default"
}

// Todo is one extracted to-do item.
type Todo struct {
	Text   string
	Due    string
	Source string
}

// Client reads listings from the backend rooted at baseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a listing client. A nil httpClient uses a default one.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Emails fetches GET /api/emails. Zero offset/limit are omitted.
func (c *Client) Emails(ctx context.Context, offset, limit int) ([]Email, error) {
	params := url.Values{}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.get(ctx, "/api/emails", params)
	if err != nil {
		return nil, err
	}

	items := listItems(body, "emails")
	emails := make([]Email, 0, len(items))
	for _, item := range items {
		emails = append(emails, Email{
			ID:       item.Get("id").String(),
			Sender:   item.Get("sender").String(),
			Subject:  item.Get("subject").String(),
			Snippet:  item.Get("snippet").String(),
			Tag:      item.Get("tag").String(),
			TagEmoji: item.Get("tagEmoji").String(),
		})
	}
	return emails, nil
}

// Todos fetches GET /api/todos, optionally asking the backend to rebuild them.
func (c *Client) Todos(ctx context.Context, refresh bool) ([]Todo, error) {
	params := url.Values{}
	if refresh {
		params.Set("refresh", "true")
	}

	body, err := c.get(ctx, "/api/todos", params)
	if err != nil {
		return nil, err
	}

	items := listItems(body, "todos")
	todos := make([]Todo, 0, len(items))
	for _, item := range items {
		if item.Type == gjson.String {
			todos = append(todos, Todo{Text: item.Str})
			continue
		}
		todos = append(todos, Todo{
			Text:   firstString(item, "task", "text", "title"),
			Due:    firstString(item, "due", "deadline"),
			Source: firstString(item, "subject", "source"),
		})
	}
	return todos, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("GET %s: response is not valid json", path)
	}
	return body, nil
}

// listItems accepts either a bare array or an object wrapping one under key.
func listItems(body []byte, key string) []gjson.Result {
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return root.Array()
	}
	if wrapped := root.Get(key); wrapped.IsArray() {
		return wrapped.Array()
	}
	return nil
}

func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := item.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
