package mailbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmails(t *testing.T) {
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/emails", r.URL.Path)
		queries <- r.URL.RawQuery
		_, _ = w.Write([]byte(`[
			{"id":"1","sender":"a@x","subject":"Hi","snippet":"body","tag":"urgent","tagEmoji":"🔥"},
			{"id":"2","sender":"b@x","subject":"Yo","snippet":"more","tag":"default"}
		]`))
	}))
	defer srv.Close()

	emails, err := NewClient(srv.URL+"/", nil).Emails(context.Background(), 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "limit=5&offset=10", <-queries)

	require.Len(t, emails, 2)
	assert.Equal(t, Email{ID: "1", Sender: "a@x", Subject: "Hi", Snippet: "body", Tag: "urgent", TagEmoji: "🔥"}, emails[0])
	assert.True(t, emails[0].HasTag())
	assert.False(t, emails[1].HasTag())
}

func TestEmailsWrappedAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("limit") {
		case "1":
			_, _ = w.Write([]byte(`{"emails":[{"id":"9"}]}`))
		case "2":
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()
	client := NewClient(srv.URL, nil)
	ctx := context.Background()

	emails, err := client.Emails(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "9", emails[0].ID)

	_, err = client.Emails(ctx, 0, 2)
	assert.Error(t, err)

	_, err = client.Emails(ctx, 0, 3)
	assert.Error(t, err)
}

func TestTodos(t *testing.T) {
	refresh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/todos", r.URL.Path)
		refresh <- r.URL.Query().Get("refresh")
		_, _ = w.Write([]byte(`{"todos":[
			{"task":"Reply to Bob","due":"Friday","subject":"Budget"},
			{"title":"Book flights"},
			"Call mom"
		]}`))
	}))
	defer srv.Close()

	todos, err := NewClient(srv.URL, nil).Todos(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "true", <-refresh)
	assert.Equal(t, []Todo{
		{Text: "Reply to Bob", Due: "Friday", Source: "Budget"},
		{Text: "Book flights"},
		{Text: "Call mom"},
	}, todos)
}
