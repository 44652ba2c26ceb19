package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/inbox-assistant/backend/internal/handler"
	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/inbox-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/query"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/relay"
	"github.com/zhouzirui/inbox-assistant/backend/internal/storage"
)

type scriptedAsker map[string]error

func (s scriptedAsker) Ask(_ context.Context, q string) (string, error) {
	if err, ok := s[q]; ok {
		return "", err
	}
	return "re: " + q, nil
}

func newServer(t *testing.T) *Client {
	t.Helper()
	kv := storage.NewMemoryStore()
	asker := scriptedAsker{
		"broken": errors.New("dial tcp: connection refused"),
		"empty":  query.ErrNoAnswer,
	}
	r := relay.New(chatservice.NewService(kv), asker, zerolog.Nop())
	t.Cleanup(r.Close)

	srv := httptest.NewServer(handler.NewRouter(zerolog.Nop(), r, kv, []string{"*"}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", nil)
}

func TestClientRoundTrip(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	hist, err := c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, hist)

	answer, err := c.Ask(ctx, "when is the meeting")
	require.NoError(t, err)
	assert.Equal(t, "re: when is the meeting", answer)

	answer, err = c.Ask(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, relay.FallbackTransport, answer)

	answer, err = c.Ask(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, relay.FallbackNoAnswer, answer)

	hist, err = c.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, chat.Transcript{
		chat.UserTurn("when is the meeting"), chat.BotTurn("re: when is the meeting"),
		chat.UserTurn("broken"), chat.BotTurn(relay.FallbackTransport),
		chat.UserTurn("empty"), chat.BotTurn(relay.FallbackNoAnswer),
	}, hist)

	require.NoError(t, c.Clear(ctx))
	hist, err = c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestClientSurfacesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to clear history"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, nil).Clear(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear history")
}
