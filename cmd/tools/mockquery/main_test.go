package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/inbox-assistant/backend/internal/service/mailbox"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/query"
)

func TestQueryModes(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(newMux(modeEcho, 0))
	defer srv.Close()
	answer, err := query.NewClient(srv.URL+"/api/query").Ask(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "You asked: hi", answer)

	empty := httptest.NewServer(newMux(modeEmpty, 0))
	defer empty.Close()
	_, err = query.NewClient(empty.URL+"/api/query").Ask(ctx, "hi")
	assert.ErrorIs(t, err, query.ErrNoAnswer)

	failing := httptest.NewServer(newMux(modeFail, 0))
	defer failing.Close()
	_, err = query.NewClient(failing.URL+"/api/query").Ask(ctx, "hi")
	var statusErr *query.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.Code)

	garbage := httptest.NewServer(newMux(modeGarbage, 0))
	defer garbage.Close()
	_, err = query.NewClient(garbage.URL+"/api/query").Ask(ctx, "hi")
	assert.ErrorIs(t, err, query.ErrMalformedResponse)
}

func TestListings(t *testing.T) {
	srv := httptest.NewServer(newMux(modeEcho, 0))
	defer srv.Close()
	c := mailbox.NewClient(srv.URL, nil)

	emails, err := c.Emails(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "Budget review", emails[0].Subject)

	emails, err = c.Emails(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, emails)

	todos, err := c.Todos(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, mailbox.Todo{Text: "Pay invoice #1042", Due: "2026-10-31", Source: "Invoice #1042"}, todos[0])
}
