// Package relay turns UI requests into transcript updates and remote
// questions.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/inbox-assistant/backend/internal/metrics"
	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/query"
)

// Fallback texts stand in for an answer when the remote call does not
// produce one. They are user-facing and must stay byte-for-byte stable.
const (
	FallbackNoAnswer  = "Sorry, something went wrong."
	FallbackTransport = "Sorry, there was an error."
)

const queueSize = 64

// Asker answers a single question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// TranscriptStore is the persistence the relay writes chat turns to.
type TranscriptStore interface {
	ReadAll(ctx context.Context) (chat.Transcript, error)
	Append(ctx context.Context, turn chat.Turn) error
	Clear(ctx context.Context) error
}

// Relay is the single entry point for UI requests. Transcript operations are
// serialized on an internal queue: appends stay fire-and-forget for the
// caller, yet concurrent questions never drop each other's turns and a
// history read observes every append submitted before it.
type Relay struct {
	store  TranscriptStore
	asker  Asker
	logger zerolog.Logger
	queue  *queue
}

// New creates a relay. Call Close to drain pending appends.
func New(store TranscriptStore, asker Asker, logger zerolog.Logger) *Relay {
	return &Relay{
		store:  store,
		asker:  asker,
		logger: logger.With().Str("component", "relay").Logger(),
		queue:  newQueue(queueSize),
	}
}

// Close waits for queued transcript writes and stops the writer.
func (r *Relay) Close() {
	r.queue.Close()
}

// Dispatch handles req asynchronously. The returned channel receives exactly
// one response.
func (r *Relay) Dispatch(ctx context.Context, req chat.Request) <-chan chat.Response {
	out := make(chan chat.Response, 1)
	go func() {
		out <- r.Handle(ctx, req)
	}()
	return out
}

// Handle processes req and returns its response. It never fails: transport
// problems become fallback text and store problems are logged. Cancelling
// ctx does not abort a request that has started.
func (r *Relay) Handle(ctx context.Context, req chat.Request) chat.Response {
	ctx = context.WithoutCancel(ctx)
	log := r.logger.With().
		Str("relay_id", uuid.NewString()).
		Str("action", string(req.Action)).
		Logger()

	switch req.Action {
	case chat.ActionGetHistory:
		metrics.RelayRequests.WithLabelValues(string(req.Action)).Inc()
		return chat.Response{Action: req.Action, History: r.history(ctx, log)}
	case chat.ActionProcessQuestion:
		metrics.RelayRequests.WithLabelValues(string(req.Action)).Inc()
		return chat.Response{Action: req.Action, Answer: r.processQuestion(ctx, log, req.Query)}
	case chat.ActionClearHistory:
		metrics.RelayRequests.WithLabelValues(string(req.Action)).Inc()
		if err := r.clear(ctx, log); err != nil {
			return chat.Response{Action: req.Action, Error: "failed to clear history"}
		}
		return chat.Response{Action: req.Action, History: chat.Transcript{}}
	default:
		metrics.RelayRequests.WithLabelValues("unknown").Inc()
		log.Warn().Msg("unsupported action")
		return chat.Response{Action: req.Action, Error: fmt.Sprintf("unsupported action: %s", req.Action)}
	}
}

func (r *Relay) history(ctx context.Context, log zerolog.Logger) chat.Transcript {
	var (
		transcript chat.Transcript
		err        error
	)
	r.queue.Do(func() {
		transcript, err = r.store.ReadAll(ctx)
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("read").Inc()
		log.Error().Err(err).Msg("failed to read transcript, returning empty history")
		return chat.Transcript{}
	}
	return transcript
}

func (r *Relay) processQuestion(ctx context.Context, log zerolog.Logger, question string) string {
	r.queue.Go(func() { r.appendTurn(ctx, log, chat.UserTurn(question)) })

	start := time.Now()
	answer, err := r.asker.Ask(ctx, question)
	metrics.RemoteQueryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		answer = fallbackFor(err)
		kind := "transport"
		if answer == FallbackNoAnswer {
			kind = "no_answer"
		}
		metrics.RelayFallbacks.WithLabelValues(kind).Inc()
		log.Warn().Err(err).Str("fallback", kind).Msg("question answered with fallback text")
	} else {
		log.Info().Int("answer_len", len(answer)).Dur("latency", time.Since(start)).Msg("question answered")
	}

	r.queue.Go(func() { r.appendTurn(ctx, log, chat.BotTurn(answer)) })
	return answer
}

func (r *Relay) clear(ctx context.Context, log zerolog.Logger) error {
	var err error
	r.queue.Do(func() {
		err = r.store.Clear(ctx)
	})
	if err != nil {
		metrics.StoreErrors.WithLabelValues("clear").Inc()
		log.Error().Err(err).Msg("failed to clear transcript")
		return err
	}
	log.Info().Msg("transcript cleared")
	return nil
}

func (r *Relay) appendTurn(ctx context.Context, log zerolog.Logger, turn chat.Turn) {
	if err := r.store.Append(ctx, turn); err != nil {
		metrics.StoreErrors.WithLabelValues("append").Inc()
		log.Error().Err(err).Str("sender", string(turn.Sender)).Msg("failed to append turn")
	}
}

// fallbackFor maps a failed question to the text shown in its place.
func fallbackFor(err error) string {
	if errors.Is(err, query.ErrNoAnswer) {
		return FallbackNoAnswer
	}
	return FallbackTransport
}
