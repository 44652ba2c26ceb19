// Package channel exposes the relay as a websocket message port: the UI sends
// {id, action, query} frames and receives one reply frame per request.
package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/inbox-assistant/backend/internal/metrics"
	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
	maxFrameSize = 64 << 10
)

// Relayer handles one UI request.
type Relayer interface {
	Handle(ctx context.Context, req chat.Request) chat.Response
}

// WebSocketHandler serves the message port.
type WebSocketHandler struct {
	relay    Relayer
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the handler. checkOrigin may be nil to accept
// any origin.
func NewWebSocketHandler(relay Relayer, logger zerolog.Logger, checkOrigin func(r *http.Request) bool) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WebSocketHandler{
		relay:  relay,
		logger: logger.With().Str("component", "websocket").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the port under r.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	ID     string      `json:"id"`
	Action chat.Action `json:"action"`
	Query  string      `json:"query"`
}

type outgoingMessage struct {
	ID       string      `json:"id"`
	Action   chat.Action `json:"action,omitempty"`
	Response json.RawMessage
}

// MarshalJSON merges the relay response fields into the envelope, so a frame
// reads {"id":..., "action":..., "answer":...}.
func (m outgoingMessage) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(m.Response) > 0 {
		if err := json.Unmarshal(m.Response, &fields); err != nil {
			return nil, err
		}
	}

	id, err := json.Marshal(m.ID)
	if err != nil {
		return nil, err
	}
	fields["id"] = id

	if m.Action != "" {
		action, err := json.Marshal(m.Action)
		if err != nil {
			return nil, err
		}
		fields["action"] = action
	}
	return json.Marshal(fields)
}

// conn serializes writes; gorilla connections allow one concurrent writer.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	defer ws.Close()

	metrics.WebSocketConnections.Inc()
	defer metrics.WebSocketConnections.Dec()

	connID := uuid.NewString()
	log := h.logger.With().Str("conn_id", connID).Logger()
	log.Info().Str("remote_addr", r.RemoteAddr).Msg("message port opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{ws: ws}
	var inflight sync.WaitGroup
	defer inflight.Wait()

	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, c)

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("read error")
			}
			log.Info().Msg("message port closed")
			return
		}
		ws.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		if msg.Action == "" {
			h.send(log, c, msg.ID, "", chat.Response{Error: "action is required"})
			continue
		}

		// Each frame is answered independently, like separate sendMessage calls.
		inflight.Add(1)
		go func(msg inboundMessage) {
			defer inflight.Done()
			resp := h.relay.Handle(ctx, chat.Request{Action: msg.Action, Query: msg.Query})
			h.send(log, c, msg.ID, msg.Action, resp)
		}(msg)
	}
}

func (h *WebSocketHandler) send(log zerolog.Logger, c *conn, id string, action chat.Action, resp chat.Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		log.Error().Err(err).Msg("encode response failed")
		return
	}
	if err := c.writeJSON(outgoingMessage{ID: id, Action: action, Response: body}); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("write response failed")
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
