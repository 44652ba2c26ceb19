package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/inbox-assistant/backend/pkg/utils"
)

// Relayer handles one UI request.
type Relayer interface {
	Handle(ctx context.Context, req chat.Request) chat.Response
}

// Handler 聊天中继的HTTP处理器
type Handler struct {
	relay Relayer
}

// New 创建中继处理器
func New(relay Relayer) *Handler {
	return &Handler{relay: relay}
}

// RegisterRoutes 注册中继相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/relay", h.handleRelay)
	r.Get("/history", h.handleGetHistory)
	r.Delete("/history", h.handleClearHistory)
	r.Post("/question", h.handleQuestion)
}

// handleRelay accepts the raw {action, query} message.
func (h *Handler) handleRelay(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondDecodeError(w, err)
		return
	}
	if strings.TrimSpace(string(req.Action)) == "" {
		utils.RespondError(w, http.StatusBadRequest, "action is required")
		return
	}

	h.respond(w, h.relay.Handle(r.Context(), req))
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.relay.Handle(r.Context(), chat.Request{Action: chat.ActionGetHistory}))
}

func (h *Handler) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.relay.Handle(r.Context(), chat.Request{Action: chat.ActionClearHistory}))
}

func (h *Handler) handleQuestion(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query *string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondDecodeError(w, err)
		return
	}
	if payload.Query == nil {
		utils.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}

	h.respond(w, h.relay.Handle(r.Context(), chat.Request{
		Action: chat.ActionProcessQuestion,
		Query:  *payload.Query,
	}))
}

func (h *Handler) respond(w http.ResponseWriter, resp chat.Response) {
	status := http.StatusOK
	switch {
	case resp.Error == "":
	case strings.HasPrefix(resp.Error, "unsupported action"):
		status = http.StatusBadRequest
	default:
		status = http.StatusInternalServerError
	}
	utils.RespondJSON(w, status, resp)
}

func respondDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	utils.RespondError(w, http.StatusBadRequest, "invalid request body")
}
