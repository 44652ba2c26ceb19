// mockquery stands in for the assistant backend so the relay and the
// terminal client can run without it.
package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/inbox-assistant/backend/pkg/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "监听地址")
	mode := flag.String("mode", modeEcho, "问答模式: echo, empty, fail, garbage")
	delay := flag.Duration("delay", 0, "每次回答前的人为延迟")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(*mode, *delay),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().Str("addr", *addr).Str("mode", *mode).Msg("mock backend listening")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

const (
	modeEcho    = "echo"
	modeEmpty   = "empty"
	modeFail    = "fail"
	modeGarbage = "garbage"
)

var fixtureEmails = []map[string]string{
	{"id": "1", "sender": "billing@acme.test", "subject": "Invoice #1042", "snippet": "Your invoice for October is ready", "tag": "finance", "tagEmoji": "💰"},
	{"id": "2", "sender": "alice@example.test", "subject": "Budget review", "snippet": "Can we move the review to Friday", "tag": "urgent", "tagEmoji": "🔥"},
	{"id": "3", "sender": "news@letters.test", "subject": "Weekly digest", "snippet": "Top stories this week", "tag": "default", "tagEmoji": ""},
}

var fixtureTodos = []map[string]string{
	{"task": "Pay invoice #1042", "due": "2026-10-31", "subject": "Invoice #1042"},
	{"task": "Reply to Alice about the budget review", "subject": "Budget review"},
}

func newMux(mode string, delay time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/query", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Query string `json:"query"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				utils.RespondError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if delay > 0 {
				time.Sleep(delay)
			}
			log.Info().Str("query", body.Query).Msg("query received")

			switch mode {
			case modeEmpty:
				utils.RespondJSON(w, http.StatusOK, map[string]string{})
			case modeFail:
				utils.RespondError(w, http.StatusInternalServerError, "backend unavailable")
			case modeGarbage:
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html>oops</html>"))
			default:
				utils.RespondJSON(w, http.StatusOK, map[string]string{"answer": "You asked: " + body.Query})
			}
		})

		r.Get("/emails", func(w http.ResponseWriter, req *http.Request) {
			offset := queryInt(req, "offset", 0)
			limit := queryInt(req, "limit", len(fixtureEmails))
			if offset > len(fixtureEmails) {
				offset = len(fixtureEmails)
			}
			end := min(offset+limit, len(fixtureEmails))
			utils.RespondJSON(w, http.StatusOK, map[string]any{"emails": fixtureEmails[offset:end]})
		})

		r.Get("/todos", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{"todos": fixtureTodos})
		})
	})

	return r
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
