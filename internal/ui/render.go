// Package ui renders the assistant's chat bubbles and listings to a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/mailbox"
)

// Welcome is shown in place of an empty transcript.
const Welcome = "Hello! I can help answer questions about your emails. What would you like to know?"

// EmailsFailed replaces the email list when it cannot be loaded.
const EmailsFailed = "Failed to load emails."

var (
	userStyle    = color.New(color.FgCyan, color.Bold)
	botStyle     = color.New(color.FgGreen, color.Bold)
	headerStyle  = color.New(color.Bold)
	subjectStyle = color.New(color.FgWhite, color.Bold)
	tagStyle     = color.New(color.FgYellow)
	dimStyle     = color.New(color.FgHiBlack)
	errorStyle   = color.New(color.FgRed)
)

// Renderer writes bubbles and lists to out.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// Bubble renders one chat turn.
func (r *Renderer) Bubble(turn chat.Turn) {
	switch turn.Sender {
	case chat.SenderUser:
		userStyle.Fprint(r.out, "you ")
	default:
		botStyle.Fprint(r.out, "bot ")
	}
	fmt.Fprintf(r.out, "> %s\n", turn.Text)
}

// Transcript renders the whole history, or the welcome bubble when empty.
func (r *Renderer) Transcript(transcript chat.Transcript) {
	if len(transcript) == 0 {
		r.Bubble(chat.BotTurn(Welcome))
		return
	}
	for _, turn := range transcript {
		r.Bubble(turn)
	}
}

// Emails renders the recent-emails list.
func (r *Renderer) Emails(emails []mailbox.Email) {
	headerStyle.Fprintln(r.out, "Recent Emails:")
	for _, e := range emails {
		subjectStyle.Fprint(r.out, e.Subject)
		if e.HasTag() {
			fmt.Fprint(r.out, " ")
			tagStyle.Fprint(r.out, strings.TrimSpace(e.TagEmoji+" "+capitalize(e.Tag)))
		}
		fmt.Fprintln(r.out)
		dimStyle.Fprintf(r.out, "  From: %s\n", e.Sender)
		fmt.Fprintf(r.out, "  %s…\n", e.Snippet)
	}
}

// Todos renders the to-do list.
func (r *Renderer) Todos(todos []mailbox.Todo) {
	headerStyle.Fprintln(r.out, "To-Do:")
	if len(todos) == 0 {
		dimStyle.Fprintln(r.out, "  nothing to do")
		return
	}
	for _, todo := range todos {
		fmt.Fprintf(r.out, "  [ ] %s", todo.Text)
		if todo.Due != "" {
			tagStyle.Fprintf(r.out, " (due %s)", todo.Due)
		}
		if todo.Source != "" {
			dimStyle.Fprintf(r.out, " from %q", todo.Source)
		}
		fmt.Fprintln(r.out)
	}
}

// Error renders a failure line.
func (r *Renderer) Error(message string) {
	errorStyle.Fprintln(r.out, message)
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(first)) + word[size:]
}
