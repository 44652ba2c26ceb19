package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/inbox-assistant/backend/internal/client"
	"github.com/zhouzirui/inbox-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/inbox-assistant/backend/internal/service/mailbox"
	"github.com/zhouzirui/inbox-assistant/backend/internal/ui"
)

const (
	defaultRelayURL   = "http://127.0.0.1:8080"
	defaultBackendURL = "http://127.0.0.1:5000"
)

type app struct {
	relayURL   string
	backendURL string

	in       io.Reader
	renderer *ui.Renderer
}

func (a *app) relay() *client.Client {
	return client.New(a.relayURL, nil)
}

func (a *app) mailbox() *mailbox.Client {
	return mailbox.NewClient(a.backendURL, nil)
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, renderer: ui.NewRenderer(out)}

	root := &cobra.Command{
		Use:   "assistant",
		Short: "Terminal client for the inbox assistant",
		Long: `assistant talks to the inbox assistant relay and shows the chat
transcript, recent emails and extracted to-dos.

Examples:
  assistant chat                         Start interactive chat
  assistant ask "Any invoices this week?"
  assistant history
  assistant emails --limit 10`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&a.relayURL, "relay", envOr("ASSISTANT_RELAY_URL", defaultRelayURL), "relay server base URL")
	root.PersistentFlags().StringVar(&a.backendURL, "backend", envOr("ASSISTANT_BACKEND_URL", defaultBackendURL), "assistant backend base URL")

	root.AddCommand(
		a.historyCmd(),
		a.askCmd(),
		a.clearCmd(),
		a.emailsCmd(),
		a.todosCmd(),
		a.chatCmd(),
	)
	return root
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the chat transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			transcript, err := a.relay().History(cmd.Context())
			if err != nil {
				return err
			}
			a.renderer.Transcript(transcript)
			return nil
		},
	}
}

func (a *app) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask a question about your emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ask(cmd.Context(), strings.Join(args, " "))
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the chat transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.relay().Clear(cmd.Context()); err != nil {
				return err
			}
			a.renderer.Transcript(nil)
			return nil
		},
	}
}

func (a *app) emailsCmd() *cobra.Command {
	var offset, limit int
	cmd := &cobra.Command{
		Use:   "emails",
		Short: "List recent emails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			emails, err := a.mailbox().Emails(cmd.Context(), offset, limit)
			if err != nil {
				a.renderer.Error(ui.EmailsFailed)
				return nil
			}
			a.renderer.Emails(emails)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "number of emails to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of emails")
	return cmd
}

func (a *app) todosCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "todos",
		Short: "List to-dos extracted from your emails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			todos, err := a.mailbox().Todos(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			a.renderer.Todos(todos)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "rebuild the list on the backend")
	return cmd
}

func (a *app) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			transcript, err := a.relay().History(ctx)
			if err != nil {
				return err
			}
			a.renderer.Transcript(transcript)

			scanner := bufio.NewScanner(a.in)
			for scanner.Scan() {
				if err := a.ask(ctx, scanner.Text()); err != nil {
					a.renderer.Error(err.Error())
				}
			}
			return scanner.Err()
		},
	}
}

// ask ignores blank input, matching the popup's send button.
func (a *app) ask(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	a.renderer.Bubble(chat.UserTurn(question))
	answer, err := a.relay().Ask(ctx, question)
	if err != nil {
		return err
	}
	a.renderer.Bubble(chat.BotTurn(answer))
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
