package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/med1001/privora/internal/client"
	"github.com/med1001/privora/internal/config"
	"github.com/med1001/privora/internal/conn"
	"github.com/med1001/privora/internal/core"
	"github.com/med1001/privora/internal/identity"
	"github.com/med1001/privora/internal/session"
)

const chatHelp = `Commands:
  /to <user>         open the conversation with a user id
  /search <prefix>   find users to talk to
  /contacts          list contacts (* marks the open conversation)
  /history           show the open conversation
  /reconnect         start the session again after a disconnect
  /quit              sign out and exit
Any other line is sent to the open conversation.`

func newChatCmd(e *env) *cobra.Command {
	var email, userID, name string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Sign in and chat interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := &printer{w: cmd.OutOrStdout()}
			cli, err := client.New(e.cfg.Client, e.log,
				client.WithEventHandler(out.event),
				client.WithStatusHandler(out.status),
			)
			if err != nil {
				return err
			}
			defer cli.Logout()

			p := newPrompter()
			if err := signIn(cmd.Context(), cli, p, e.cfg.Client.AuthMode, email, userID, name); err != nil {
				if errors.Is(err, identity.ErrEmailNotVerified) {
					fmt.Fprintln(out.w, err)
					return nil
				}
				return err
			}

			s, _ := cli.Session()
			out.printf("Signed in as %s. Type /help for commands.\n", s.Label())

			return repl(cmd.Context(), cli, p, out)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (token auth)")
	cmd.Flags().StringVar(&userID, "user", "", "user id (identifier auth)")
	cmd.Flags().StringVar(&name, "name", "", "display name (identifier auth)")
	return cmd
}

func signIn(ctx context.Context, cli *client.Client, p *prompter, mode, email, userID, name string) error {
	var err error
	if mode == config.AuthModeIdentifier {
		if userID, err = p.value(userID, "User id: "); err != nil {
			return err
		}
		return cli.Start(ctx, session.Session{UserID: userID, DisplayName: name})
	}

	if email, err = p.value(email, "Email: "); err != nil {
		return err
	}
	password, err := p.password("Password: ")
	if err != nil {
		return err
	}
	_, err = cli.Login(ctx, email, password)
	return err
}

func repl(ctx context.Context, cli *client.Client, p *prompter, out *printer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := p.in.ReadString('\n')
			if line != "" {
				lines <- line
			}
			if err != nil {
				return
			}
		}
	}()

	var found []core.Contact
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := handleLine(ctx, cli, out, &found, strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

// handleLine runs one REPL line and reports whether the user asked to quit.
// found holds the results of the last /search so /to can name users that are
// not contacts yet.
func handleLine(ctx context.Context, cli *client.Client, out *printer, found *[]core.Contact, line string) bool {
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if err := cli.SendToSelected(line); err != nil {
			if errors.Is(err, core.ErrNoRecipient) {
				out.printf("no conversation open, use /to <user>\n")
				return false
			}
			out.printf("send failed: %v\n", err)
		}
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	store := cli.Store()

	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		out.printf("%s\n", chatHelp)
	case "/to":
		if arg == "" || store == nil {
			out.printf("usage: /to <user>\n")
			return false
		}
		if err := cli.Select(arg, displayNameFor(arg, *found, store)); err != nil {
			out.printf("select failed: %v\n", err)
		}
	case "/search":
		results, err := cli.Search(ctx, arg)
		if err != nil {
			out.printf("search failed: %v\n", err)
			return false
		}
		*found = results
		if len(results) == 0 {
			out.printf("no users found\n")
		}
		for _, c := range results {
			out.printf("  %s (%s)\n", c.Label(), c.UserID)
		}
	case "/contacts":
		if store == nil {
			return false
		}
		selected := store.Selected()
		for _, c := range store.Contacts() {
			mark := " "
			if c.UserID == selected {
				mark = "*"
			}
			out.printf("%s %s (%s)\n", mark, c.Label(), c.UserID)
		}
	case "/history":
		if store == nil || store.Selected() == "" {
			out.printf("no conversation open\n")
			return false
		}
		for _, entry := range store.Log(store.Selected()) {
			out.printf("  %s: %s\n", entry.SenderLabel, entry.Body)
		}
	case "/reconnect":
		if err := cli.Reconnect(ctx); err != nil {
			out.printf("reconnect failed: %v\n", err)
		}
	default:
		out.printf("unknown command %s, try /help\n", command)
	}
	return false
}

// displayNameFor prefers the name from the last search, then the known
// contact. An empty result lets the store keep whatever it has.
func displayNameFor(userID string, found []core.Contact, store *core.Store) string {
	for _, c := range found {
		if c.UserID == userID && c.DisplayName != "" {
			return c.DisplayName
		}
	}
	if store != nil {
		if c, ok := store.Contact(userID); ok {
			return c.DisplayName
		}
	}
	return ""
}

// printer serializes output from the REPL and the connection's read loop.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) event(ev core.Event) {
	switch ev.Kind {
	case core.EventEntryAppended:
		if ev.Own {
			return
		}
		p.printf("[%s] %s: %s\n", ev.Counterpart, ev.Entry.SenderLabel, ev.Entry.Body)
	case core.EventSelectionChanged:
		p.printf("-- chatting with %s\n", ev.Counterpart)
	}
}

func (p *printer) status(s conn.Status) {
	switch s {
	case conn.StatusDisconnected, conn.StatusError:
		p.printf("-- connection %s, use /reconnect to resume\n", s)
	case conn.StatusConnected:
		p.printf("-- connected\n")
	}
}

