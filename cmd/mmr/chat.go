package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stake-plus/mmr-scorecard/src/chat"
	"github.com/stake-plus/mmr-scorecard/src/config"
	"github.com/stake-plus/mmr-scorecard/src/webclient"
)

const chatHelp = "Commands: /continue (extend the last answer), /clear, /history, /quit"

func chatCmd(opts *options) *cobra.Command {
	var (
		reset    bool
		endpoint string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the MMR query endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadChatConfig()
			if endpoint != "" {
				cfg.Endpoint = endpoint
			}
			client := chat.NewClient(chat.ClientConfig{
				Endpoint:   cfg.Endpoint,
				HTTPClient: webclient.NewDefault(cfg.Timeout),
				Logger:     opts.logger().Named("chat"),
			})
			store := chat.NewFileStore(cfg.StoreDir)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if reset {
				if err := store.Delete(ctx, chat.StorageKey); err != nil {
					return err
				}
			}
			s, err := chat.NewSession(ctx, client, store, chat.StorageKey)
			if err != nil {
				return err
			}
			return chatLoop(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "forget the saved conversation first")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "query endpoint URL (default $MMR_ENDPOINT)")
	return cmd
}

func chatLoop(ctx context.Context, s *chat.Session, in io.Reader, out io.Writer) error {
	if msgs := s.Messages(); len(msgs) > 0 {
		fmt.Fprintf(out, "Restored %d messages.\n", len(msgs))
	}
	fmt.Fprintln(out, chatHelp)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, chatHelp)
		case "/clear":
			if err := s.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation cleared.")
		case "/history":
			for _, m := range s.Messages() {
				printMessage(out, m)
			}
		case "/continue":
			last, ok := lastAssistant(s.Messages())
			if !ok {
				fmt.Fprintln(out, "Nothing to continue.")
				continue
			}
			m, err := s.Continue(ctx, last.ID)
			if err != nil {
				fmt.Fprintf(out, "[error] %v\n", err)
				continue
			}
			printMessage(out, m)
		default:
			m, err := s.Send(ctx, line)
			if err != nil {
				return err
			}
			printMessage(out, m)
		}
	}
}

func lastAssistant(msgs []chat.Message) (chat.Message, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == chat.TypeAssistant {
			return msgs[i], true
		}
	}
	return chat.Message{}, false
}

func printMessage(out io.Writer, m chat.Message) {
	switch m.Type {
	case chat.TypeUser:
		fmt.Fprintf(out, "you: %s\n", m.Content)
	case chat.TypeError:
		fmt.Fprintf(out, "[error] %s\n", m.Content)
	default:
		fmt.Fprintf(out, "%s: %s\n", m.Model, m.Content)
	}
}
