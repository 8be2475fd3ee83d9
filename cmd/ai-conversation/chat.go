package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mikey/llm-spam-scorer/internal/core"
	"github.com/mikey/llm-spam-scorer/internal/di"
)

const (
	defaultSystemPrompt = "You are a helpful assistant."
	defaultSaveFile     = "conversations.json"
	recentMessages      = 5
)

func newChatCommand(flags *di.CLIFlags) *cobra.Command {
	var conversationID, title, systemPrompt string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(ctx context.Context, a *app) error {
				conv, err := openConversation(a.manager, conversationID, title, systemPrompt, cmd.OutOrStdout())
				if err != nil {
					return err
				}

				session := &chatSession{
					manager: a.manager,
					conv:    conv,
					in:      bufio.NewScanner(cmd.InOrStdin()),
					out:     cmd.OutOrStdout(),
					save: func(ctx context.Context, path string) error {
						return a.manager.Save(ctx, a.storeFactory.CreateJSONStore(path))
					},
				}
				runErr := session.run(ctx)

				// Conversations persist across runs through the configured store
				if err := a.manager.Save(context.WithoutCancel(ctx), a.store); err != nil {
					return err
				}
				return runErr
			})
		},
	}

	cmd.Flags().StringVarP(&conversationID, "conversation-id", "c", "", "ID of an existing conversation")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title for a new conversation")
	cmd.Flags().StringVarP(&systemPrompt, "system-prompt", "s", defaultSystemPrompt, "System prompt for a new conversation")
	return cmd
}

func openConversation(manager *core.ConversationManager, id, title, systemPrompt string, out io.Writer) (*core.Conversation, error) {
	if id != "" {
		conv, ok := manager.GetConversation(id)
		if !ok {
			return nil, &core.NotFoundError{ID: id}
		}
		fmt.Fprintf(out, "Continuing conversation: %s\n", displayTitle(conv))
		return conv, nil
	}

	conv, err := manager.CreateConversation(title, systemPrompt)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Created new conversation: %s (ID: %s)\n", displayTitle(conv), conv.ID())
	return conv, nil
}

// chatSession is the read-eval-print loop of the chat command
type chatSession struct {
	manager *core.ConversationManager
	conv    *core.Conversation
	in      *bufio.Scanner
	out     io.Writer
	save    func(ctx context.Context, path string) error
}

func (s *chatSession) run(ctx context.Context) error {
	caser := cases.Title(language.English)
	if recent := s.conv.Latest(recentMessages); len(recent) > 0 {
		fmt.Fprintln(s.out, "\nRecent messages:")
		for _, msg := range recent {
			fmt.Fprintf(s.out, "%s: %s\n", caser.String(string(msg.Role())), msg.Content())
		}
	}

	fmt.Fprintln(s.out, "\nType 'exit' or 'quit' to end the conversation.")
	fmt.Fprintln(s.out, "Type 'save [file]' to save all conversations to a file.")
	fmt.Fprintln(s.out, "Type 'export json' or 'export text' to export the conversation.")

	for {
		if err := ctx.Err(); err != nil {
			fmt.Fprintln(s.out, "\nExiting chat mode...")
			return nil
		}

		fmt.Fprint(s.out, "\nYou: ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}
		line := strings.TrimSpace(s.in.Text())
		fields := strings.Fields(strings.ToLower(line))

		switch {
		case line == "":
			continue
		case fields[0] == "exit" || fields[0] == "quit":
			return nil
		case fields[0] == "save" && len(fields) <= 2:
			path := defaultSaveFile
			if len(fields) == 2 {
				path = strings.Fields(line)[1]
			}
			if err := s.save(ctx, path); err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(s.out, "Saved conversations to %s\n", path)
		case fields[0] == "export" && len(fields) <= 2:
			format := string(core.ExportText)
			if len(fields) == 2 {
				format = fields[1]
			}
			rendered, err := s.manager.Export(s.conv.ID(), format)
			if err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintln(s.out, strings.TrimRight(rendered, "\n"))
		default:
			fmt.Fprintln(s.out, "Waiting for response...")
			reply, err := s.manager.SendMessage(ctx, s.conv.ID(), line)
			if err != nil {
				fmt.Fprintf(s.out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintf(s.out, "\nAI: %s\n", reply.Content())
		}
	}
}

func displayTitle(conv *core.Conversation) string {
	if conv.Title() == "" {
		return conv.ID()
	}
	return conv.Title()
}

// writeOutput writes to path, or to out when path is empty
func writeOutput(out io.Writer, path, content string) error {
	if path == "" {
		_, err := fmt.Fprintln(out, strings.TrimRight(content, "\n"))
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
