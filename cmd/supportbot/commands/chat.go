// ABOUTME: Interactive chat command that keeps one conversation open
// ABOUTME: Reads questions line by line so follow-ups use conversation history
package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/core"
)

var (
	chatUser     string
	chatChartDir string
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the bot in the terminal",
		Long: `Chat with the bot in the terminal.

Each line is sent as a message in one conversation, so follow-up
questions see earlier turns. Type "exit" or "quit" (or press Ctrl-D)
to leave.

Examples:
  supportbot chat
  supportbot chat --user "Ann Lee" --charts ./charts`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	cmd.Flags().StringVar(&chatUser, "user", defaultUserName(), "Name to chat as")
	cmd.Flags().StringVar(&chatChartDir, "charts", ".", "Directory for chart images")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	collector := core.NewCollector()
	a, err := newApp(cmd.Context(), cfg, collector, nil)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()
	conversationID := "cli-" + uuid.New().String()
	if !quiet {
		fmt.Fprintln(out, core.WelcomeMessage(cfg.ProductName))
		fmt.Fprintf(out, "(conversation %s)\n\n", conversationID)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		replies, err := converse(cmd.Context(), a, collector, conversationID, chatUser, line)
		if err != nil {
			return err
		}
		if err := printReplies(out, replies, chatChartDir); err != nil {
			return err
		}
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
	}
	return scanner.Err()
}
