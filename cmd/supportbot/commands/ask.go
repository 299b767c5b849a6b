// ABOUTME: CLI command to ask the bot a single question
// ABOUTME: Runs the full support flow locally and prints the reply
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
)

var (
	askUser     string
	askChartDir string
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the bot one question",
		Long: `Ask the bot one question without Teams.

The question goes through intent classification, language detection,
knowledge retrieval, and escalation exactly as a Teams message would.
Charts are written to --charts when an answer includes one.

Examples:
  supportbot ask "How do I reset a validator PIN?"
  supportbot ask --user "Ann Lee" "¿Cómo registro un remolque?"
  supportbot ask --charts ./charts "Show me a chart of detention fees"
  supportbot ask --format json "What is detention?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askUser, "user", defaultUserName(), "Name to ask as")
	cmd.Flags().StringVar(&askChartDir, "charts", ".", "Directory for chart images")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

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

	conversationID := "cli-" + uuid.New().String()
	replies, err := converse(cmd.Context(), a, collector, conversationID, askUser, question)
	if err != nil {
		return err
	}

	return printReplies(cmd.OutOrStdout(), replies, askChartDir)
}

// converse sends one message through the orchestrator and collects the replies
func converse(ctx context.Context, a *app, collector *core.Collector, conversationID, user, text string) ([]models.OutboundMessage, error) {
	msg := a.orch.DirectMessage(conversationID, user, text)
	if err := a.orch.HandleMessage(ctx, msg); err != nil {
		collector.Drain(conversationID)
		return nil, fmt.Errorf("handling message: %w", err)
	}
	return collector.Drain(conversationID), nil
}

// replyJSON is the --format json shape of a reply
type replyJSON struct {
	Text        string   `json:"text"`
	Mentions    []string `json:"mentions,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

func printReplies(out io.Writer, replies []models.OutboundMessage, chartDir string) error {
	paths, err := saveAttachments(chartDir, replies)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		views := make([]replyJSON, 0, len(replies))
		for _, r := range replies {
			v := replyJSON{Text: r.Text}
			for _, m := range r.Mentions {
				v.Mentions = append(v.Mentions, m.Name)
			}
			views = append(views, v)
		}
		if len(views) > 0 {
			views[len(views)-1].Attachments = paths
		}
		return writeJSON(out, views)
	}

	if len(replies) == 0 {
		if !quiet {
			fmt.Fprintln(out, "(no reply)")
		}
		return nil
	}

	renderer := newReplyRenderer(out, outputFormat)
	for _, r := range replies {
		if err := renderer.Render(r.Text); err != nil {
			return err
		}
	}
	for _, p := range paths {
		fmt.Fprintf(out, "Chart saved to %s\n", p)
	}
	return nil
}

// defaultUserName is the local account name, used when --user is not given
func defaultUserName() string {
	for _, key := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "CLI User"
}
