// ABOUTME: CLI command to browse archived conversations
// ABOUTME: Lists conversations or prints the turns of one from the transcript database
package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/observability"
	"github.com/harper/supportbot/internal/storage/sqlite"
)

var (
	historyLimit  int
	historyForget bool
)

// errArchiveDisabled is returned by archive commands when TRANSCRIPT_DB is off
var errArchiveDisabled = errors.New("transcript archive is disabled (TRANSCRIPT_DB=off)")

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [conversation-id]",
		Short: "Browse archived conversations",
		Long: `Browse archived conversations.

Without an argument, lists archived conversations, most recent first.
With a conversation id, prints its turns. --forget deletes the turns of
that conversation from the archive.

Examples:
  supportbot history
  supportbot history 19:abc@thread.tacv2 --limit 10
  supportbot history --format json 19:abc@thread.tacv2
  supportbot history --forget 19:abc@thread.tacv2`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}

	cmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum turns to show")
	cmd.Flags().BoolVar(&historyForget, "forget", false, "Delete the conversation's archived turns")

	return cmd
}

// withArchive opens the configured archive for a read-only command
func withArchive(fn func(*sqlite.Archive) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	archive, err := openArchive(cfg, observability.Logger())
	if err != nil {
		return err
	}
	if archive == nil {
		return errArchiveDisabled
	}
	defer func() { _ = archive.Close() }()
	return fn(archive)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(historyLimit, "limit"); err != nil {
		return err
	}
	if historyForget && len(args) == 0 {
		return errors.New("--forget needs a conversation id")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withArchive(func(archive *sqlite.Archive) error {
		if len(args) == 0 {
			convs, err := archive.Conversations(ctx)
			if err != nil {
				return err
			}
			if outputFormat == "json" {
				return writeJSON(out, convs)
			}
			if len(convs) == 0 {
				if !quiet {
					fmt.Fprintln(out, "No archived conversations")
				}
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "CONVERSATION\tTURNS\tLAST ACTIVE\n")
			fmt.Fprintf(w, "------------\t-----\t-----------\n")
			for _, c := range convs {
				fmt.Fprintf(w, "%s\t%d\t%s\n", truncate(c.ConversationID, 40), c.Turns, formatTime(c.LastAt))
			}
			return w.Flush()
		}

		conversationID := args[0]
		if historyForget {
			n, err := archive.Forget(ctx, conversationID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d turn(s) from %s\n", n, conversationID)
			return nil
		}

		turns, err := archive.History(ctx, conversationID, historyLimit)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(out, turns)
		}
		if len(turns) == 0 {
			if !quiet {
				fmt.Fprintf(out, "No archived turns for %s\n", conversationID)
			}
			return nil
		}
		for _, t := range turns {
			who := t.AuthorName
			if who == "" {
				who = string(t.Role)
			}
			fmt.Fprintf(out, "[%s] %s: %s\n\n", t.Timestamp.Local().Format("2006-01-02 15:04"), who, plainMentions(t.Content))
		}
		return nil
	})
}
