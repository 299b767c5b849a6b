// ABOUTME: CLI command to review hand-offs to human support
// ABOUTME: Lists archived escalations with optional reason filter and totals
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/storage/sqlite"
)

var (
	escalationsReason string
	escalationsLimit  int
)

// NewEscalationsCmd creates the escalations command
func NewEscalationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escalations",
		Short: "List hand-offs to human support",
		Long: `List hand-offs to human support, newest first.

Reasons are no_answer (the knowledge base had nothing), need_support
(the user asked for a person), and error (handling failed).

Examples:
  supportbot escalations
  supportbot escalations --reason no_answer --limit 50
  supportbot escalations --format json`,
		Args: cobra.NoArgs,
		RunE: runEscalations,
	}

	cmd.Flags().StringVar(&escalationsReason, "reason", "", "Only show this reason")
	cmd.Flags().IntVar(&escalationsLimit, "limit", 20, "Maximum escalations to show")

	return cmd
}

func runEscalations(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(escalationsLimit, "limit"); err != nil {
		return err
	}
	switch escalationsReason {
	case "", core.ReasonNoAnswer, core.ReasonNeedSupport, core.ReasonError:
	default:
		return fmt.Errorf("--reason must be %s, %s or %s, got %q",
			core.ReasonNoAnswer, core.ReasonNeedSupport, core.ReasonError, escalationsReason)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withArchive(func(archive *sqlite.Archive) error {
		records, err := archive.Escalations(ctx, escalationsReason, escalationsLimit)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return writeJSON(out, records)
		}
		if len(records) == 0 {
			if !quiet {
				fmt.Fprintln(out, "No escalations")
			}
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "WHEN\tREASON\tUSER\tQUERY\n")
		fmt.Fprintf(w, "----\t------\t----\t-----\n")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", formatTime(r.CreatedAt), r.Reason, truncate(r.UserName, 20), truncate(oneLine(r.Query), 60))
		}
		return w.Flush()
	})
}
