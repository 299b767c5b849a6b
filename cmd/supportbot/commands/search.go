// ABOUTME: CLI command to debug knowledge retrieval
// ABOUTME: Shows which chunks a query selects and their lexical scores
package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/observability"
)

var (
	searchLimit int
	searchAll   bool
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long: `Search the knowledge base.

Scores every chunk against the query with the same keyword ranking the
bot uses to ground its answers. Does not need an OpenAI key.

Examples:
  supportbot search "validator pin"
  supportbot search --limit 5 "trailer check in"
  supportbot search --all "detention"
  supportbot search --format json "detention fees"`,
		Args: cobra.ExactArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", core.DefaultMaxChunks, "Maximum results to return")
	cmd.Flags().BoolVar(&searchAll, "all", false, "Include chunks that score zero")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := loadKnowledge(cfg, observability.Logger())
	if err != nil {
		return err
	}

	query := args[0]
	scored, err := kb.Score(query)
	if err != nil {
		return fmt.Errorf("scoring chunks: %w", err)
	}

	results := scored[:0]
	for _, s := range scored {
		if searchAll || s.Score > 0 {
			results = append(results, s)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if !searchAll && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		if !quiet {
			fmt.Fprintf(out, "No chunks match %q; the bot would fall back to the first %d chunk(s)\n", query, searchLimit)
		}
		return nil
	}

	if outputFormat == "json" {
		return writeJSON(out, results)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tCHUNK\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t-----\t-------\n")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\n", r.Score, r.Index, truncate(oneLine(r.Chunk), 70))
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(out, "\nFound %d result(s)\n", len(results))
	}
	return nil
}
