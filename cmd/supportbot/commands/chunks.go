// ABOUTME: CLI command to inspect how the knowledge base is chunked
// ABOUTME: Prints each chunk with its size and estimated token count
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/observability"
)

var (
	chunksFull bool
)

// chunkInfo is the --format json shape of a chunk
type chunkInfo struct {
	Index  int    `json:"index"`
	Runes  int    `json:"runes"`
	Tokens int    `json:"tokens"`
	Text   string `json:"text"`
}

// NewChunksCmd creates the chunks command
func NewChunksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Show how the knowledge base is chunked",
		Long: `Show how the knowledge base is chunked.

Splits the knowledge file on level-1 headings and packs paragraphs up to
KNOWLEDGE_CHUNK_SIZE characters, exactly as the bot does at startup.
Does not need an OpenAI key.

Examples:
  supportbot chunks
  supportbot chunks --knowledge ./docs/support.md --full
  supportbot chunks --format json`,
		Args: cobra.NoArgs,
		RunE: runChunks,
	}

	cmd.Flags().BoolVar(&chunksFull, "full", false, "Print complete chunk text")

	return cmd
}

func runChunks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kb, err := loadKnowledge(cfg, observability.Logger())
	if err != nil {
		return err
	}

	chunks := kb.Chunks()
	infos := make([]chunkInfo, len(chunks))
	total := 0
	for i, c := range chunks {
		tokens := core.EstimateTokens(c)
		total += tokens
		infos[i] = chunkInfo{Index: i, Runes: len([]rune(c)), Tokens: tokens, Text: c}
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return writeJSON(out, infos)
	}

	if chunksFull {
		for _, info := range infos {
			fmt.Fprintf(out, "--- chunk %d (%d chars, ~%d tokens) ---\n%s\n\n", info.Index, info.Runes, info.Tokens, info.Text)
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "#\tCHARS\tTOKENS\tPREVIEW\n")
		fmt.Fprintf(w, "-\t-----\t------\t-------\n")
		for _, info := range infos {
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", info.Index, info.Runes, info.Tokens, truncate(oneLine(info.Text), 60))
		}
		_ = w.Flush()
	}

	if !quiet {
		fmt.Fprintf(out, "\n%d chunk(s) from %s, ~%d tokens total\n", len(infos), kb.Source(), total)
	}
	return nil
}
