// ABOUTME: CLI command to export archived transcripts
// ABOUTME: Writes YAML or Markdown to a file or stdout
package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/storage/sqlite"
)

var (
	exportOutput       string
	exportAs           string
	exportConversation string
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export archived transcripts",
		Long: `Export archived transcripts and escalations.

Writes YAML (default) or Markdown. Without --output the export goes to
stdout; with an .md output path Markdown is chosen automatically.

Examples:
  supportbot export > transcripts.yaml
  supportbot export --output report.md
  supportbot export --as markdown --conversation 19:abc@thread.tacv2`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&exportAs, "as", "", "Export format: yaml or markdown")
	cmd.Flags().StringVar(&exportConversation, "conversation", "", "Only export this conversation")

	return cmd
}

// exportKind picks the export format from --as or the output extension
func exportKind(as, output string) (string, error) {
	switch strings.ToLower(as) {
	case "yaml", "yml":
		return "yaml", nil
	case "markdown", "md":
		return "markdown", nil
	case "":
		lower := strings.ToLower(output)
		if strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown") {
			return "markdown", nil
		}
		return "yaml", nil
	}
	return "", fmt.Errorf("--as must be yaml or markdown, got %q", as)
}

func runExport(cmd *cobra.Command, args []string) error {
	kind, err := exportKind(exportAs, exportOutput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return withArchive(func(archive *sqlite.Archive) error {
		if exportOutput != "" {
			if kind == "markdown" {
				err = archive.ExportToMarkdown(ctx, exportOutput, exportConversation)
			} else {
				err = archive.ExportToYAML(ctx, exportOutput, exportConversation)
			}
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", exportOutput)
			}
			return nil
		}

		data, err := archive.Export(ctx, exportConversation)
		if err != nil {
			return err
		}
		if kind == "markdown" {
			return data.WriteMarkdown(cmd.OutOrStdout())
		}
		return data.WriteYAML(cmd.OutOrStdout())
	})
}
