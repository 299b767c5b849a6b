// ABOUTME: Root command and global flags for the support bot CLI
// ABOUTME: Loads .env, sets log verbosity, and registers all subcommands
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/observability"
)

var (
	verbose       bool
	quiet         bool
	outputFormat  string
	knowledgePath string
	dbPath        string
)

const banner = `
 ███████ ██    ██ ██████  ██████   ██████  ██████  ████████
 ██      ██    ██ ██   ██ ██   ██ ██    ██ ██   ██    ██
 ███████ ██    ██ ██████  ██████  ██    ██ ██████     ██
      ██ ██    ██ ██      ██      ██    ██ ██   ██    ██
 ███████  ██████  ██      ██       ██████  ██   ██    ██
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "supportbot",
		Short: "Knowledge-grounded support assistant for Microsoft Teams",
		Long: banner + `
Answers support questions from a Markdown knowledge base, escalates to
human support contacts when it cannot help, and can draw charts for
numeric answers.

Run "supportbot serve" to receive Teams activities, or try it locally
with "supportbot ask" and "supportbot chat".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && quiet {
				return errors.New("--verbose and --quiet are mutually exclusive")
			}
			switch outputFormat {
			case "auto", "text", "json", "markdown":
			default:
				return fmt.Errorf("--format must be auto, text, json or markdown, got %q", outputFormat)
			}
			// A missing .env is normal in production
			_ = godotenv.Load()
			observability.SetLevel(verbose, quiet)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, text, json, markdown")
	cmd.PersistentFlags().StringVar(&knowledgePath, "knowledge", "", "Knowledge base file (overrides KNOWLEDGE_BASE_PATH)")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Transcript database path (overrides TRANSCRIPT_DB; \"off\" disables)")

	cmd.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewChatCmd(),
		NewChunksCmd(),
		NewSearchCmd(),
		NewHistoryCmd(),
		NewEscalationsCmd(),
		NewExportCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the CLI, cancelling the command context on SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
