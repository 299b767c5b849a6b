// ABOUTME: Serve command runs the Bot Framework messaging endpoint for Teams
// ABOUTME: Wires the Teams connector, attachment fetcher, and orchestrator together
package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/supportbot/internal/attachments"
	"github.com/harper/supportbot/internal/observability"
	"github.com/harper/supportbot/internal/teams"
)

var (
	servePort int
	serveHost string
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Teams messaging endpoint",
		Long: `Run the Teams messaging endpoint.

Listens for Bot Framework activities on POST /api/messages and reports
health and knowledge statistics on GET /healthz. Replies are posted back
through the Bot Framework connector using MICROSOFT_APP_ID and
MICROSOFT_APP_PASSWORD; leave both empty for the local emulator.

Examples:
  supportbot serve
  supportbot serve --port 8080
  supportbot serve --knowledge ./docs/support.md --db off`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&serveHost, "host", "", "Interface to bind (default all)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := observability.Logger()
	httpClient := &http.Client{Timeout: 30 * time.Second}

	creds := teams.NewClientCredentials(cfg.AppID, cfg.AppPassword, cfg.AppTenantID)
	creds.Client = httpClient
	if cfg.AppID == "" {
		logger.Warn("MICROSOFT_APP_ID not set, replies are sent without authentication")
	}

	trusted := cfg.TrustedHosts()
	connector := teams.NewConnector(httpClient, creds, logger).WithTrustedHosts(trusted)
	fetcher := attachments.NewFetcher(httpClient, creds, logger).WithTrustedHosts(trusted)

	a, err := newApp(cmd.Context(), cfg, connector, fetcher)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server := teams.NewServer(a.orch, connector, logger)
	addr := fmt.Sprintf("%s:%d", serveHost, cfg.Port)
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s (POST /api/messages, GET /healthz)\n", addr)
	}
	return server.ListenAndServe(cmd.Context(), addr)
}
