// ABOUTME: Version command to display build and runtime information
// ABOUTME: Prints text by default or a JSON object with --format json
package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionInfo = VersionInfo{
	Version: "dev",
	Commit:  "none",
	Date:    "unknown",
}

// VersionInfo contains build information
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	Target  string `json:"target"`
}

// SetVersion sets the build information (called from main)
func SetVersion(version, commit, date string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.Date = date
}

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and Go runtime of the support bot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := versionInfo
			info.Go = runtime.Version()
			info.Target = runtime.GOOS + "/" + runtime.GOARCH

			out := cmd.OutOrStdout()
			if outputFormat == "json" {
				return writeJSON(out, info)
			}
			fmt.Fprintf(out, "SupportBot %s\n", info.Version)
			fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Built:  %s\n", info.Date)
			fmt.Fprintf(out, "Go:     %s (%s)\n", info.Go, info.Target)
			return nil
		},
	}
}
