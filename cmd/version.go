package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set from main via Execute.
var (
	buildVersion = "(devel)"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "etude %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}
