package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	resetAll    bool
	resetDryRun bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset hints and tempo to their defaults",
	Long: `reset clears the practice record so the next session starts with a full
hint budget and the default tempo. --all also deletes the check-in log and
session history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return resetRun()
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Also delete check-ins and session events")
	resetCmd.Flags().BoolVarP(&resetDryRun, "dry-run", "n", false, "Show what would be reset without changing anything")
}

func resetRun() error {
	ui.DryRun = resetDryRun

	st, err := openStore(slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	what := "practice record"
	if resetAll {
		what = "practice record, check-ins and session events"
	}
	if resetDryRun {
		ui.DryRunMsg("Would reset %s", what)
		return nil
	}

	if err := st.Reset(context.Background(), resetAll); err != nil {
		return err
	}
	ui.Success("Reset %s", what)
	return nil
}
