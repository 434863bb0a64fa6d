package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/etude/internal/output"
	"github.com/abhisek/etude/internal/store"
)

var (
	historyLimit   int
	historySession string
	historyEvents  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded check-ins",
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of most recent rows to show (0 = all)")
	historyCmd.Flags().StringVar(&historySession, "session", "", "Only show one session")
	historyCmd.Flags().BoolVar(&historyEvents, "events", false, "Show session start/complete/abandon events instead")
}

func historyRun() error {
	st, err := openStore(slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	opts := store.QueryOpts{Limit: historyLimit, SessionID: historySession}
	if historyEvents {
		return printEvents(ctx, st, opts)
	}

	checkIns, err := st.CheckIns(ctx, opts)
	if err != nil {
		return err
	}
	if len(checkIns) == 0 {
		ui.Info("No check-ins recorded yet")
		return nil
	}

	table := ui.Table([]string{"Date", "Time", "Phase", "Check-in", "Session"})
	for _, c := range checkIns {
		_ = table.Append([]string{
			c.Date,
			c.CreatedAt.Local().Format("15:04"),
			output.Cyan(c.Phase),
			output.CheckInColor(c.Value),
			output.Faint(shortID(c.SessionID)),
		})
	}
	return table.Render()
}

func printEvents(ctx context.Context, st *store.Store, opts store.QueryOpts) error {
	events, err := st.SessionEvents(ctx, opts)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		ui.Info("No sessions recorded yet")
		return nil
	}

	table := ui.Table([]string{"When", "Session", "Event", "Phase", "Block"})
	for _, e := range events {
		action := e.Action
		switch action {
		case store.ActionComplete:
			action = output.Green(action)
		case store.ActionAbandon:
			action = output.Yellow(action)
		}
		_ = table.Append([]string{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			shortID(e.SessionID),
			action,
			e.Phase,
			itoa(e.Block + 1),
		})
	}
	return table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
