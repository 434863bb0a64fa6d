package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/etude/internal/app"
	"github.com/abhisek/etude/internal/session"
	"github.com/abhisek/etude/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the practice TUI (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// runPlay opens the store, builds dependencies, and launches the TUI.
func runPlay(cmd *cobra.Command) error {
	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := newLogger(logFile)

	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	st, err := openStore(logger)
	if err != nil {
		return err
	}
	defer st.Close()

	logger.Info("starting tui", "phases", cat.Len(), "blocks", cat.TotalBlocks())
	return app.Run(app.Options{
		Catalog:        cat,
		Store:          st,
		SessionOptions: []session.Option{session.WithTickInterval(cfg.TickInterval)},
		Logger:         logger,
	})
}

// openLogFile opens the TUI log under the data directory. The alt screen
// owns stderr while the TUI runs.
func openLogFile() (*os.File, error) {
	dir, err := store.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	path := filepath.Join(dir, "etude.log")
	if err := store.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.Debug("tui logging to file", "path", path)
	return f, nil
}
