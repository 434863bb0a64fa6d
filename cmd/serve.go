package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/etude/internal/api"
	"github.com/abhisek/etude/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one practice session behind a local HTTP API",
	Long: `serve starts a session and exposes it over HTTP so another front end
(a browser page, a phone on the music stand) can drive it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8787)")
}

func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := slog.Default()

	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	st, err := openStore(logger)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.LoadRecord(ctx)
	if err != nil {
		logger.Warn("failed to load practice record, using defaults", "error", err)
	}
	m := session.New(cat,
		session.WithLogger(logger),
		session.WithPersister(st),
		session.WithRecord(rec),
		session.WithTickInterval(cfg.TickInterval),
	)
	defer m.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServeAddr
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(m, st, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("etude server starting", "addr", addr, "session_id", m.SessionID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	ui.Info("Session %s at http://%s/api/snapshot", m.SessionID(), addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
