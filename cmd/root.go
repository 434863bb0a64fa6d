package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/etude/internal/catalog"
	"github.com/abhisek/etude/internal/config"
	"github.com/abhisek/etude/internal/output"
	"github.com/abhisek/etude/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui     *output.UI
	cfg    config.Config
	cfgErr error

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "etude",
	Short: "Guided piano practice sessions",
	Long: `etude conducts a structured piano practice session in the terminal.
You play on your real piano; etude keeps time, runs the metronome,
fades the keyboard diagram and records how each phase felt.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default ~/.config/etude/config.yaml)")
	pf.String("db", "", "Path to SQLite database file (overrides ETUDE_DB_PATH)")
	pf.String("catalog", "", "Session catalog file (default: built-in 45-minute session)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output and debug logging")
	pf.Bool("log-json", false, "Write logs as JSON")

	_ = viper.BindPFlag(config.KeyDBPath, pf.Lookup("db"))
	_ = viper.BindPFlag(config.KeyCatalogPath, pf.Lookup("catalog"))
	_ = viper.BindPFlag(config.KeyVerbose, pf.Lookup("verbose"))
	_ = viper.BindPFlag(config.KeyLogJSON, pf.Lookup("log-json"))

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	file, _ := rootCmd.PersistentFlags().GetString("config")
	cfg, cfgErr = config.Load(viper.GetViper(), file)
	if cfgErr != nil {
		cfg = config.FromViper(viper.GetViper())
	}
}

func initDeps() {
	ui = output.New()
	ui.Verbose = cfg.Verbose
	slog.SetDefault(newLogger(os.Stderr))
}

// newLogger builds the process logger: text or JSON on w, debug level when
// verbose.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// resolveDBPath returns the database path from --db, the config file or
// ETUDE_DB_PATH, then the default XDG path.
func resolveDBPath() (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// openStore opens the practice database.
func openStore(logger *slog.Logger) (*store.Store, error) {
	if cfgErr != nil {
		return nil, cfgErr
	}
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	ui.VerboseLog("Database: %s", dbPath)
	st, err := store.Open(dbPath, store.WithLogger(logger), store.WithDefaultTempo(cfg.DefaultTempo))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// loadCatalog returns the configured catalog, or the built-in one.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	ui.VerboseLog("Catalog: %s", cfg.CatalogPath)
	return catalog.Load(cfg.CatalogPath)
}
