package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abhisek/etude/internal/config"
	"github.com/abhisek/etude/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configRun()
	},
}

func configRun() error {
	if cfgErr != nil {
		return cfgErr
	}
	if cfg.File != "" {
		ui.Info("Config file: %s", cfg.File)
	} else {
		dir, _ := config.Dir()
		ui.Info("No config file (looked in %s)", dir)
	}

	values := map[string]string{
		config.KeyDBPath:       orDefault(cfg.DBPath, "(data dir)"),
		config.KeyCatalogPath:  orDefault(cfg.CatalogPath, "(built-in)"),
		config.KeyDefaultTempo: itoa(cfg.DefaultTempo),
		config.KeyTickInterval: cfg.TickInterval.String(),
		config.KeyServeAddr:    cfg.ServeAddr,
		config.KeyLogJSON:      fmt.Sprint(cfg.LogJSON),
	}

	table := ui.Table([]string{"Key", "Value", "Env"})
	for _, k := range config.Keys() {
		v := values[k.Key]
		if viper.IsSet(k.Key) && viper.InConfig(k.Key) {
			v = output.Cyan(v)
		}
		_ = table.Append([]string{k.Key, v, output.Faint(k.EnvVar)})
	}
	return table.Render()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func itoa(n int) string {
	return fmt.Sprintf("%d", n)
}
