// Package config resolves etude settings from flags, environment, the
// config file and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ETUDE_DB_PATH.
const EnvPrefix = "ETUDE"

// Keys understood by the config file.
const (
	KeyDBPath       = "db_path"
	KeyCatalogPath  = "catalog_path"
	KeyDefaultTempo = "tempo.default"
	KeyTickInterval = "timer.tick_interval"
	KeyServeAddr    = "serve.addr"
	KeyLogJSON      = "log.json"
	KeyVerbose      = "verbose"
)

// MaxTickInterval bounds the timer tick so the countdown stays smooth.
const MaxTickInterval = 100 * time.Millisecond

// Config is the resolved configuration.
type Config struct {
	DBPath       string
	CatalogPath  string
	DefaultTempo int
	TickInterval time.Duration
	ServeAddr    string
	LogJSON      bool
	Verbose      bool

	// File is the config file that was read, or "" when none was found.
	File string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		DefaultTempo: 60,
		TickInterval: 80 * time.Millisecond,
		ServeAddr:    "127.0.0.1:8787",
	}
}

// Key describes a config key for display purposes.
type Key struct {
	Key    string
	EnvVar string
}

// Keys lists every key with its environment variable.
func Keys() []Key {
	names := []string{KeyDBPath, KeyCatalogPath, KeyDefaultTempo, KeyTickInterval, KeyServeAddr, KeyLogJSON}
	keys := make([]Key, len(names))
	for i, k := range names {
		keys[i] = Key{Key: k, EnvVar: EnvVar(k)}
	}
	return keys
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Dir returns the directory holding config.yaml.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "etude"), nil
}

// Setup prepares v with defaults, env binding and the config file location.
// An empty file means the default location.
func Setup(v *viper.Viper, file string) {
	d := Defaults()
	v.SetDefault(KeyDBPath, d.DBPath)
	v.SetDefault(KeyCatalogPath, d.CatalogPath)
	v.SetDefault(KeyDefaultTempo, d.DefaultTempo)
	v.SetDefault(KeyTickInterval, d.TickInterval)
	v.SetDefault(KeyServeAddr, d.ServeAddr)
	v.SetDefault(KeyLogJSON, d.LogJSON)
	v.SetDefault(KeyVerbose, false)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read loads the config file into v. A missing file at the default location
// is not an error; an explicitly named file must exist.
func Read(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config: %w", err)
}

// Load sets up v, reads the config file and decodes the result.
func Load(v *viper.Viper, file string) (Config, error) {
	Setup(v, file)
	if err := Read(v); err != nil {
		return Config{}, err
	}
	return FromViper(v), nil
}

// FromViper decodes the current values of v. Out-of-range values fall back to
// the defaults; the tick interval is clamped to MaxTickInterval.
func FromViper(v *viper.Viper) Config {
	d := Defaults()
	c := Config{
		DBPath:       v.GetString(KeyDBPath),
		CatalogPath:  v.GetString(KeyCatalogPath),
		DefaultTempo: v.GetInt(KeyDefaultTempo),
		TickInterval: v.GetDuration(KeyTickInterval),
		ServeAddr:    v.GetString(KeyServeAddr),
		LogJSON:      v.GetBool(KeyLogJSON),
		Verbose:      v.GetBool(KeyVerbose),
		File:         v.ConfigFileUsed(),
	}
	if c.DefaultTempo <= 0 {
		c.DefaultTempo = d.DefaultTempo
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	c.TickInterval = min(c.TickInterval, MaxTickInterval)
	if c.ServeAddr == "" {
		c.ServeAddr = d.ServeAddr
	}
	return c
}
