package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Components map[string]string `mapstructure:"components"`
}

// PreflightConfig configures the on-disk library search.
type PreflightConfig struct {
	// Paths are extra directories to search in addition to the platform
	// defaults and loader environment.
	Paths []string `mapstructure:"paths"`
}

// Config represents the application configuration.
type Config struct {
	// Output is the default output format (table, plain, json, yaml, tsv).
	Output string `mapstructure:"output"`

	// ProbeSymbols enables the symbol-presence classification fallback.
	ProbeSymbols bool `mapstructure:"probe_symbols"`

	// Exclude contains glob patterns for library identities to ignore.
	Exclude []string `mapstructure:"exclude"`

	Preflight PreflightConfig `mapstructure:"preflight"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/poolctl/config.yaml
//   - $HOME/.config/poolctl/config.yaml
//
// Environment variables are prefixed with POOLCTL_ (e.g. POOLCTL_OUTPUT).
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration like Load but reads the given file instead of
// searching the default locations. An empty path falls back to Load behavior.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "poolctl"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "poolctl"))
		}
	}

	v.SetEnvPrefix("POOLCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults installs the default values on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("probe_symbols", DefaultProbeSymbols)
	v.SetDefault("exclude", []string{})
	v.SetDefault("preflight.paths", []string{})
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// FilePath returns the expected config file path, preferring XDG locations.
// The file may not exist yet; the watcher uses this to know what to watch.
func FilePath() string {
	path, err := xdg.ConfigFile(filepath.Join("poolctl", "config.yaml"))
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return ""
		}
		return filepath.Join(home, ".config", "poolctl", "config.yaml")
	}
	return path
}
