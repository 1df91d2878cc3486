// Package config provides configuration management for poolctl.
package config

// Default configuration values for poolctl.
const (
	// DefaultOutput is the default output format for CLI commands.
	DefaultOutput = "table"

	// DefaultProbeSymbols controls whether classification falls back to
	// symbol probing for libraries with unconventional names.
	DefaultProbeSymbols = true

	// DefaultLogLevel keeps the controller quiet unless asked otherwise.
	DefaultLogLevel = "warn"
)

// DefaultComponentLevels holds the per-component log level overrides
// applied when the config file does not specify any.
var DefaultComponentLevels = map[string]string{
	"scanner":   "warn",
	"classify":  "warn",
	"control":   "warn",
	"scope":     "warn",
	"preflight": "warn",
}
