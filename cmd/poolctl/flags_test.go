package main

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/jamesainslie/poolctl/pkg/poolctl/config"
)

func TestFormatName(t *testing.T) {
	tests := []struct {
		name       string
		flagFormat string
		cfgOutput  string
		want       string
	}{
		{
			name:      "config default when no flag",
			cfgOutput: "table",
			want:      "table",
		},
		{
			name:       "flag overrides config",
			flagFormat: "json",
			cfgOutput:  "table",
			want:       "json",
		},
		{
			name:      "config value used",
			cfgOutput: "yaml",
			want:      "yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			if tt.flagFormat != "" {
				viper.Set("format", tt.flagFormat)
			}
			appCfg = &config.Config{Output: tt.cfgOutput}

			if got := formatName(); got != tt.want {
				t.Errorf("formatName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewControllerFlagMerging(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("exclude_flags", []string{"*/libomp*"})
	viper.Set("no_probe", true)
	appCfg = &config.Config{Output: "table", ProbeSymbols: true, Exclude: []string{"*/vendor/*"}}

	if c := newController(); c == nil {
		t.Fatal("newController() returned nil")
	}
}

func TestExitCodeError(t *testing.T) {
	err := exitCodeError{code: 3}
	if err.Error() != "command exited with code 3" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
