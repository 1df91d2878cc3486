package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/poolctl/pkg/poolctl/config"
	"github.com/jamesainslie/poolctl/pkg/poolctl/controller"
	"github.com/jamesainslie/poolctl/pkg/poolctl/logging"
	"github.com/jamesainslie/poolctl/pkg/poolctl/output"
)

var (
	cfgFile string
	appCfg  *config.Config

	rootCmd = &cobra.Command{
		Use:   "poolctl",
		Short: "Inspect and control native thread-pool backends",
		Long: `Poolctl inspects the shared libraries loaded into a process and controls
the thread limits of the threading backends it finds (OpenBLAS, MKL, and
the GNU, LLVM, and Intel OpenMP runtimes).

Running poolctl without a subcommand lists the backends loaded into the
poolctl process itself. Use exec to constrain a child process instead.

Examples:
  poolctl list               # Show loaded threading backends
  poolctl conflicts          # Check for runtime conflicts
  poolctl get openblas       # Read the OpenBLAS thread limit
  poolctl set openblas 4     # Cap OpenBLAS at 4 threads
  poolctl exec -t 1 -- make  # Run make with single-threaded backends
  poolctl preflight          # Search disk for backend libraries`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/poolctl/config.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format (table, plain, json, yaml, tsv, csv)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude library glob patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().Bool("no-probe", false, "disable symbol-probe classification fallback")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("exclude_flags", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("no_probe", rootCmd.PersistentFlags().Lookup("no-probe"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig loads the config file and wires up logging.
func initConfig() {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		printError("loading config: %v", err)
		cfg = &config.Config{
			Output:       config.DefaultOutput,
			ProbeSymbols: config.DefaultProbeSymbols,
		}
	}
	appCfg = cfg

	level := cfg.Logging.Level
	if getVerbose() {
		level = "debug"
	} else if getQuiet() {
		level = "error"
	}
	if err := logging.Init(logging.Config{Level: level, Components: cfg.Logging.Components}); err != nil {
		printError("configuring logging: %v", err)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newController builds a controller from config and flags.
func newController() *controller.Controller {
	exclude := append([]string{}, appCfg.Exclude...)
	exclude = append(exclude, viper.GetStringSlice("exclude_flags")...)

	return controller.New(
		controller.WithSymbolProbe(appCfg.ProbeSymbols && !viper.GetBool("no_probe")),
		controller.WithExclude(exclude...),
	)
}

// formatName returns the effective output format (flag over config).
func formatName() string {
	if f := viper.GetString("format"); f != "" {
		return f
	}
	return appCfg.Output
}

// render formats a result and writes it to stdout.
func render(r *output.Result) error {
	formatter, err := output.Get(formatName())
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, output.Available())
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
