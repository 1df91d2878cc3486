package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/poolctl/pkg/poolctl/conflict"
	"github.com/jamesainslie/poolctl/pkg/poolctl/output"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// errSevereConflicts signals error-severity findings; main maps it to exit
// code 2 so scripts can tell conflicts apart from operational failures.
var errSevereConflicts = errors.New("error-severity conflicts detected")

var (
	strictConflicts bool
	assumeFork      bool

	conflictsCmd = &cobra.Command{
		Use:   "conflicts",
		Short: "Check loaded backends for runtime conflicts",
		Long: `Evaluate the conflict rules against the loaded backends and report
findings with remediation hints.

Exit codes:
  0  no conflicts (or warnings only, without --strict)
  1  warnings found and --strict was set
  2  error-severity conflicts found`,
		Args: cobra.NoArgs,
		RunE: runConflicts,
	}
)

func init() {
	conflictsCmd.Flags().BoolVar(&strictConflicts, "strict", false, "treat warnings as failures")
	conflictsCmd.Flags().BoolVar(&assumeFork, "assume-fork", false, "evaluate fork-safety rules as if the process will fork")
	rootCmd.AddCommand(conflictsCmd)
}

// runConflicts snapshots the process, detects conflicts, and renders them.
func runConflicts(cmd *cobra.Command, args []string) error {
	reg, err := newController().Snapshot()
	if err != nil {
		return err
	}

	findings := conflict.Detect(reg, conflict.Environment{ForkDeclared: assumeFork})
	if findings == nil {
		findings = []types.Finding{}
	}
	if err := render(output.FromRegistry(reg, findings)); err != nil {
		return err
	}

	var warnings int
	for _, f := range findings {
		switch f.Severity {
		case types.SeverityError:
			return errSevereConflicts
		case types.SeverityWarning:
			warnings++
		}
	}
	if strictConflicts && warnings > 0 {
		return errors.New("warnings treated as failures (--strict)")
	}
	return nil
}
