package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

var getCmd = &cobra.Command{
	Use:   "get <backend>",
	Short: "Read a backend's current thread limit",
	Long: `Read the current thread limit of a backend. The backend is selected by
kind name (openblas, mkl, openmp-gnu, openmp-llvm, openmp-intel) or by
library path. Kind selectors read the first matching backend.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

var setCmd = &cobra.Command{
	Use:   "set <backend> <threads>",
	Short: "Set a backend's thread limit",
	Long: `Set the thread limit of the selected backends. Kind selectors apply to
every loaded backend of that kind; path selectors target one library.

The change takes effect in the poolctl process only. To constrain a
different program, use exec.`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
}

// runGet prints the selected backend's thread limit.
func runGet(cmd *cobra.Command, args []string) error {
	n, err := newController().ThreadLimit(args[0])
	if err != nil {
		return err
	}
	fmt.Println(n)
	return nil
}

// runSet applies a thread limit to the selected backends.
func runSet(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", types.ErrInvalidThreadCount, args[1])
	}
	if err := newController().SetThreadLimit(args[0], n); err != nil {
		return err
	}
	printInfo("%s limited to %d threads", args[0], n)
	return nil
}
