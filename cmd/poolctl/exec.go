package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// exitCodeError carries a child process exit code up to main.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.code)
}

var (
	execThreads  int
	execMKLLayer string

	execCmd = &cobra.Command{
		Use:   "exec -t <threads> -- <command> [args...]",
		Short: "Run a command with capped thread-pool backends",
		Long: `Run a command with its threading backends capped through the standard
environment variables (OMP_NUM_THREADS, OPENBLAS_NUM_THREADS,
MKL_NUM_THREADS). The backends read these at load time, so the cap
covers libraries poolctl cannot see until the child starts.

The child's exit code is propagated.

Examples:
  poolctl exec -t 1 -- python train.py
  poolctl exec -t 4 --mkl-layer GNU -- ./solver`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
)

func init() {
	execCmd.Flags().IntVarP(&execThreads, "threads", "t", 1, "thread limit for the child's backends")
	execCmd.Flags().StringVar(&execMKLLayer, "mkl-layer", "", "set MKL_THREADING_LAYER (e.g. GNU, INTEL, SEQUENTIAL)")
	rootCmd.AddCommand(execCmd)
}

// runExec launches the child with thread-limit environment applied.
func runExec(cmd *cobra.Command, args []string) error {
	if execThreads < 1 {
		return fmt.Errorf("%w: got %d", types.ErrInvalidThreadCount, execThreads)
	}

	child := exec.Command(args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	env := os.Environ()
	limit := fmt.Sprintf("%d", execThreads)
	env = append(env,
		"OMP_NUM_THREADS="+limit,
		"OPENBLAS_NUM_THREADS="+limit,
		"MKL_NUM_THREADS="+limit,
	)
	if execMKLLayer != "" {
		env = append(env, "MKL_THREADING_LAYER="+execMKLLayer)
	}
	child.Env = env

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitCodeError{code: exitErr.ExitCode()}
		}
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	return nil
}
