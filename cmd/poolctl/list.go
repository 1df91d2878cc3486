package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/poolctl/pkg/poolctl/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded threading backends",
	Long: `Scan the process and list every classified threading backend, its
current thread limit, and whether it is controllable.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

// runList snapshots the process and renders the backend list.
func runList(cmd *cobra.Command, args []string) error {
	reg, err := newController().Snapshot()
	if err != nil {
		return err
	}
	return render(output.FromRegistry(reg, nil))
}
