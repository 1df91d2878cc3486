package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/poolctl/pkg/poolctl/preflight"
)

var (
	preflightPaths []string

	preflightCmd = &cobra.Command{
		Use:   "preflight [flags]",
		Short: "Search disk for backend libraries before they load",
		Long: `Walk the platform library directories (plus LD_LIBRARY_PATH or
DYLD_LIBRARY_PATH, plus any configured or flagged extras) for shared
objects matching backend naming conventions. Multiple distinct images of
the same backend kind are flagged: that is the setup most likely to end
as a loaded-runtime conflict.`,
		Args: cobra.NoArgs,
		RunE: runPreflight,
	}
)

func init() {
	preflightCmd.Flags().StringSliceVarP(&preflightPaths, "path", "p", nil, "extra directories to search (can be specified multiple times)")
	rootCmd.AddCommand(preflightCmd)
}

// runPreflight searches disk and reports candidate backend libraries.
func runPreflight(cmd *cobra.Command, args []string) error {
	dirs := preflight.DefaultSearchPaths()
	dirs = append(dirs, appCfg.Preflight.Paths...)
	dirs = append(dirs, preflightPaths...)

	report := preflight.Search(dirs)

	switch formatName() {
	case "json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		fmt.Print(buf.String())
		return nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		fmt.Print(buf.String())
		return nil
	}

	if len(report.Candidates) == 0 {
		printInfo("no backend libraries found in %d directories", len(report.Searched))
		return nil
	}

	fmt.Printf("%-14s %-10s %s\n", "KIND", "SIZE", "PATH")
	for _, c := range report.Candidates {
		fmt.Printf("%-14s %-10s %s\n", c.Kind, humanize.IBytes(uint64(c.Size)), c.Path)
	}

	dupes := report.Duplicates()
	if len(dupes) == 0 {
		return nil
	}

	kinds := make([]string, 0, len(dupes))
	byName := make(map[string][]preflight.Candidate, len(dupes))
	for kind, cands := range dupes {
		kinds = append(kinds, kind.String())
		byName[kind.String()] = cands
	}
	sort.Strings(kinds)

	fmt.Println()
	for _, name := range kinds {
		printInfo("warning: %d distinct %s images on disk; loading more than one risks a runtime conflict", len(byName[name]), name)
	}
	return nil
}
