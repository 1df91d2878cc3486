//go:build linux

package scanner

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// scanSelf reads the process memory-map table from /proc/self/maps.
func scanSelf() ([]types.LoadedLibrary, []types.ScanError, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return nil, nil, fmt.Errorf("opening /proc/self/maps: %w", err)
	}
	defer f.Close()

	libs, scanErrs := parseMaps(f)

	out := make([]types.LoadedLibrary, 0, len(libs))
	for _, lib := range libs {
		// Unreadable images cannot be probed for symbols later; report
		// them and keep going.
		if err := unix.Access(lib.Path, unix.R_OK); err != nil {
			scanErrs = append(scanErrs, types.ScanError{
				Path: lib.Path,
				Err:  fmt.Sprintf("library not readable: %v", err),
			})
		}
		lib.Identity = canonicalIdentity(lib.Path)
		out = append(out, lib)
	}

	return out, scanErrs, nil
}
