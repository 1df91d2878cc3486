// Package scanner enumerates the shared libraries mapped into the calling
// process. On Linux it parses /proc/self/maps; on macOS it walks the dyld
// image list. Entries that cannot be read are skipped and recorded as
// informational scan errors rather than failing the whole scan.
package scanner

import (
	"path/filepath"
	"time"

	"github.com/jamesainslie/poolctl/pkg/poolctl/logging"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// logger is the package-level logger for scan operations.
var logger = logging.Get("scanner")

// Result contains the outcome of one library scan.
type Result struct {
	// Libraries are the mapped shared objects, unique by identity.
	// Order is stable within one call but not guaranteed across calls.
	Libraries []types.LoadedLibrary

	// Errors records entries whose metadata could not be read.
	// A non-empty list does not mean the scan failed.
	Errors []types.ScanError

	// Elapsed is the total time taken by the scan.
	Elapsed time.Duration
}

// Scan enumerates the shared libraries currently mapped into this process.
// It has no side effects beyond reading process metadata. The only hard
// failure is an unsupported platform; per-entry failures are soft.
func Scan() (*Result, error) {
	start := time.Now()

	libs, scanErrs, err := scanSelf()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Libraries: libs,
		Errors:    scanErrs,
		Elapsed:   time.Since(start),
	}

	logger.Debug("scan complete",
		"libraries", len(result.Libraries),
		"errors", len(result.Errors),
		"elapsed", result.Elapsed)

	return result, nil
}

// canonicalIdentity derives the deduplication identity for a library path.
// Symlinks are resolved so that two loader entries for the same image agree;
// if resolution fails the cleaned absolute path is used instead.
func canonicalIdentity(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return filepath.Clean(resolved)
	}
	return abs
}
