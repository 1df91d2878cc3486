// Package preflight searches library directories on disk for shared objects
// that would classify as threading backends if loaded. It lets embedders
// spot duplicate runtime families (two OpenBLAS builds, a stray libiomp5
// next to libomp) before anything dlopens them, when remediation is still
// cheap.
package preflight

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/poolctl/pkg/poolctl/classify"
	"github.com/jamesainslie/poolctl/pkg/poolctl/logging"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// logger is the package-level logger for preflight searches.
var logger = logging.Get("preflight")

// Candidate is one on-disk shared object matching a backend naming
// convention.
type Candidate struct {
	// Path is where the file was found.
	Path string `json:"path" yaml:"path"`

	// Identity is the symlink-resolved path; several sonames may share it.
	Identity string `json:"identity" yaml:"identity"`

	// Kind is the backend family the name classifies to.
	Kind types.Kind `json:"kind" yaml:"kind"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`
}

// Report is the outcome of one preflight search.
type Report struct {
	// Candidates are the matching files, unique by identity, sorted by
	// (kind, identity).
	Candidates []Candidate `json:"candidates" yaml:"candidates"`

	// Searched lists the directories that were walked.
	Searched []string `json:"searched" yaml:"searched"`

	// Errors records entries that could not be read. Informational only.
	Errors []types.ScanError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Duplicates returns the backend kinds with more than one distinct image on
// disk, the situation most likely to end as a loaded-runtime conflict.
func (r *Report) Duplicates() map[types.Kind][]Candidate {
	byKind := make(map[types.Kind][]Candidate)
	for _, c := range r.Candidates {
		byKind[c.Kind] = append(byKind[c.Kind], c)
	}
	for kind, cands := range byKind {
		if len(cands) < 2 {
			delete(byKind, kind)
		}
	}
	return byKind
}

// DefaultSearchPaths returns the conventional library directories for this
// platform plus the loader search path from the environment.
func DefaultSearchPaths() []string {
	var dirs []string
	switch runtime.GOOS {
	case "darwin":
		dirs = []string{"/usr/lib", "/usr/local/lib", "/opt/homebrew/lib"}
		dirs = append(dirs, filepath.SplitList(os.Getenv("DYLD_LIBRARY_PATH"))...)
	default:
		dirs = []string{"/lib", "/lib64", "/usr/lib", "/usr/lib64", "/usr/local/lib"}
		dirs = append(dirs, filepath.SplitList(os.Getenv("LD_LIBRARY_PATH"))...)
	}

	var out []string
	seen := make(map[string]bool)
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Search walks the given directories and collects backend-named shared
// objects. Directories that do not exist are skipped silently; unreadable
// entries are recorded as errors without aborting the walk.
func Search(dirs []string) *Report {
	report := &Report{}

	var mu sync.Mutex
	byIdentity := make(map[string]Candidate)

	conf := fastwalk.Config{
		Follow: false, // symlinked dirs can loop; files are resolved below
	}

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		report.Searched = append(report.Searched, dir)

		err = fastwalk.Walk(&conf, dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				mu.Lock()
				report.Errors = append(report.Errors, types.ScanError{
					Path: path,
					Err:  walkErr.Error(),
				})
				mu.Unlock()
				return nil
			}
			if d.IsDir() {
				return nil
			}

			kind, ok := classify.MatchFilename(strings.ToLower(d.Name()))
			if !ok {
				return nil
			}

			identity := path
			if resolved, err := filepath.EvalSymlinks(path); err == nil {
				identity = resolved
			}

			var size int64
			if fi, err := os.Stat(path); err == nil {
				size = fi.Size()
			}

			mu.Lock()
			if _, dup := byIdentity[identity]; !dup {
				byIdentity[identity] = Candidate{
					Path:     path,
					Identity: identity,
					Kind:     kind,
					Size:     size,
				}
			}
			mu.Unlock()
			return nil
		})
		if err != nil {
			report.Errors = append(report.Errors, types.ScanError{
				Path: dir,
				Err:  err.Error(),
			})
		}
	}

	for _, c := range byIdentity {
		report.Candidates = append(report.Candidates, c)
	}
	sort.Slice(report.Candidates, func(i, j int) bool {
		a, b := report.Candidates[i], report.Candidates[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Identity < b.Identity
	})

	logger.Debug("preflight search complete",
		"dirs", len(report.Searched),
		"candidates", len(report.Candidates),
		"errors", len(report.Errors))
	return report
}
