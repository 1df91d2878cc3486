package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// mapping accumulates per-path state while parsing a maps table.
type mapping struct {
	base  uintptr
	exec  bool
	order int
}

// parseMaps parses the Linux /proc/<pid>/maps format into library entries.
// Only file-backed mappings with at least one executable region are kept;
// anonymous regions and pseudo-entries like [heap] and [vdso] are not
// libraries. Identities are left empty; the caller canonicalizes them.
//
// Malformed lines are recorded as scan errors and skipped.
func parseMaps(r io.Reader) ([]types.LoadedLibrary, []types.ScanError) {
	byPath := make(map[string]*mapping)
	var order []string
	var scanErrs []types.ScanError

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		// address perms offset dev inode [pathname]
		if len(fields) < 6 {
			continue // anonymous mapping, no path
		}

		path := strings.Join(fields[5:], " ")
		if !strings.HasPrefix(path, "/") {
			continue // [heap], [stack], [vdso], ...
		}
		// The image of an unlinked file stays mapped; keep the original path.
		path = strings.TrimSuffix(path, " (deleted)")

		start, err := parseRangeStart(fields[0])
		if err != nil {
			scanErrs = append(scanErrs, types.ScanError{
				Path: path,
				Err:  fmt.Sprintf("parsing map range %q: %v", fields[0], err),
			})
			continue
		}

		m, ok := byPath[path]
		if !ok {
			m = &mapping{base: start, order: len(order)}
			byPath[path] = m
			order = append(order, path)
		}
		if start < m.base {
			m.base = start
		}
		if strings.Contains(fields[1], "x") {
			m.exec = true
		}
	}

	if err := scanner.Err(); err != nil {
		scanErrs = append(scanErrs, types.ScanError{
			Path: "",
			Err:  fmt.Sprintf("reading maps: %v", err),
		})
	}

	var libs []types.LoadedLibrary
	for _, path := range order {
		m := byPath[path]
		if !m.exec {
			continue // data-only mapping (locale archives, fonts, ...)
		}
		libs = append(libs, types.LoadedLibrary{
			Path:     path,
			BaseAddr: m.base,
		})
	}

	return libs, scanErrs
}

// parseRangeStart parses the start address of a "start-end" hex range.
func parseRangeStart(s string) (uintptr, error) {
	startHex, _, ok := strings.Cut(s, "-")
	if !ok {
		return 0, fmt.Errorf("missing range separator")
	}
	start, err := strconv.ParseUint(startHex, 16, 64)
	if err != nil {
		return 0, err
	}
	return uintptr(start), nil
}
