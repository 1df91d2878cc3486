//go:build !linux && !darwin

package scanner

import (
	"fmt"
	"runtime"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// scanSelf is unavailable on platforms without a supported library
// enumeration API.
func scanSelf() ([]types.LoadedLibrary, []types.ScanError, error) {
	return nil, nil, fmt.Errorf("%w: library enumeration on %s", types.ErrUnsupportedPlatform, runtime.GOOS)
}
