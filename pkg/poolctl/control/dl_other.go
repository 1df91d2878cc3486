//go:build !linux && !darwin

package control

import (
	"fmt"
	"runtime"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// resolveSurface is unavailable without a dynamic-symbol-resolution API.
func resolveSurface(kind types.Kind, lib types.LoadedLibrary) (types.ControlSurface, error) {
	return nil, fmt.Errorf("%w: symbol resolution on %s", types.ErrUnsupportedPlatform, runtime.GOOS)
}

// hasSymbol always reports false on unsupported platforms.
func hasSymbol(path, symbol string) bool {
	return false
}
