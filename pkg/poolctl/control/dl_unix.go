//go:build linux || darwin

package control

import (
	"fmt"

	"github.com/ebitengine/purego"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// dlSurface drives a backend through resolved native entry points.
// Both functions follow the C int calling convention shared by every
// supported backend: get takes no arguments and returns the limit, set
// takes the new limit and returns nothing of interest.
type dlSurface struct {
	getFn uintptr
	setFn uintptr
}

// ThreadLimit calls the backend's native get entry point.
func (s *dlSurface) ThreadLimit() (int, error) {
	r1, _, _ := purego.SyscallN(s.getFn)
	return int(int32(r1)), nil
}

// SetThreadLimit calls the backend's native set entry point. The mutated
// counter is process-global, not scoped to the calling thread.
func (s *dlSurface) SetThreadLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", types.ErrInvalidThreadCount, n)
	}
	purego.SyscallN(s.setFn, uintptr(n))
	return nil
}

// resolveSurface resolves both control entry points for a backend.
// Resolution never loads anything new: dlopen runs in no-load mode against
// the image the scanner already saw.
func resolveSurface(kind types.Kind, lib types.LoadedLibrary) (types.ControlSurface, error) {
	get, set, ok := Symbols(kind)
	if !ok {
		return nil, fmt.Errorf("%w: no control symbols for kind %s", types.ErrUnsupported, kind)
	}

	handle, err := dlopenLoaded(lib.Path)
	if err != nil {
		return nil, err
	}
	// Drop our reference once symbols are resolved; the image stays
	// resident through the references that loaded it, and the resolved
	// entry points remain valid for the snapshot's lifetime.
	defer func() { _ = purego.Dlclose(handle) }()

	getFn, err := purego.Dlsym(handle, get)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", get, err)
	}
	setFn, err := purego.Dlsym(handle, set)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", set, err)
	}

	return &dlSurface{getFn: getFn, setFn: setFn}, nil
}

// hasSymbol reports whether an already-loaded image exports the symbol.
func hasSymbol(path, symbol string) bool {
	handle, err := dlopenLoaded(path)
	if err != nil {
		return false
	}
	defer func() { _ = purego.Dlclose(handle) }()

	addr, err := purego.Dlsym(handle, symbol)
	return err == nil && addr != 0
}

// dlopenLoaded returns a handle to an already-loaded image. RTLD_NOLOAD
// guarantees no new library is pulled in: a path the loader has not mapped
// yields an error instead of a load.
func dlopenLoaded(path string) (uintptr, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_LAZY|rtldNoLoad)
	if err != nil {
		return 0, fmt.Errorf("dlopen %s: %w", path, err)
	}
	if handle == 0 {
		return 0, fmt.Errorf("dlopen %s: image not loaded", path)
	}
	return handle, nil
}
