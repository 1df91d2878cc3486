//go:build darwin

package scanner

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// scanSelf walks the dyld image list. The _dyld_* functions live in every
// process, so resolution failures here mean something is deeply wrong with
// the loader and the scan cannot proceed.
func scanSelf() ([]types.LoadedLibrary, []types.ScanError, error) {
	countFn, err := purego.Dlsym(purego.RTLD_DEFAULT, "_dyld_image_count")
	if err != nil {
		return nil, nil, fmt.Errorf("resolving _dyld_image_count: %w", err)
	}
	nameFn, err := purego.Dlsym(purego.RTLD_DEFAULT, "_dyld_get_image_name")
	if err != nil {
		return nil, nil, fmt.Errorf("resolving _dyld_get_image_name: %w", err)
	}
	headerFn, err := purego.Dlsym(purego.RTLD_DEFAULT, "_dyld_get_image_header")
	if err != nil {
		return nil, nil, fmt.Errorf("resolving _dyld_get_image_header: %w", err)
	}

	countRaw, _, _ := purego.SyscallN(countFn)
	count := uint32(countRaw)

	var libs []types.LoadedLibrary
	var scanErrs []types.ScanError
	for i := uint32(0); i < count; i++ {
		namePtr, _, _ := purego.SyscallN(nameFn, uintptr(i))
		path := goString(namePtr)
		if path == "" {
			// Image unloaded between count and name calls; rare but legal.
			scanErrs = append(scanErrs, types.ScanError{
				Path: "",
				Err:  fmt.Sprintf("image %d has no name", i),
			})
			continue
		}

		header, _, _ := purego.SyscallN(headerFn, uintptr(i))

		libs = append(libs, types.LoadedLibrary{
			Path:     path,
			BaseAddr: header,
			Identity: canonicalIdentity(path),
		})
	}

	return libs, scanErrs, nil
}

// goString copies a NUL-terminated C string into a Go string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var b []byte
	for {
		c := *(*byte)(unsafe.Pointer(p))
		if c == 0 {
			break
		}
		b = append(b, c)
		p++
	}
	return string(b)
}
