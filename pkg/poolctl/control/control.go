// Package control resolves and drives the per-backend thread-count entry
// points. Resolution is late-bound: each backend's get/set symbols are looked
// up against its already-loaded image, and a backend whose symbols do not
// both resolve stays in the registry as observation-only.
package control

import (
	"github.com/jamesainslie/poolctl/pkg/poolctl/logging"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// logger is the package-level logger for symbol resolution.
var logger = logging.Get("control")

// Resolver resolves control surfaces and marker symbols against loaded
// library images. It also satisfies classify.SymbolProber.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Attach resolves the control surface for every backend in the registry.
// Backends whose get/set entry points both resolve become controllable for
// the rest of the snapshot's life; the others are marked observation-only.
func (r *Resolver) Attach(reg *types.Registry) {
	for _, b := range reg.Backends {
		surface, err := resolveSurface(b.Kind, b.Library)
		if err != nil {
			logger.Debug("backend is observation-only",
				"kind", b.Kind, "path", b.Library.Path, "error", err)
			b.AttachSurface(nil)
			continue
		}
		b.AttachSurface(surface)
	}
}

// HasSymbol reports whether the library image exports the given symbol.
func (r *Resolver) HasSymbol(lib types.LoadedLibrary, symbol string) bool {
	return hasSymbol(lib.Path, symbol)
}
