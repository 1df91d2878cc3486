// Package classify matches mapped shared libraries against known threading
// backend naming conventions and marker symbols, producing an immutable
// registry snapshot.
//
// Classification is pure and deterministic: the same library set yields the
// same registry contents regardless of scan order, because libraries
// deduplicate by (kind, identity) and the registry sorts its entries.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/poolctl/pkg/poolctl/logging"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// logger is the package-level logger for classification.
var logger = logging.Get("classify")

// SymbolProber resolves backend-unique marker symbols against a library
// image. It is satisfied by the control package's resolver; classification
// works without one, falling back to filename rules only.
type SymbolProber interface {
	HasSymbol(lib types.LoadedLibrary, symbol string) bool
}

// Classifier turns scanned libraries into a backend registry.
type Classifier struct {
	prober  SymbolProber
	exclude []glob.Glob
}

// Option is a functional option for configuring a Classifier.
type Option func(*Classifier)

// WithProber enables the symbol-presence fallback for libraries whose
// filenames match no known convention.
func WithProber(p SymbolProber) Option {
	return func(c *Classifier) {
		c.prober = p
	}
}

// WithExclude adds glob patterns for library identities to ignore.
// Invalid patterns are skipped with a warning.
func WithExclude(patterns ...string) Option {
	return func(c *Classifier) {
		for _, p := range patterns {
			g, err := glob.Compile(p)
			if err != nil {
				logger.Warn("skipping invalid exclude pattern", "pattern", p, "error", err)
				continue
			}
			c.exclude = append(c.exclude, g)
		}
	}
}

// New creates a new Classifier with the given options.
func New(opts ...Option) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify applies the ordered rule list to each library and builds a
// registry from the matches. Libraries matching no rule are not threading
// backends of interest and are dropped, never reported as unknown.
func (c *Classifier) Classify(libs []types.LoadedLibrary) *types.Registry {
	var backends []*types.Backend

	for _, lib := range libs {
		if c.excluded(lib) {
			logger.Debug("library excluded", "identity", lib.Identity)
			continue
		}

		kind, ok := MatchFilename(strings.ToLower(filepath.Base(lib.Path)))
		if !ok && c.prober != nil {
			kind, ok = c.probe(lib)
		}
		if !ok {
			continue
		}

		logger.Debug("library classified", "kind", kind, "path", lib.Path)
		backends = append(backends, &types.Backend{
			Kind:    kind,
			Library: lib,
		})
	}

	return types.NewRegistry(backends)
}

// probe checks the library image for backend-unique marker symbols.
func (c *Classifier) probe(lib types.LoadedLibrary) (types.Kind, bool) {
	for _, rule := range probeRules {
		if c.prober.HasSymbol(lib, rule.symbol) {
			return rule.kind, true
		}
	}
	return types.KindUnknown, false
}

// excluded reports whether the library identity matches an exclude pattern.
func (c *Classifier) excluded(lib types.LoadedLibrary) bool {
	for _, g := range c.exclude {
		if g.Match(lib.Identity) {
			return true
		}
	}
	return false
}
