// Package controller is the facade over the poolctl leaf packages. It wires
// scanning, classification, and symbol resolution into registry snapshots
// and exposes the uniform query, limit, conflict, and scoped-limit
// operations callers use.
//
// Nothing is persisted: every snapshot is derived fresh from the live
// process. Callers that want to avoid rescanning can hold on to a registry
// explicitly.
package controller

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/jamesainslie/poolctl/pkg/poolctl/classify"
	"github.com/jamesainslie/poolctl/pkg/poolctl/conflict"
	"github.com/jamesainslie/poolctl/pkg/poolctl/control"
	"github.com/jamesainslie/poolctl/pkg/poolctl/logging"
	"github.com/jamesainslie/poolctl/pkg/poolctl/scanner"
	"github.com/jamesainslie/poolctl/pkg/poolctl/scope"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// logger is the package-level logger for the controller facade.
var logger = logging.Get("controller")

// Controller discovers and mediates access to the threading backends loaded
// into this process. It is safe for concurrent use.
type Controller struct {
	probe    bool
	exclude  []string
	resolver *control.Resolver

	forkIntent atomic.Bool

	// snapshotFn produces a registry; replaced in tests.
	snapshotFn func() (*types.Registry, error)
}

// Option is a functional option for configuring a Controller.
type Option func(*Controller)

// WithSymbolProbe enables or disables the symbol-presence classification
// fallback. Enabled by default.
func WithSymbolProbe(enabled bool) Option {
	return func(c *Controller) {
		c.probe = enabled
	}
}

// WithExclude adds glob patterns for library identities to ignore during
// classification.
func WithExclude(patterns ...string) Option {
	return func(c *Controller) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// New creates a new Controller.
func New(opts ...Option) *Controller {
	c := &Controller{
		probe:    true,
		resolver: control.NewResolver(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.snapshotFn == nil {
		c.snapshotFn = c.liveSnapshot
	}
	return c
}

// Snapshot scans the process and returns a fresh registry of classified
// backends with control surfaces attached. Each call produces a new
// immutable snapshot.
func (c *Controller) Snapshot() (*types.Registry, error) {
	return c.snapshotFn()
}

// liveSnapshot is the production snapshot pipeline: scan, classify, attach.
func (c *Controller) liveSnapshot() (*types.Registry, error) {
	result, err := scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("scanning process libraries: %w", err)
	}
	for _, se := range result.Errors {
		logger.Info("library metadata unreadable", "path", se.Path, "error", se.Err)
	}

	opts := []classify.Option{classify.WithExclude(c.exclude...)}
	if c.probe {
		opts = append(opts, classify.WithProber(c.resolver))
	}
	reg := classify.New(opts...).Classify(result.Libraries)

	c.resolver.Attach(reg)

	logger.Debug("snapshot built",
		"id", reg.ID,
		"scanned", len(result.Libraries),
		"backends", reg.Len(),
		"controllable", len(reg.Controllable()))
	return reg, nil
}

// ThreadLimit returns the current thread limit for the backend matching the
// selector. A selector is a kind name (e.g. "openblas") or a library
// identity path; kind selectors return the first matching backend's limit.
func (c *Controller) ThreadLimit(selector string) (int, error) {
	reg, err := c.Snapshot()
	if err != nil {
		return 0, err
	}
	backends, err := selectBackends(reg, selector)
	if err != nil {
		return 0, err
	}
	return backends[0].ThreadLimit()
}

// SetThreadLimit sets the thread limit for every backend matching the
// selector. The change is a process-wide side effect on each targeted
// backend's shared counter.
func (c *Controller) SetThreadLimit(selector string, n int) error {
	reg, err := c.Snapshot()
	if err != nil {
		return err
	}
	backends, err := selectBackends(reg, selector)
	if err != nil {
		return err
	}
	for _, b := range backends {
		if err := b.SetThreadLimit(n); err != nil {
			return fmt.Errorf("%s (%s): %w", b.Kind, b.Library.Identity, err)
		}
		logger.Debug("thread limit set", "kind", b.Kind, "limit", n)
	}
	return nil
}

// CheckConflicts snapshots the process and evaluates the conflict rules.
func (c *Controller) CheckConflicts() ([]types.Finding, error) {
	reg, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	env := conflict.Environment{ForkDeclared: c.forkIntent.Load()}
	return conflict.Detect(reg, env), nil
}

// WithThreadLimit runs fn with a temporary limit applied to the targeted
// backends (all controllable backends when kinds is empty), restoring prior
// limits on every exit path.
func (c *Controller) WithThreadLimit(n int, fn func() error, kinds ...types.Kind) error {
	reg, err := c.Snapshot()
	if err != nil {
		return err
	}
	return scope.With(reg, n, fn, kinds...)
}

// DeclareForkIntent records the embedding application's explicit signal that
// it is about to fork. The signal is never inferred from process state.
func (c *Controller) DeclareForkIntent() {
	c.forkIntent.Store(true)
}

// ClearForkIntent withdraws a previously declared fork intent.
func (c *Controller) ClearForkIntent() {
	c.forkIntent.Store(false)
}

// ForkIntentDeclared reports whether a fork intent is currently declared.
func (c *Controller) ForkIntentDeclared() bool {
	return c.forkIntent.Load()
}

// selectBackends resolves a selector against a registry. Kind names take
// precedence; anything else is treated as a library path.
func selectBackends(reg *types.Registry, selector string) ([]*types.Backend, error) {
	if kind, err := types.ParseKind(selector); err == nil {
		if backends := reg.ByKind(kind); len(backends) > 0 {
			return backends, nil
		}
		return nil, fmt.Errorf("%w: no %s backend loaded", types.ErrNoBackend, kind)
	}

	cleaned := filepath.Clean(selector)
	for _, b := range reg.Backends {
		if b.Library.Identity == cleaned || b.Library.Path == cleaned {
			return []*types.Backend{b}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", types.ErrNoBackend, selector)
}
