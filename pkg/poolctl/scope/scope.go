// Package scope applies temporary thread limits to registry backends with
// guaranteed restoration on every exit path.
//
// Scopes compose by stack discipline: an inner scope captures whatever limit
// is live at its entry, which may already be an outer scope's override, and
// restores exactly that value on exit. The native counters are process-global,
// so the capture+set sequence and each restore step run under one
// process-wide mutex; the lock is never held across the scope body.
package scope

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jamesainslie/poolctl/pkg/poolctl/logging"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// logger is the package-level logger for scope operations.
var logger = logging.Get("scope")

// boundaryMu serializes every read-modify-write against the backends'
// process-global counters. There is exactly one per process, shared by all
// scopes over all registries.
var boundaryMu sync.Mutex

// entry records one backend's pre-scope limit.
type entry struct {
	backend *types.Backend
	prior   int
}

// Scope holds captured limits for restoration. A scope belongs to the
// execution context that entered it and must not outlive the registry it
// was built from.
type Scope struct {
	mu      sync.Mutex
	entries []entry
	exited  bool
}

// Enter applies a temporary limit to the targeted backends. Targets default
// to every controllable backend in the registry; passing kinds narrows the
// set. For each target the current limit is captured, then the new limit
// applied, as one locked sequence. If any set fails, already-applied
// backends are rolled back in reverse order and the error is returned.
func Enter(reg *types.Registry, limit int, kinds ...types.Kind) (*Scope, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: got %d", types.ErrInvalidThreadCount, limit)
	}

	targets := targetBackends(reg, kinds)

	boundaryMu.Lock()
	defer boundaryMu.Unlock()

	s := &Scope{entries: make([]entry, 0, len(targets))}
	for _, b := range targets {
		prior, err := b.ThreadLimit()
		if err != nil {
			rollbackLocked(s.entries)
			return nil, fmt.Errorf("capturing limit for %s: %w", b.Kind, err)
		}
		if err := b.SetThreadLimit(limit); err != nil {
			rollbackLocked(s.entries)
			return nil, fmt.Errorf("setting limit for %s: %w", b.Kind, err)
		}
		s.entries = append(s.entries, entry{backend: b, prior: prior})
	}

	logger.Debug("scope entered", "limit", limit, "backends", len(s.entries))
	return s, nil
}

// Exit restores every captured backend to its captured value, in reverse
// order of application. It is idempotent; repeated calls are no-ops.
// A backend that has become uncontrollable since capture (its library was
// unloaded) is skipped, not an error. All other restore failures are
// collected and returned after every restore has been attempted.
func (s *Scope) Exit() error {
	s.mu.Lock()
	if s.exited {
		s.mu.Unlock()
		return nil
	}
	s.exited = true
	entries := s.entries
	s.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]

		boundaryMu.Lock()
		err := e.backend.SetThreadLimit(e.prior)
		boundaryMu.Unlock()

		if errors.Is(err, types.ErrUnsupported) {
			continue // backend vanished; nothing left to restore
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restoring %s to %d: %w", e.backend.Kind, e.prior, err))
		}
	}

	logger.Debug("scope exited", "backends", len(entries), "errors", len(errs))
	return errors.Join(errs...)
}

// With runs fn with a temporary limit applied, restoring prior limits on
// normal return, error, and panic. Panics propagate after restoration.
func With(reg *types.Registry, limit int, fn func() error, kinds ...types.Kind) (err error) {
	s, err := Enter(reg, limit, kinds...)
	if err != nil {
		return err
	}
	defer func() {
		if exitErr := s.Exit(); exitErr != nil && err == nil {
			err = exitErr
		}
	}()
	return fn()
}

// targetBackends selects the controllable backends matching the kind set.
// An empty kind set selects all of them.
func targetBackends(reg *types.Registry, kinds []types.Kind) []*types.Backend {
	controllable := reg.Controllable()
	if len(kinds) == 0 {
		return controllable
	}

	wanted := make(map[types.Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var out []*types.Backend
	for _, b := range controllable {
		if wanted[b.Kind] {
			out = append(out, b)
		}
	}
	return out
}

// rollbackLocked undoes already-applied entries in reverse order.
// Caller must hold boundaryMu.
func rollbackLocked(entries []entry) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if err := e.backend.SetThreadLimit(e.prior); err != nil {
			logger.Warn("rollback failed", "kind", e.backend.Kind, "error", err)
		}
	}
}
