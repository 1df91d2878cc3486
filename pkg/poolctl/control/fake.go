package control

import (
	"fmt"
	"sync"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// FakeSurface is an in-memory control surface for tests. It mimics a
// backend's process-global counter without touching any native runtime.
type FakeSurface struct {
	mu    sync.Mutex
	limit int

	// FailSet, when non-nil, is returned by SetThreadLimit to simulate
	// a backend whose set entry point misbehaves.
	FailSet error
}

// NewFakeSurface creates a fake surface with the given initial limit.
func NewFakeSurface(limit int) *FakeSurface {
	return &FakeSurface{limit: limit}
}

// ThreadLimit returns the fake counter.
func (f *FakeSurface) ThreadLimit() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limit, nil
}

// SetThreadLimit sets the fake counter.
func (f *FakeSurface) SetThreadLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", types.ErrInvalidThreadCount, n)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailSet != nil {
		return f.FailSet
	}
	f.limit = n
	return nil
}

var _ types.ControlSurface = (*FakeSurface)(nil)
