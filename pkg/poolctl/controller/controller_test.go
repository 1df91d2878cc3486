package controller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/poolctl/pkg/poolctl/conflict"
	"github.com/jamesainslie/poolctl/pkg/poolctl/control"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// newTestController returns a controller whose snapshots come from the
// given backend builder instead of a live process scan. The builder runs on
// every snapshot so each call still yields a fresh registry over the same
// shared surfaces.
func newTestController(t *testing.T, build func() []*types.Backend) *Controller {
	t.Helper()
	c := New()
	c.snapshotFn = func() (*types.Registry, error) {
		return types.NewRegistry(build()), nil
	}
	return c
}

func controllable(kind types.Kind, path string, surface types.ControlSurface) *types.Backend {
	b := &types.Backend{
		Kind:    kind,
		Library: types.LoadedLibrary{Path: path, Identity: path},
	}
	b.AttachSurface(surface)
	return b
}

func TestSnapshotFreshEachCall(t *testing.T) {
	openblas := control.NewFakeSurface(8)
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenBLAS, "/usr/lib/libopenblas.so.0", openblas),
		}
	})

	a, err := c.Snapshot()
	require.NoError(t, err)
	b, err := c.Snapshot()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID, "snapshots must be distinct registries")
	assert.Equal(t, a.Len(), b.Len())
}

func TestThreadLimitByKindSelector(t *testing.T) {
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenBLAS, "/usr/lib/libopenblas.so.0", control.NewFakeSurface(8)),
			controllable(types.KindOpenMPGNU, "/usr/lib/libgomp.so.1", control.NewFakeSurface(16)),
		}
	})

	n, err := c.ThreadLimit("openblas")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = c.ThreadLimit("gomp")
	require.NoError(t, err)
	assert.Equal(t, 16, n)
}

func TestThreadLimitByIdentitySelector(t *testing.T) {
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenBLAS, "/usr/lib/libopenblas.so.0", control.NewFakeSurface(8)),
			controllable(types.KindOpenBLAS, "/opt/conda/lib/libopenblas.so.0", control.NewFakeSurface(4)),
		}
	})

	n, err := c.ThreadLimit("/opt/conda/lib/libopenblas.so.0")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestThreadLimitUnknownSelector(t *testing.T) {
	c := newTestController(t, func() []*types.Backend { return nil })

	_, err := c.ThreadLimit("openblas")
	assert.ErrorIs(t, err, types.ErrNoBackend)

	_, err = c.ThreadLimit("/no/such/lib.so")
	assert.ErrorIs(t, err, types.ErrNoBackend)
}

func TestSetThreadLimitKindAppliesToAll(t *testing.T) {
	first := control.NewFakeSurface(8)
	second := control.NewFakeSurface(12)
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenBLAS, "/usr/lib/libopenblas.so.0", first),
			controllable(types.KindOpenBLAS, "/opt/conda/lib/libopenblas.so.0", second),
		}
	})

	require.NoError(t, c.SetThreadLimit("openblas", 3))

	n, _ := first.ThreadLimit()
	assert.Equal(t, 3, n)
	n, _ = second.ThreadLimit()
	assert.Equal(t, 3, n)
}

func TestSetThreadLimitValidation(t *testing.T) {
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindMKL, "/opt/intel/libmkl_rt.so.2", control.NewFakeSurface(4)),
		}
	})

	err := c.SetThreadLimit("mkl", 0)
	assert.ErrorIs(t, err, types.ErrInvalidThreadCount)
}

func TestSetThreadLimitObservationOnly(t *testing.T) {
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			{
				Kind:    types.KindOpenMPLLVM,
				Library: types.LoadedLibrary{Path: "/usr/lib/libomp.so", Identity: "/usr/lib/libomp.so"},
			},
		}
	})

	err := c.SetThreadLimit("openmp-llvm", 2)
	assert.ErrorIs(t, err, types.ErrUnsupported)
}

func TestWithThreadLimitScenario(t *testing.T) {
	openblas := control.NewFakeSurface(8)
	gomp := control.NewFakeSurface(16)
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenBLAS, "/usr/lib/libopenblas.so.0", openblas),
			controllable(types.KindOpenMPGNU, "/usr/lib/libgomp.so.1", gomp),
		}
	})

	err := c.WithThreadLimit(4, func() error {
		n, err := openblas.ThreadLimit()
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		n, err = gomp.ThreadLimit()
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		return nil
	})
	require.NoError(t, err)

	n, _ := openblas.ThreadLimit()
	assert.Equal(t, 8, n, "pre-scope value restored")
	n, _ = gomp.ThreadLimit()
	assert.Equal(t, 16, n, "pre-scope value restored")
}

func TestWithThreadLimitTargetedKinds(t *testing.T) {
	openblas := control.NewFakeSurface(8)
	gomp := control.NewFakeSurface(16)
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenBLAS, "/usr/lib/libopenblas.so.0", openblas),
			controllable(types.KindOpenMPGNU, "/usr/lib/libgomp.so.1", gomp),
		}
	})

	err := c.WithThreadLimit(1, func() error {
		n, _ := gomp.ThreadLimit()
		assert.Equal(t, 16, n, "untargeted kind untouched")
		return nil
	}, types.KindOpenBLAS)
	require.NoError(t, err)
}

func TestCheckConflictsWithForkIntent(t *testing.T) {
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenMPGNU, "/usr/lib/libgomp.so.1", control.NewFakeSurface(8)),
		}
	})

	findings, err := c.CheckConflicts()
	require.NoError(t, err)
	assert.Empty(t, findings)

	c.DeclareForkIntent()
	assert.True(t, c.ForkIntentDeclared())

	findings, err = c.CheckConflicts()
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, conflict.RuleForkUnsafeDeclared, findings[0].RuleID)

	c.ClearForkIntent()
	findings, err = c.CheckConflicts()
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestCheckConflictsDualOpenMP(t *testing.T) {
	c := newTestController(t, func() []*types.Backend {
		return []*types.Backend{
			controllable(types.KindOpenMPGNU, "/usr/lib/libgomp.so.1", control.NewFakeSurface(8)),
			controllable(types.KindOpenMPLLVM, "/usr/lib/libomp.so", control.NewFakeSurface(8)),
		}
	})

	findings, err := c.CheckConflicts()
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, conflict.RuleDualOpenMP, findings[0].RuleID)
	assert.Equal(t, types.SeverityWarning, findings[0].Severity)
}

func TestSnapshotErrorPropagates(t *testing.T) {
	c := New()
	scanErr := errors.New("scan failed")
	c.snapshotFn = func() (*types.Registry, error) { return nil, scanErr }

	_, err := c.ThreadLimit("openblas")
	assert.ErrorIs(t, err, scanErr)

	_, err = c.CheckConflicts()
	assert.ErrorIs(t, err, scanErr)

	err = c.WithThreadLimit(2, func() error { return nil })
	assert.ErrorIs(t, err, scanErr)
}
