package scope

import (
	"errors"
	"testing"

	"github.com/jamesainslie/poolctl/pkg/poolctl/control"
	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// fixture builds a registry of controllable fake backends with the given
// initial limits, keyed by kind.
func fixture(t *testing.T, limits map[types.Kind]int) (*types.Registry, map[types.Kind]*types.Backend) {
	t.Helper()

	paths := map[types.Kind]string{
		types.KindOpenBLAS:    "/usr/lib/libopenblas.so.0",
		types.KindMKL:         "/opt/intel/libmkl_rt.so.2",
		types.KindOpenMPGNU:   "/usr/lib/libgomp.so.1",
		types.KindOpenMPLLVM:  "/usr/lib/libomp.so",
		types.KindOpenMPIntel: "/opt/intel/libiomp5.so",
	}

	var backends []*types.Backend
	byKind := make(map[types.Kind]*types.Backend)
	for kind, limit := range limits {
		b := &types.Backend{
			Kind:    kind,
			Library: types.LoadedLibrary{Path: paths[kind], Identity: paths[kind]},
		}
		b.AttachSurface(control.NewFakeSurface(limit))
		backends = append(backends, b)
		byKind[kind] = b
	}
	return types.NewRegistry(backends), byKind
}

func mustLimit(t *testing.T, b *types.Backend) int {
	t.Helper()
	n, err := b.ThreadLimit()
	if err != nil {
		t.Fatalf("ThreadLimit() unexpected error: %v", err)
	}
	return n
}

func TestEnterExitRestores(t *testing.T) {
	reg, byKind := fixture(t, map[types.Kind]int{
		types.KindOpenBLAS:  8,
		types.KindOpenMPGNU: 16,
	})

	s, err := Enter(reg, 2)
	if err != nil {
		t.Fatalf("Enter unexpected error: %v", err)
	}

	for kind, b := range byKind {
		if got := mustLimit(t, b); got != 2 {
			t.Errorf("%v limit inside scope = %d, want 2", kind, got)
		}
	}

	if err := s.Exit(); err != nil {
		t.Fatalf("Exit unexpected error: %v", err)
	}

	if got := mustLimit(t, byKind[types.KindOpenBLAS]); got != 8 {
		t.Errorf("openblas limit after exit = %d, want 8", got)
	}
	if got := mustLimit(t, byKind[types.KindOpenMPGNU]); got != 16 {
		t.Errorf("openmp-gnu limit after exit = %d, want 16", got)
	}
}

func TestEnterInvalidLimit(t *testing.T) {
	reg, _ := fixture(t, map[types.Kind]int{types.KindOpenBLAS: 8})
	for _, n := range []int{0, -1} {
		if _, err := Enter(reg, n); !errors.Is(err, types.ErrInvalidThreadCount) {
			t.Errorf("Enter(%d) error = %v, want ErrInvalidThreadCount", n, err)
		}
	}
}

func TestEnterTargetsByKind(t *testing.T) {
	reg, byKind := fixture(t, map[types.Kind]int{
		types.KindOpenBLAS:  8,
		types.KindOpenMPGNU: 16,
	})

	s, err := Enter(reg, 1, types.KindOpenBLAS)
	if err != nil {
		t.Fatalf("Enter unexpected error: %v", err)
	}
	defer func() { _ = s.Exit() }()

	if got := mustLimit(t, byKind[types.KindOpenBLAS]); got != 1 {
		t.Errorf("targeted backend limit = %d, want 1", got)
	}
	if got := mustLimit(t, byKind[types.KindOpenMPGNU]); got != 16 {
		t.Errorf("untargeted backend limit = %d, want untouched 16", got)
	}
}

func TestExitIdempotent(t *testing.T) {
	reg, byKind := fixture(t, map[types.Kind]int{types.KindOpenBLAS: 8})

	s, err := Enter(reg, 2)
	if err != nil {
		t.Fatalf("Enter unexpected error: %v", err)
	}
	if err := s.Exit(); err != nil {
		t.Fatalf("first Exit unexpected error: %v", err)
	}

	// A mutation between the two exits must survive the second one.
	b := byKind[types.KindOpenBLAS]
	if err := b.SetThreadLimit(5); err != nil {
		t.Fatalf("SetThreadLimit unexpected error: %v", err)
	}
	if err := s.Exit(); err != nil {
		t.Fatalf("second Exit unexpected error: %v", err)
	}
	if got := mustLimit(t, b); got != 5 {
		t.Errorf("limit after repeated Exit = %d, want 5", got)
	}
}

func TestNestingLaw(t *testing.T) {
	reg, byKind := fixture(t, map[types.Kind]int{types.KindOpenMPGNU: 12})
	b := byKind[types.KindOpenMPGNU]

	outer, err := Enter(reg, 2)
	if err != nil {
		t.Fatalf("outer Enter unexpected error: %v", err)
	}

	inner, err := Enter(reg, 1)
	if err != nil {
		t.Fatalf("inner Enter unexpected error: %v", err)
	}
	if got := mustLimit(t, b); got != 1 {
		t.Errorf("limit inside inner = %d, want 1", got)
	}

	// Inner restores to the outer's override, never the original value.
	if err := inner.Exit(); err != nil {
		t.Fatalf("inner Exit unexpected error: %v", err)
	}
	if got := mustLimit(t, b); got != 2 {
		t.Errorf("limit after inner exit = %d, want 2", got)
	}

	if err := outer.Exit(); err != nil {
		t.Fatalf("outer Exit unexpected error: %v", err)
	}
	if got := mustLimit(t, b); got != 12 {
		t.Errorf("limit after outer exit = %d, want original 12", got)
	}
}

func TestWithRestoresOnError(t *testing.T) {
	reg, byKind := fixture(t, map[types.Kind]int{types.KindOpenBLAS: 8})
	boom := errors.New("body failed")

	err := With(reg, 2, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("With error = %v, want body error", err)
	}
	if got := mustLimit(t, byKind[types.KindOpenBLAS]); got != 8 {
		t.Errorf("limit after failed body = %d, want 8", got)
	}
}

func TestWithRestoresOnPanic(t *testing.T) {
	reg, byKind := fixture(t, map[types.Kind]int{types.KindOpenBLAS: 8})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = With(reg, 2, func() error { panic("abnormal unwind") })
	}()

	if got := mustLimit(t, byKind[types.KindOpenBLAS]); got != 8 {
		t.Errorf("limit after panic = %d, want 8", got)
	}
}

func TestWithNestedScenario(t *testing.T) {
	// with_thread_limit(4) around nested reads: every controllable backend
	// reports 4 inside, pre-scope values after.
	reg, byKind := fixture(t, map[types.Kind]int{
		types.KindOpenBLAS:  8,
		types.KindMKL:       6,
		types.KindOpenMPGNU: 16,
	})

	err := With(reg, 4, func() error {
		return With(reg, 4, func() error {
			for kind, b := range byKind {
				if got := mustLimit(t, b); got != 4 {
					t.Errorf("%v limit in nested scope = %d, want 4", kind, got)
				}
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("With unexpected error: %v", err)
	}

	want := map[types.Kind]int{
		types.KindOpenBLAS:  8,
		types.KindMKL:       6,
		types.KindOpenMPGNU: 16,
	}
	for kind, n := range want {
		if got := mustLimit(t, byKind[kind]); got != n {
			t.Errorf("%v limit after scopes = %d, want %d", kind, got, n)
		}
	}
}

func TestEnterRollsBackOnSetFailure(t *testing.T) {
	good := &types.Backend{
		Kind:    types.KindOpenBLAS,
		Library: types.LoadedLibrary{Path: "/a/libopenblas.so", Identity: "/a/libopenblas.so"},
	}
	good.AttachSurface(control.NewFakeSurface(8))

	bad := &types.Backend{
		Kind:    types.KindOpenMPGNU,
		Library: types.LoadedLibrary{Path: "/b/libgomp.so.1", Identity: "/b/libgomp.so.1"},
	}
	badSurface := control.NewFakeSurface(16)
	badSurface.FailSet = errors.New("native set failed")
	bad.AttachSurface(badSurface)

	reg := types.NewRegistry([]*types.Backend{good, bad})

	if _, err := Enter(reg, 2); err == nil {
		t.Fatal("Enter succeeded, want error from failing backend")
	}

	// The backend that was already set must be rolled back.
	if got := mustLimit(t, good); got != 8 {
		t.Errorf("rolled-back limit = %d, want 8", got)
	}
}

func TestExitSkipsVanishedBackend(t *testing.T) {
	reg, byKind := fixture(t, map[types.Kind]int{types.KindOpenBLAS: 8})
	b := byKind[types.KindOpenBLAS]

	s, err := Enter(reg, 2)
	if err != nil {
		t.Fatalf("Enter unexpected error: %v", err)
	}

	// Simulate the library being unloaded mid-scope.
	b.AttachSurface(nil)

	if err := s.Exit(); err != nil {
		t.Errorf("Exit error = %v, want nil (vanished backend is a no-op)", err)
	}
}

func TestEnterNoControllableBackends(t *testing.T) {
	observed := &types.Backend{
		Kind:    types.KindOpenMPLLVM,
		Library: types.LoadedLibrary{Path: "/usr/lib/libomp.so", Identity: "/usr/lib/libomp.so"},
	}
	reg := types.NewRegistry([]*types.Backend{observed})

	s, err := Enter(reg, 2)
	if err != nil {
		t.Fatalf("Enter unexpected error: %v", err)
	}
	if err := s.Exit(); err != nil {
		t.Errorf("Exit unexpected error: %v", err)
	}
}
