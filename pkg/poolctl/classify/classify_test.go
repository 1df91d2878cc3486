package classify

import (
	"testing"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

func lib(path string) types.LoadedLibrary {
	return types.LoadedLibrary{Path: path, Identity: path}
}

func TestMatchFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Kind
		ok    bool
	}{
		{name: "openblas", input: "libopenblas.so.0", want: types.KindOpenBLAS, ok: true},
		{name: "openblas 64-bit suffix", input: "libopenblas64_.so.0", want: types.KindOpenBLAS, ok: true},
		{name: "openblas pthread build", input: "libopenblasp-r0.3.27.so", want: types.KindOpenBLAS, ok: true},
		{name: "mkl runtime", input: "libmkl_rt.so.2", want: types.KindMKL, ok: true},
		{name: "gnu openmp", input: "libgomp.so.1", want: types.KindOpenMPGNU, ok: true},
		{name: "gnu openmp versioned name", input: "libgomp-a34b3233.so.1", want: types.KindOpenMPGNU, ok: true},
		{name: "llvm openmp", input: "libomp.so", want: types.KindOpenMPLLVM, ok: true},
		{name: "llvm openmp dylib", input: "libomp.dylib", want: types.KindOpenMPLLVM, ok: true},
		{name: "llvm openmp versioned", input: "libomp5.so", want: types.KindOpenMPLLVM, ok: true},
		{name: "intel openmp beats llvm prefix", input: "libiomp5.so", want: types.KindOpenMPIntel, ok: true},
		{name: "intel openmp dylib", input: "libiomp5.dylib", want: types.KindOpenMPIntel, ok: true},
		{name: "mkl core is not the control runtime", input: "libmkl_core.so.2"},
		{name: "plain libc", input: "libc.so.6"},
		{name: "unrelated omp-ish name", input: "libompstuff.so"},
		{name: "gomp prefix of other lib", input: "libgompertz.so"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchFilename(tt.input)
			if ok != tt.ok {
				t.Fatalf("MatchFilename(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("MatchFilename(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// mapProber reports symbols from a static path->symbols map.
type mapProber struct {
	symbols map[string][]string
}

func (p *mapProber) HasSymbol(lib types.LoadedLibrary, symbol string) bool {
	for _, s := range p.symbols[lib.Path] {
		if s == symbol {
			return true
		}
	}
	return false
}

func TestClassifyFilenameRules(t *testing.T) {
	c := New()
	reg := c.Classify([]types.LoadedLibrary{
		lib("/usr/lib/libopenblas.so.0"),
		lib("/usr/lib/libc.so.6"),
		lib("/usr/lib/libgomp.so.1"),
	})

	if reg.Len() != 2 {
		t.Fatalf("registry has %d backends, want 2", reg.Len())
	}
	if reg.Backends[0].Kind != types.KindOpenBLAS {
		t.Errorf("Backends[0].Kind = %v, want openblas", reg.Backends[0].Kind)
	}
	if reg.Backends[1].Kind != types.KindOpenMPGNU {
		t.Errorf("Backends[1].Kind = %v, want openmp-gnu", reg.Backends[1].Kind)
	}
}

func TestClassifyProbeFallback(t *testing.T) {
	prober := &mapProber{symbols: map[string][]string{
		"/opt/app/vendored-blas.so": {"openblas_get_config"},
		"/opt/app/renamed-omp.so":   {"__kmpc_fork_call"},
		"/opt/app/plugin.so":        {"plugin_init"},
	}}

	c := New(WithProber(prober))
	reg := c.Classify([]types.LoadedLibrary{
		lib("/opt/app/vendored-blas.so"),
		lib("/opt/app/renamed-omp.so"),
		lib("/opt/app/plugin.so"),
	})

	if reg.Len() != 2 {
		t.Fatalf("registry has %d backends, want 2", reg.Len())
	}
	if reg.Backends[0].Kind != types.KindOpenBLAS {
		t.Errorf("Backends[0].Kind = %v, want openblas", reg.Backends[0].Kind)
	}
	if reg.Backends[1].Kind != types.KindOpenMPLLVM {
		t.Errorf("Backends[1].Kind = %v, want openmp-llvm", reg.Backends[1].Kind)
	}
}

func TestClassifyFilenameWinsOverProbe(t *testing.T) {
	// A library named libgomp must classify by filename even if a prober
	// would report other symbols; the probe is only a fallback.
	prober := &mapProber{symbols: map[string][]string{
		"/usr/lib/libgomp.so.1": {"openblas_get_config"},
	}}

	c := New(WithProber(prober))
	reg := c.Classify([]types.LoadedLibrary{lib("/usr/lib/libgomp.so.1")})

	if reg.Len() != 1 || reg.Backends[0].Kind != types.KindOpenMPGNU {
		t.Errorf("got %v, want single openmp-gnu backend", reg.Backends)
	}
}

func TestClassifyWithoutProberDropsUnmatched(t *testing.T) {
	c := New()
	reg := c.Classify([]types.LoadedLibrary{lib("/opt/app/renamed-omp.so")})
	if reg.Len() != 0 {
		t.Errorf("registry has %d backends, want 0 without a prober", reg.Len())
	}
}

func TestClassifyExclude(t *testing.T) {
	c := New(WithExclude("/opt/bundled/*"))
	reg := c.Classify([]types.LoadedLibrary{
		lib("/opt/bundled/libopenblas.so.0"),
		lib("/usr/lib/libopenblas.so.0"),
	})

	if reg.Len() != 1 {
		t.Fatalf("registry has %d backends, want 1", reg.Len())
	}
	if reg.Backends[0].Library.Identity != "/usr/lib/libopenblas.so.0" {
		t.Errorf("kept %q, want the non-excluded image", reg.Backends[0].Library.Identity)
	}
}

func TestClassifyInvalidExcludePatternSkipped(t *testing.T) {
	c := New(WithExclude("[")) // malformed glob
	reg := c.Classify([]types.LoadedLibrary{lib("/usr/lib/libopenblas.so.0")})
	if reg.Len() != 1 {
		t.Errorf("registry has %d backends, want 1 (bad pattern ignored)", reg.Len())
	}
}

func TestClassifyDeterministicAcrossScanOrder(t *testing.T) {
	libs := []types.LoadedLibrary{
		lib("/usr/lib/libomp.so"),
		lib("/usr/lib/libopenblas.so.0"),
		lib("/usr/lib/libgomp.so.1"),
	}
	reversed := []types.LoadedLibrary{libs[2], libs[1], libs[0]}

	c := New()
	a := c.Classify(libs)
	b := c.Classify(reversed)

	if a.Len() != b.Len() {
		t.Fatalf("registry lengths differ: %d vs %d", a.Len(), b.Len())
	}
	for i := range a.Backends {
		if a.Backends[i].Kind != b.Backends[i].Kind ||
			a.Backends[i].Library.Identity != b.Backends[i].Library.Identity {
			t.Errorf("registries diverge at %d", i)
		}
	}
}

func TestClassifyDedupSameImage(t *testing.T) {
	c := New()
	reg := c.Classify([]types.LoadedLibrary{
		lib("/usr/lib/libopenblas.so.0"),
		lib("/usr/lib/libopenblas.so.0"),
	})
	if reg.Len() != 1 {
		t.Errorf("registry has %d backends, want 1 after dedup", reg.Len())
	}
}
