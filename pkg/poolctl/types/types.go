// Package types provides core data types for the poolctl runtime controller.
// It includes the backend kind enumeration, loaded-library snapshot entries,
// registry snapshots, conflict findings, and the sentinel errors shared by
// all poolctl packages.
package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a classified threading backend family.
type Kind int

// Backend kinds recognized by the classifier.
const (
	// KindUnknown is the zero value; libraries that classify to it are
	// never placed in a registry.
	KindUnknown Kind = iota

	// KindOpenBLAS is the OpenBLAS linear algebra library.
	KindOpenBLAS

	// KindMKL is the Intel Math Kernel Library runtime.
	KindMKL

	// KindOpenMPGNU is the GNU OpenMP runtime (libgomp).
	KindOpenMPGNU

	// KindOpenMPLLVM is the LLVM OpenMP runtime (libomp).
	KindOpenMPLLVM

	// KindOpenMPIntel is the Intel OpenMP runtime (libiomp5).
	KindOpenMPIntel
)

// String returns the canonical lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOpenBLAS:
		return "openblas"
	case KindMKL:
		return "mkl"
	case KindOpenMPGNU:
		return "openmp-gnu"
	case KindOpenMPLLVM:
		return "openmp-llvm"
	case KindOpenMPIntel:
		return "openmp-intel"
	default:
		return "unknown"
	}
}

// IsOpenMP reports whether the kind is one of the OpenMP runtime families.
func (k Kind) IsOpenMP() bool {
	return k == KindOpenMPGNU || k == KindOpenMPLLVM || k == KindOpenMPIntel
}

// IsBLAS reports whether the kind provides BLAS kernels.
func (k Kind) IsBLAS() bool {
	return k == KindOpenBLAS || k == KindMKL
}

// ErrUnknownKind indicates that a kind name could not be parsed.
var ErrUnknownKind = errors.New("unknown backend kind")

// ParseKind parses a kind name into a Kind. It accepts the canonical names
// returned by String plus common short aliases (gomp, omp, iomp).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openblas":
		return KindOpenBLAS, nil
	case "mkl":
		return KindMKL, nil
	case "openmp-gnu", "gomp":
		return KindOpenMPGNU, nil
	case "openmp-llvm", "omp":
		return KindOpenMPLLVM, nil
	case "openmp-intel", "iomp":
		return KindOpenMPIntel, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Sentinel errors for control-surface operations.
var (
	// ErrUnsupported indicates the backend was observed but exposes no
	// usable control surface.
	ErrUnsupported = errors.New("backend is not controllable")

	// ErrInvalidThreadCount indicates a thread count below 1.
	ErrInvalidThreadCount = errors.New("thread count must be at least 1")

	// ErrUnsupportedPlatform indicates the platform provides no way to
	// enumerate mapped libraries or resolve their symbols.
	ErrUnsupportedPlatform = errors.New("platform not supported")

	// ErrNoBackend indicates a selector matched no backend in the registry.
	ErrNoBackend = errors.New("no backend matches selector")
)

// LoadedLibrary describes one shared object mapped into the process.
// Entries are immutable snapshot values re-derived on each scan.
type LoadedLibrary struct {
	// Path is the library path as reported by the loader.
	Path string `json:"path" yaml:"path"`

	// BaseAddr is the lowest mapped address of the library image.
	BaseAddr uintptr `json:"base_addr" yaml:"base_addr"`

	// Identity is the canonicalized path used for deduplication.
	Identity string `json:"identity" yaml:"identity"`
}

// ScanError records a per-entry failure during library enumeration.
// Scan errors are informational; they never abort a scan.
type ScanError struct {
	// Path is the entry that could not be read.
	Path string `json:"path" yaml:"path"`

	// Err is the error message describing what went wrong.
	Err string `json:"error" yaml:"error"`
}

// ControlSurface is the resolved get/set entry-point pair a controllable
// backend exposes for its thread-count configuration.
type ControlSurface interface {
	// ThreadLimit returns the backend's current thread limit.
	ThreadLimit() (int, error)

	// SetThreadLimit sets the backend's thread limit. The change is a
	// process-wide side effect: the native library keeps one shared counter.
	SetThreadLimit(n int) error
}

// Backend is one classified threading backend within a registry snapshot.
type Backend struct {
	// Kind is the classified backend family.
	Kind Kind `json:"kind" yaml:"kind"`

	// Library is the shared object the backend was classified from.
	Library LoadedLibrary `json:"library" yaml:"library"`

	// Controllable reports whether both get and set entry points resolved.
	Controllable bool `json:"controllable" yaml:"controllable"`

	surface ControlSurface
}

// AttachSurface installs the resolved control surface. A nil surface marks
// the backend observation-only.
func (b *Backend) AttachSurface(s ControlSurface) {
	b.surface = s
	b.Controllable = s != nil
}

// ThreadLimit returns the backend's current thread limit.
// It fails with ErrUnsupported for observation-only backends.
func (b *Backend) ThreadLimit() (int, error) {
	if b.surface == nil {
		return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupported, b.Kind, b.Library.Identity)
	}
	return b.surface.ThreadLimit()
}

// SetThreadLimit sets the backend's thread limit.
// It fails with ErrInvalidThreadCount for n < 1 and ErrUnsupported for
// observation-only backends. Failures are always surfaced; silently dropping
// a set could mislead the caller into assuming a limit took effect.
func (b *Backend) SetThreadLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidThreadCount, n)
	}
	if b.surface == nil {
		return fmt.Errorf("%w: %s (%s)", ErrUnsupported, b.Kind, b.Library.Identity)
	}
	return b.surface.SetThreadLimit(n)
}

// Registry is an immutable snapshot of the threading backends classified
// from one scan. A fresh scan produces a new registry; registries are never
// updated in place and may be shared for reads across goroutines.
type Registry struct {
	// ID uniquely identifies this snapshot.
	ID string `json:"id" yaml:"id"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Backends is the ordered backend list, unique by (kind, identity),
	// sorted by kind then identity.
	Backends []*Backend `json:"backends" yaml:"backends"`
}

// NewRegistry builds a registry snapshot from classified backends.
// Duplicates by (kind, identity) are collapsed to the first occurrence and
// the result is sorted by (kind, identity), so registry contents and order
// are deterministic regardless of scan order.
func NewRegistry(backends []*Backend) *Registry {
	type key struct {
		kind     Kind
		identity string
	}

	seen := make(map[key]bool, len(backends))
	unique := make([]*Backend, 0, len(backends))
	for _, b := range backends {
		k := key{b.Kind, b.Library.Identity}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, b)
	}

	sort.Slice(unique, func(i, j int) bool {
		if unique[i].Kind != unique[j].Kind {
			return unique[i].Kind < unique[j].Kind
		}
		return unique[i].Library.Identity < unique[j].Library.Identity
	})

	return &Registry{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Backends:  unique,
	}
}

// Len returns the number of backends in the registry.
func (r *Registry) Len() int {
	return len(r.Backends)
}

// ByKind returns all backends of the given kind, in registry order.
func (r *Registry) ByKind(k Kind) []*Backend {
	var out []*Backend
	for _, b := range r.Backends {
		if b.Kind == k {
			out = append(out, b)
		}
	}
	return out
}

// Kinds returns the distinct kinds present, in registry order.
func (r *Registry) Kinds() []Kind {
	var out []Kind
	seen := make(map[Kind]bool)
	for _, b := range r.Backends {
		if !seen[b.Kind] {
			seen[b.Kind] = true
			out = append(out, b.Kind)
		}
	}
	return out
}

// Controllable returns the backends with a resolved control surface.
func (r *Registry) Controllable() []*Backend {
	var out []*Backend
	for _, b := range r.Backends {
		if b.Controllable {
			out = append(out, b)
		}
	}
	return out
}

// Severity classifies how serious a conflict finding is.
type Severity int

// Finding severities from least to most severe.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Finding is one conflict-rule match over a registry snapshot.
type Finding struct {
	// RuleID identifies the rule that fired.
	RuleID string `json:"rule_id" yaml:"rule_id"`

	// Severity is the declared severity of the rule.
	Severity Severity `json:"severity" yaml:"severity"`

	// Backends are the backends involved in the conflict, in registry order.
	Backends []*Backend `json:"backends" yaml:"backends"`

	// Hint is a remediation suggestion. The detector never applies it;
	// detection and action are separate concerns.
	Hint string `json:"hint" yaml:"hint"`
}
