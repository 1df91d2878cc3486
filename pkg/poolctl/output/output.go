// Package output provides formatters for displaying backend registries and
// conflict findings in various output formats (table, plain, json, yaml, tsv).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("table")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, result); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/poolctl/pkg/poolctl/types"
)

// Backend contains one backend's data prepared for output formatting.
type Backend struct {
	// Kind is the backend family name.
	Kind string `json:"kind" yaml:"kind"`

	// Path is the library path as reported by the loader.
	Path string `json:"path" yaml:"path"`

	// Identity is the canonicalized library path.
	Identity string `json:"identity" yaml:"identity"`

	// BaseAddr is the library base address in hex.
	BaseAddr string `json:"base_addr" yaml:"base_addr"`

	// Controllable reports whether the backend exposes a control surface.
	Controllable bool `json:"controllable" yaml:"controllable"`

	// Threads is the current thread limit, or -1 when unreadable.
	Threads int `json:"threads" yaml:"threads"`

	// Size is the on-disk library size in bytes (0 when unreadable).
	Size int64 `json:"size" yaml:"size"`

	// SizeHuman is the human-readable library size (e.g. "34 MiB").
	SizeHuman string `json:"size_human" yaml:"size_human"`
}

// Finding contains one conflict finding prepared for output formatting.
type Finding struct {
	// RuleID identifies the rule that fired.
	RuleID string `json:"rule_id" yaml:"rule_id"`

	// Severity is the finding severity name.
	Severity string `json:"severity" yaml:"severity"`

	// Libraries are the identities of the involved backends.
	Libraries []string `json:"libraries" yaml:"libraries"`

	// Hint is the remediation suggestion.
	Hint string `json:"hint" yaml:"hint"`
}

// Result contains the complete output data for formatting.
type Result struct {
	// Backends are the classified backends, in registry order.
	Backends []Backend `json:"backends" yaml:"backends"`

	// Findings are the conflict findings, in rule declaration order.
	// Nil when conflicts were not checked.
	Findings []Finding `json:"findings" yaml:"findings"`

	// RegistryID identifies the snapshot the data came from.
	RegistryID string `json:"registry_id" yaml:"registry_id"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// Platform is the os/arch the snapshot was taken on.
	Platform string `json:"platform" yaml:"platform"`
}

// FromRegistry prepares a registry and optional findings for formatting.
// Thread limits are read live from each controllable backend.
func FromRegistry(reg *types.Registry, findings []types.Finding) *Result {
	r := &Result{
		RegistryID: reg.ID,
		CreatedAt:  reg.CreatedAt,
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	for _, b := range reg.Backends {
		threads := -1
		if n, err := b.ThreadLimit(); err == nil {
			threads = n
		}

		var size int64
		sizeHuman := "-"
		if fi, err := os.Stat(b.Library.Path); err == nil {
			size = fi.Size()
			sizeHuman = humanize.IBytes(uint64(size))
		}

		r.Backends = append(r.Backends, Backend{
			Kind:         b.Kind.String(),
			Path:         b.Library.Path,
			Identity:     b.Library.Identity,
			BaseAddr:     fmt.Sprintf("0x%x", b.Library.BaseAddr),
			Controllable: b.Controllable,
			Threads:      threads,
			Size:         size,
			SizeHuman:    sizeHuman,
		})
	}

	// A non-nil empty findings slice means conflicts were checked and none
	// found; preserve that distinction for formatters.
	if findings != nil {
		r.Findings = []Finding{}
	}
	for _, f := range findings {
		var libs []string
		for _, b := range f.Backends {
			libs = append(libs, b.Library.Identity)
		}
		r.Findings = append(r.Findings, Finding{
			RuleID:    f.RuleID,
			Severity:  f.Severity.String(),
			Libraries: libs,
			Hint:      f.Hint,
		})
	}

	return r
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry.
// It will replace any existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
// It returns an error if the formatter is not found.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
