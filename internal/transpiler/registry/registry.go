// Package registry remembers interface definitions annotated with
// //enumwrap:impl so that a later union declaration, possibly in another
// file, can auto-implement them by name.
//
// The registry bridges two declaration sites that never see each other: the
// interface is captured verbatim when it is registered and re-parsed from
// that text when a union asks for it.
package registry

import (
	"go/ast"
	"sort"
	"sync"

	"martianoff/enumwrap/internal/logger"
)

// Record is a captured interface definition.
type Record struct {
	Name       string   // Interface name: "Speaker"
	Text       string   // Re-serialized declaration: "type Speaker interface { ... }"
	TypeParams int      // Number of type parameters on the interface
	Methods    []string // Method names in declaration order
}

// InterfaceRegistry maps interface names to their captured definitions.
//
// Thread-safe: all methods can be called concurrently. The lock is held for a
// single insert or lookup only.
type InterfaceRegistry struct {
	mu sync.Mutex

	// poisoned is set when a panic unwound through a critical section. The
	// next user clears it and carries on with whatever data was left.
	poisoned bool

	records map[string]Record
}

// New creates an empty interface registry.
func New() *InterfaceRegistry {
	return &InterfaceRegistry{
		records: make(map[string]Record),
	}
}

// Global is the process-wide registry used when no explicit registry is
// configured. It lives until the process exits.
var Global = New()

// critical runs fn with the lock held. A panic inside fn poisons the
// registry and keeps unwinding to the caller that caused it.
func (r *InterfaceRegistry) critical(fn func(records map[string]Record)) {
	r.mu.Lock()
	if r.poisoned {
		r.poisoned = false
		logger.Warnw("interface registry recovered after a panic in a previous critical section",
			"entries", len(r.records))
	}
	done := false
	defer func() {
		if !done {
			r.poisoned = true
		}
		r.mu.Unlock()
	}()
	fn(r.records)
	done = true
}

// Register stores the interface declared by spec under its name and returns
// spec unchanged, so the declaration still compiles at its original site.
// A later registration of the same name silently replaces the earlier one.
func (r *InterfaceRegistry) Register(spec *ast.TypeSpec, text string) *ast.TypeSpec {
	rec := Record{
		Name:       spec.Name.Name,
		Text:       text,
		TypeParams: countTypeParams(spec.TypeParams),
		Methods:    methodNames(spec),
	}
	replaced := false
	r.critical(func(records map[string]Record) {
		_, replaced = records[rec.Name]
		records[rec.Name] = rec
	})
	logger.Debugw("registered interface", "name", rec.Name, "methods", len(rec.Methods), "replaced", replaced)
	return spec
}

// Lookup returns the captured text for name.
func (r *InterfaceRegistry) Lookup(name string) (string, bool) {
	rec, ok := r.Get(name)
	return rec.Text, ok
}

// Get returns the full record for name.
func (r *InterfaceRegistry) Get(name string) (Record, bool) {
	var (
		rec Record
		ok  bool
	)
	r.critical(func(records map[string]Record) {
		rec, ok = records[name]
	})
	return rec, ok
}

// Records returns a snapshot of all records sorted by name.
func (r *InterfaceRegistry) Records() []Record {
	var result []Record
	r.critical(func(records map[string]Record) {
		result = make([]Record, 0, len(records))
		for _, rec := range records {
			result = append(result, rec)
		}
	})
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Len returns the number of registered interfaces.
func (r *InterfaceRegistry) Len() int {
	n := 0
	r.critical(func(records map[string]Record) {
		n = len(records)
	})
	return n
}

// Reset clears all records.
func (r *InterfaceRegistry) Reset() {
	r.critical(func(records map[string]Record) {
		clear(records)
	})
}

func countTypeParams(params *ast.FieldList) int {
	if params == nil {
		return 0
	}
	n := 0
	for _, field := range params.List {
		n += len(field.Names)
	}
	return n
}

func methodNames(spec *ast.TypeSpec) []string {
	it, ok := spec.Type.(*ast.InterfaceType)
	if !ok || it.Methods == nil {
		return nil
	}
	var names []string
	for _, field := range it.Methods.List {
		for _, n := range field.Names {
			names = append(names, n.Name)
		}
	}
	return names
}
