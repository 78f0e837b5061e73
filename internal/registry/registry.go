// Package registry maps domain types to their index bindings and document factories.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// DefaultMaxBulkRequest is the default number of records per bulk page.
const DefaultMaxBulkRequest = 500

// Factory creates an empty document of a registered type for rebuilding hits.
type Factory = func() document.Document

type entry struct {
	binding binding.Binding
	factory Factory
}

// Registry is a thread-safe in-memory type registry.
type Registry struct {
	mu             sync.RWMutex
	byType         map[document.TypeID]entry
	byDocType      map[string]document.TypeID
	maxBulkRequest int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byType:         make(map[document.TypeID]entry),
		byDocType:      make(map[string]document.TypeID),
		maxBulkRequest: DefaultMaxBulkRequest,
	}
}

// WithMaxBulkRequest configures the bulk page size. Non-positive values are ignored.
func (r *Registry) WithMaxBulkRequest(n int) *Registry {
	if n > 0 {
		r.mu.Lock()
		r.maxBulkRequest = n
		r.mu.Unlock()
	}
	return r
}

// Register binds a type. factory may be nil for types that are only written, never rebuilt.
func (r *Registry) Register(b binding.Binding, factory Factory) error {
	if b.Type() == "" {
		return errors.New("binding has no type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byType[b.Type()]; ok {
		return fmt.Errorf("type %q already registered", b.Type())
	}
	if other, ok := r.byDocType[b.DocType()]; ok {
		return fmt.Errorf("document type %q already bound to %q", b.DocType(), other)
	}
	r.byType[b.Type()] = entry{binding: b, factory: factory}
	r.byDocType[b.DocType()] = b.Type()
	return nil
}

// MustRegister calls Register and panics on error.
func (r *Registry) MustRegister(b binding.Binding, factory Factory) {
	if err := r.Register(b, factory); err != nil {
		panic(err)
	}
}

// ByType returns the binding of a type.
func (r *Registry) ByType(t document.TypeID) (binding.Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byType[t]
	return e.binding, ok
}

// ByName resolves a type id first, then a document type name.
func (r *Registry) ByName(name string) (binding.Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.byType[document.TypeID(name)]; ok {
		return e.binding, true
	}
	if t, ok := r.byDocType[name]; ok {
		return r.byType[t].binding, true
	}
	return binding.Binding{}, false
}

// All returns every binding ordered by type id.
func (r *Registry) All() []binding.Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]binding.Binding, 0, len(r.byType))
	for _, e := range r.byType {
		out = append(out, e.binding)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type() < out[j].Type() })
	return out
}

// Factory returns the document factory of a document type name.
func (r *Registry) Factory(docType string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byDocType[docType]
	if !ok {
		return nil, false
	}
	f := r.byType[t].factory
	return f, f != nil
}

// MaxBulkRequest returns the bulk page size.
func (r *Registry) MaxBulkRequest() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxBulkRequest
}
