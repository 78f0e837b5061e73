package bulk

import (
	"context"

	"github.com/kailas-cloud/searchable/internal/domain/binding"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// Registry exposes the bindings and page size the batcher iterates over.
type Registry interface {
	ByType(t document.TypeID) (binding.Binding, bool)
	All() []binding.Binding
	MaxBulkRequest() int
}

// Source pages through every persisted record of one type.
type Source interface {
	Count(ctx context.Context) (int64, error)
	Open(ctx context.Context) (dombulk.Session, error)
}

// Sources looks up the persistence source of a type.
type Sources interface {
	Source(t document.TypeID) (Source, bool)
}

// Queue collects bulk writes and transmits them on Flush.
type Queue interface {
	EnqueueIndex(ctx context.Context, b binding.Binding, doc document.Document) error
	EnqueueDelete(ctx context.Context, b binding.Binding, doc document.Document) error
	Flush(ctx context.Context) error
}

// SourceMap is a static Sources keyed by type.
type SourceMap map[document.TypeID]Source

// Source returns the source registered for t.
func (m SourceMap) Source(t document.TypeID) (Source, bool) {
	s, ok := m[t]
	return s, ok && s != nil
}
