package records

import (
	"context"

	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// Store persists the records of one type.
type Store interface {
	Put(ctx context.Context, doc document.Document) error
	Get(ctx context.Context, id string) (document.Document, error)
	Delete(ctx context.Context, id string) error
}

// Indexer sends instances to the search backend or removes them.
type Indexer interface {
	Index(ctx context.Context, target dombulk.Target) error
	Unindex(ctx context.Context, target dombulk.Target) error
}

// StoreMap is a static set of stores keyed by type.
type StoreMap map[document.TypeID]Store
