package bulk

import (
	"context"

	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// Operation is the kind of bulk write sent to the backend.
type Operation string

// Bulk operations.
const (
	OpIndex  Operation = "index"
	OpDelete Operation = "delete"
)

// IsValid reports whether op is a known operation.
func (op Operation) IsValid() bool { return op == OpIndex || op == OpDelete }

// Shape tells which form of a Target is active.
type Shape int

const (
	// ShapeUnset is the zero Target; it is rejected rather than treated as "all".
	ShapeUnset Shape = iota
	// ShapeAll targets every registered type.
	ShapeAll
	// ShapeSubset targets an explicit list of types.
	ShapeSubset
	// ShapeInstances targets an explicit list of objects.
	ShapeInstances
)

// Target is what an index or unindex call operates on.
type Target struct {
	shape     Shape
	types     []document.TypeID
	instances []document.Document
}

// All targets every type in the registry.
func All() Target { return Target{shape: ShapeAll} }

// Subset targets the given types. An empty subset does nothing.
func Subset(types ...document.TypeID) Target { return Target{shape: ShapeSubset, types: types} }

// Instances targets the given objects.
func Instances(docs ...document.Document) Target {
	return Target{shape: ShapeInstances, instances: docs}
}

// Shape returns the active form.
func (t Target) Shape() Shape { return t.shape }

// Types returns the subset types.
func (t Target) Types() []document.TypeID { return t.types }

// Instances returns the targeted objects.
func (t Target) Instances() []document.Document { return t.instances }

// BatchCount returns how many pages of size batchSize cover total records.
func BatchCount(total int64, batchSize int) int {
	if total <= 0 || batchSize <= 0 {
		return 0
	}
	return int((total + int64(batchSize) - 1) / int64(batchSize))
}

// Page is one bounded window of a type's record set.
type Page struct {
	Offset int
	Limit  int
}

// Pages splits total records into bounded windows of at most batchSize.
func Pages(total int64, batchSize int) []Page {
	n := BatchCount(total, batchSize)
	pages := make([]Page, 0, n)
	for i := range n {
		offset := i * batchSize
		limit := batchSize
		if rest := total - int64(offset); rest < int64(limit) {
			limit = int(rest)
		}
		pages = append(pages, Page{Offset: offset, Limit: limit})
	}
	return pages
}

// Session is a page-scoped unit of work against a persistence store.
// It is opened for one page and closed on every exit path.
type Session interface {
	Fetch(ctx context.Context, offset, limit int) ([]document.Document, error)
	Close() error
}
