package chi

import (
	"context"

	"github.com/kailas-cloud/searchable/internal/domain/binding"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/searchable/internal/usecase/health"
)

// Searcher runs searches and counts.
type Searcher interface {
	Search(ctx context.Context, q query.Spec, p *request.Params) (result.Result, error)
	Count(ctx context.Context, q query.Spec, p *request.Params) (int64, error)
}

// Indexer sends domain objects to the backend or removes them.
type Indexer interface {
	Index(ctx context.Context, target dombulk.Target) error
	Unindex(ctx context.Context, target dombulk.Target) error
}

// Types resolves type names sent by clients.
type Types interface {
	ByName(name string) (binding.Binding, bool)
}

// HealthChecker reports dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Records persists objects and keeps them indexed.
type Records interface {
	Save(ctx context.Context, doc document.Document) error
	Get(ctx context.Context, t document.TypeID, id string) (document.Document, error)
	Remove(ctx context.Context, t document.TypeID, id string) error
}
