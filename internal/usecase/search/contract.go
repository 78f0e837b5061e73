package search

import (
	"context"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/scope"
)

// Resolver maps index and type specifiers to backend names.
type Resolver interface {
	Indices(spec scope.Index) []string
	Types(spec scope.Type) ([]string, error)
}

// Backend executes resolved requests.
type Backend interface {
	Search(ctx context.Context, req *request.Search) (*backend.Response, error)
	Count(ctx context.Context, req *request.Count) (*backend.CountResponse, error)
}

// Rebuilder turns raw hits back into domain objects, preserving order.
type Rebuilder interface {
	Rebuild(ctx context.Context, hits []backend.Hit) ([]any, error)
}
