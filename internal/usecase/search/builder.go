package search

import (
	"errors"

	"github.com/kailas-cloud/searchable/internal/domain"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
)

// Builder turns a query and loosely specified params into backend requests.
type Builder struct {
	resolver    Resolver
	geoField    string
	defaultSize int
}

// NewBuilder creates a request builder. geoField is the geo-point path distance sorts use.
func NewBuilder(resolver Resolver, geoField string) *Builder {
	if geoField == "" {
		geoField = sorting.DefaultGeoField
	}
	return &Builder{resolver: resolver, geoField: geoField, defaultSize: request.DefaultSize}
}

// WithDefaultSize overrides the page size used when params omit one.
func (b *Builder) WithDefaultSize(size int) *Builder {
	if size > 0 {
		b.defaultSize = size
	}
	return b
}

// Count builds a count request: scope and query only.
func (b *Builder) Count(q query.Spec, p *request.Params) (*request.Count, error) {
	if p == nil {
		p = &request.Params{}
	}
	indices, types, err := b.scope(p)
	if err != nil {
		return nil, err
	}
	compiled, err := q.Compile()
	if err != nil {
		return nil, domain.NewQueryBuild("query", err)
	}
	return &request.Count{Indices: indices, Types: types, Query: compiled}, nil
}

// Search builds a two-phase search request with score-first sorting.
func (b *Builder) Search(q query.Spec, p *request.Params) (*request.Search, error) {
	if p == nil {
		p = &request.Params{}
	}
	indices, types, err := b.scope(p)
	if err != nil {
		return nil, err
	}

	req := &request.Search{
		Indices:     indices,
		Types:       types,
		From:        request.DefaultFrom,
		Size:        b.defaultSize,
		Explain:     request.DefaultExplain,
		SearchType:  request.DFSQueryThenFetch,
		Sort:        []sorting.Clause{sorting.Score()},
		TrackScores: p.Score,
	}
	if p.From != nil {
		if *p.From < 0 {
			return nil, domain.NewQueryBuild("from", errors.New("must not be negative"))
		}
		req.From = *p.From
	}
	if p.Size != nil {
		if *p.Size < 0 {
			return nil, domain.NewQueryBuild("size", errors.New("must not be negative"))
		}
		req.Size = *p.Size
	}
	if p.Explain != nil {
		req.Explain = *p.Explain
	}

	if p.Sort != nil {
		clause, err := p.Sort.Clause(b.geoField)
		if err != nil {
			return nil, domain.NewQueryBuild("sort", err)
		}
		req.Sort = append(req.Sort, clause)
	}

	req.Query, err = q.Compile()
	if err != nil {
		return nil, domain.NewQueryBuild("query", err)
	}

	if p.Highlight != nil {
		hl, err := p.Highlight.Normalize()
		if err != nil {
			return nil, domain.NewQueryBuild("highlight", err)
		}
		req.Highlight = &hl
	}

	return req, nil
}

func (b *Builder) scope(p *request.Params) ([]string, []string, error) {
	indices := b.resolver.Indices(p.Indices)
	types, err := b.resolver.Types(p.Types)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // UnknownTypeError is returned as-is
	}
	return indices, types, nil
}
