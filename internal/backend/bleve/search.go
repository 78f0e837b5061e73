package bleve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/search/highlight"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
)

// Search runs a search across the addressed indices. Missing indices are ignored.
func (s *Store) Search(ctx context.Context, req *request.Search) (*backend.Response, error) {
	q, err := buildQuery(req.Query, req.Types)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpSearch, Err: err}
	}
	sr := bleve.NewSearchRequestOptions(q, req.Size, req.From, req.Explain)
	sr.Fields = []string{backend.FieldSource, backend.FieldDocType}

	order, err := sortOrder(req.Sort)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpSearch, Err: err}
	}
	if len(order) > 0 {
		sr.SortByCustom(order)
	}
	if req.Highlight != nil {
		sr.Highlight = highlightRequest(req.Highlight)
	}

	res, err := s.run(ctx, req.Indices, sr)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpSearch, Err: err}
	}
	if res == nil {
		zero := int64(0)
		return &backend.Response{TotalHits: &zero}, nil
	}

	total := int64(res.Total) //nolint:gosec // hit totals fit in int64
	out := &backend.Response{TotalHits: &total, Hits: make([]backend.Hit, 0, len(res.Hits))}
	for _, h := range res.Hits {
		out.Hits = append(out.Hits, toHit(h, req.Highlight != nil))
	}
	return out, nil
}

// Count counts matching documents across the addressed indices.
func (s *Store) Count(ctx context.Context, req *request.Count) (*backend.CountResponse, error) {
	q, err := buildQuery(req.Query, req.Types)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpCount, Err: err}
	}
	sr := bleve.NewSearchRequestOptions(q, 0, 0, false)

	res, err := s.run(ctx, req.Indices, sr)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpCount, Err: err}
	}
	count := int64(0)
	if res != nil {
		count = int64(res.Total) //nolint:gosec // hit totals fit in int64
	}
	return &backend.CountResponse{Count: &count}, nil
}

// run executes sr on the addressed indices. It returns nil when none of them exist.
func (s *Store) run(ctx context.Context, names []string, sr *bleve.SearchRequest) (*bleve.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var targets []bleve.Index
	if request.AllIndices(names) {
		for _, idx := range s.indices {
			targets = append(targets, idx)
		}
	} else {
		for _, name := range names {
			if idx, ok := s.indices[name]; ok {
				targets = append(targets, idx)
			}
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	alias := bleve.NewIndexAlias(targets...)
	res, err := alias.SearchInContext(ctx, sr)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}
	return res, nil
}

func buildQuery(q query.Compiled, types []string) (blevequery.Query, error) {
	var base blevequery.Query
	switch {
	case q.Kind() == query.KindStructured:
		parsed, err := blevequery.ParseQuery(q.Body())
		if err != nil {
			return nil, fmt.Errorf("parse structured query: %w", err)
		}
		base = parsed
	case q.IsMatchAll():
		base = bleve.NewMatchAllQuery()
	default:
		base = bleve.NewQueryStringQuery(q.Text())
	}
	if len(types) == 0 {
		return base, nil
	}

	byType := make([]blevequery.Query, 0, len(types))
	for _, t := range types {
		tq := bleve.NewTermQuery(t)
		tq.SetField(backend.FieldDocType)
		byType = append(byType, tq)
	}
	return bleve.NewConjunctionQuery(base, bleve.NewDisjunctionQuery(byType...)), nil
}

func sortOrder(clauses []sorting.Clause) (search.SortOrder, error) {
	order := make(search.SortOrder, 0, len(clauses))
	for _, c := range clauses {
		desc := c.Order == sorting.Desc
		switch c.Kind {
		case sorting.KindScore:
			order = append(order, &search.SortScore{Desc: desc})
		case sorting.KindField:
			order = append(order, &search.SortField{Field: c.Field, Desc: desc})
		case sorting.KindGeoDistance:
			gd, err := search.NewSortGeoDistance(c.Field, string(c.Unit), c.Lon, c.Lat, desc)
			if err != nil {
				return nil, fmt.Errorf("geo distance sort: %w", err)
			}
			order = append(order, gd)
		}
	}
	return order, nil
}

// highlightRequest maps the highlight fields. Fragment size and tags use bleve's defaults.
func highlightRequest(h *highlight.Config) *bleve.HighlightRequest {
	hr := bleve.NewHighlight()
	for _, f := range h.Fields {
		if f == "*" {
			continue
		}
		hr.AddField(f)
	}
	return hr
}

func toHit(h *search.DocumentMatch, withHighlight bool) backend.Hit {
	hit := backend.Hit{Index: h.Index, ID: h.ID, Score: h.Score}
	if v, ok := h.Fields[backend.FieldDocType].(string); ok {
		hit.Type = v
	}
	if v, ok := h.Fields[backend.FieldSource].(string); ok {
		hit.Source = json.RawMessage(v)
	}
	if withHighlight {
		hit.Highlight = make(map[string][]string, len(h.Fragments))
		for field, fragments := range h.Fragments {
			if field == backend.FieldSource {
				continue
			}
			hit.Highlight[field] = fragments
		}
	}
	return hit
}
