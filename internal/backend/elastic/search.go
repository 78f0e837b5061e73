package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
)

type searchResponse struct {
	Hits struct {
		Total *struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Index     string              `json:"_index"`
			ID        string              `json:"_id"`
			Score     *float64            `json:"_score"`
			Source    json.RawMessage     `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count *int64 `json:"count"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// Search runs a two-phase search.
func (b *Backend) Search(ctx context.Context, req *request.Search) (*backend.Response, error) {
	body, err := encode(searchBody(req))
	if err != nil {
		return nil, &backend.Error{Op: backend.OpSearch, Err: err}
	}

	res, err := b.es.Search(
		b.es.Search.WithContext(ctx),
		b.es.Search.WithIndex(req.Indices...),
		b.es.Search.WithSearchType(string(req.SearchType)),
		b.es.Search.WithIgnoreUnavailable(true),
		b.es.Search.WithAllowNoIndices(true),
		b.es.Search.WithBody(body),
	)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpSearch, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, &backend.Error{Op: backend.OpSearch, Err: responseError(res)}
	}

	var raw searchResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, &backend.Error{Op: backend.OpSearch, Err: fmt.Errorf("decode response: %w", err)}
	}

	out := &backend.Response{Hits: make([]backend.Hit, 0, len(raw.Hits.Hits))}
	if raw.Hits.Total != nil {
		total := raw.Hits.Total.Value
		out.TotalHits = &total
	}
	for _, h := range raw.Hits.Hits {
		docType, source, err := backend.SplitSource(h.Source)
		if err != nil {
			return nil, &backend.Error{Op: backend.OpSearch, Err: fmt.Errorf("decode hit %s: %w", h.ID, err)}
		}
		hit := backend.Hit{
			Index:     h.Index,
			Type:      docType,
			ID:        h.ID,
			Source:    source,
			Highlight: h.Highlight,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// Count counts matching documents.
func (b *Backend) Count(ctx context.Context, req *request.Count) (*backend.CountResponse, error) {
	body, err := encode(countBody(req))
	if err != nil {
		return nil, &backend.Error{Op: backend.OpCount, Err: err}
	}

	res, err := b.es.Count(
		b.es.Count.WithContext(ctx),
		b.es.Count.WithIndex(req.Indices...),
		b.es.Count.WithIgnoreUnavailable(true),
		b.es.Count.WithAllowNoIndices(true),
		b.es.Count.WithBody(body),
	)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpCount, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, &backend.Error{Op: backend.OpCount, Err: responseError(res)}
	}

	var raw countResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, &backend.Error{Op: backend.OpCount, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &backend.CountResponse{Count: raw.Count}, nil
}

func encode(body map[string]any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return &buf, nil
}

func responseError(res *esapi.Response) error {
	var e errorResponse
	if err := json.NewDecoder(res.Body).Decode(&e); err != nil || e.Error.Type == "" {
		return fmt.Errorf("elasticsearch: %s", res.Status())
	}
	return fmt.Errorf("elasticsearch: %s: %s: %s", res.Status(), e.Error.Type, e.Error.Reason)
}
