package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/searchable/internal/domain"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	"github.com/kailas-cloud/searchable/internal/domain/search/highlight"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/scope"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest    ErrorCode = "bad_request"
	CodeUnauthorized  ErrorCode = "unauthorized"
	CodeUnknownType   ErrorCode = "unknown_type"
	CodeQueryInvalid  ErrorCode = "query_invalid"
	CodeInvalidTarget ErrorCode = "invalid_target"
	CodeNotFound      ErrorCode = "not_found"
	CodeBackendError  ErrorCode = "backend_error"
	CodeIndexingError ErrorCode = "indexing_failed"
	CodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /search and POST /count.
// Query is either a query-string text or a structured query object.
type SearchRequest struct {
	Query     json.RawMessage   `json:"query,omitempty"`
	Indices   []string          `json:"indices,omitempty"`
	Types     []string          `json:"types,omitempty"`
	From      *int              `json:"from,omitempty"`
	Size      *int              `json:"size,omitempty"`
	Explain   *bool             `json:"explain,omitempty"`
	Sort      *SortRequest      `json:"sort,omitempty"`
	Highlight *highlight.Config `json:"highlight,omitempty"`
	Score     bool              `json:"score,omitempty"`
}

// SortRequest is an additional sort criterion: a field or a distance from Geo.
type SortRequest struct {
	Field string    `json:"field,omitempty"`
	Geo   *GeoPoint `json:"geo,omitempty"`
	Order string    `json:"order,omitempty"`
	Unit  string    `json:"unit,omitempty"`
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Total      int64                 `json:"total"`
	Objects    []any                 `json:"objects"`
	Highlights []map[string][]string `json:"highlights,omitempty"`
	Scores     map[string]float64    `json:"scores,omitempty"`
}

// CountResponse is the body of a successful count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// BulkRequest is the body of POST /index and POST /unindex.
// Exactly one of All, Types or Documents must be set.
type BulkRequest struct {
	All       bool           `json:"all,omitempty"`
	Types     []string       `json:"types,omitempty"`
	Documents []DocumentItem `json:"documents,omitempty"`
}

// DocumentItem is one object of a BulkRequest. Fields are ignored on unindex.
type DocumentItem struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields,omitempty"`
}

// RecordResponse is the body of GET /records/{type}/{id}.
type RecordResponse struct {
	Type   string            `json:"type"`
	ID     string            `json:"id"`
	Object document.Document `json:"object"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// recordFromRequest builds a persistable object from a PUT /records body.
func recordFromRequest(item *DocumentItem, types Types) (document.Document, error) {
	b, ok := types.ByName(item.Type)
	if !ok {
		return nil, domain.NewUnknownType(item.Type)
	}
	doc, err := document.NewRaw(item.ID, b.Type(), item.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTarget, err)
	}
	return doc, nil
}

func queryFromRequest(raw json.RawMessage) (query.Spec, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return query.Text(""), nil
	}
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return query.Spec{}, fmt.Errorf("decode query text: %w", err)
		}
		return query.Text(text), nil
	case '{':
		var body query.Body
		if err := json.Unmarshal(raw, &body); err != nil {
			return query.Spec{}, fmt.Errorf("decode query object: %w", err)
		}
		return query.Structured(body), nil
	default:
		return query.Spec{}, errors.New("query must be a string or an object")
	}
}

func paramsFromRequest(req *SearchRequest) *request.Params {
	p := &request.Params{
		From:      req.From,
		Size:      req.Size,
		Explain:   req.Explain,
		Highlight: req.Highlight,
		Score:     req.Score,
	}
	if len(req.Indices) > 0 {
		p.Indices = scope.IndexNamed(req.Indices...)
	}
	if len(req.Types) > 0 {
		p.Types = scope.TypeNamed(req.Types...)
	}
	if req.Sort != nil {
		s := sortFromRequest(req.Sort)
		p.Sort = &s
	}
	return p
}

func sortFromRequest(s *SortRequest) sorting.Spec {
	if s.Geo != nil {
		return sorting.ByDistance(s.Geo.Lat, s.Geo.Lon, sorting.Order(s.Order), sorting.Unit(s.Unit))
	}
	return sorting.ByField(s.Field, sorting.Order(s.Order))
}

// targetFromRequest maps a bulk body to a target.
// Document items need a known type; removal only needs the id.
func targetFromRequest(req *BulkRequest, types Types) (dombulk.Target, error) {
	set := 0
	if req.All {
		set++
	}
	if len(req.Types) > 0 {
		set++
	}
	if len(req.Documents) > 0 {
		set++
	}
	if set != 1 {
		return dombulk.Target{}, fmt.Errorf("%w: exactly one of all, types or documents is required", domain.ErrInvalidTarget)
	}

	switch {
	case req.All:
		return dombulk.All(), nil
	case len(req.Types) > 0:
		ids := make([]document.TypeID, 0, len(req.Types))
		var unknown []string
		for _, name := range req.Types {
			b, ok := types.ByName(name)
			if !ok {
				unknown = append(unknown, name)
				continue
			}
			ids = append(ids, b.Type())
		}
		if len(unknown) > 0 {
			return dombulk.Target{}, domain.NewUnknownType(unknown...)
		}
		return dombulk.Subset(ids...), nil
	default:
		docs := make([]document.Document, 0, len(req.Documents))
		for i, item := range req.Documents {
			b, ok := types.ByName(item.Type)
			if !ok {
				return dombulk.Target{}, domain.NewUnknownType(item.Type)
			}
			doc, err := document.NewRaw(item.ID, b.Type(), item.Fields)
			if err != nil {
				return dombulk.Target{}, fmt.Errorf("%w: documents[%d]: %w", domain.ErrInvalidTarget, i, err)
			}
			docs = append(docs, doc)
		}
		return dombulk.Instances(docs...), nil
	}
}
