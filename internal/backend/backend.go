// Package backend defines the wire-neutral responses search backends return.
package backend

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
)

// Reserved source fields every backend stores alongside a document.
const (
	// FieldDocType holds the document type name.
	FieldDocType = "_doc_type"
	// FieldSource holds the serialized object (bleve only; elasticsearch keeps _source).
	FieldSource = "_source"
)

// ErrNotObject is returned when a document does not serialize to a JSON object.
var ErrNotObject = errors.New("document does not encode as a JSON object")

// Searcher runs search and count requests.
type Searcher interface {
	Search(ctx context.Context, req *request.Search) (*Response, error)
	Count(ctx context.Context, req *request.Count) (*CountResponse, error)
}

// Queue collects bulk writes and transmits them on Flush.
type Queue interface {
	EnqueueIndex(ctx context.Context, b binding.Binding, doc document.Document) error
	EnqueueDelete(ctx context.Context, b binding.Binding, doc document.Document) error
	Flush(ctx context.Context) error
}

// Backend is a search engine that can both be queried and written to.
type Backend interface {
	Searcher
	Queue
	Close() error
}

// Response is a raw search response.
type Response struct {
	// TotalHits is nil when the backend did not report a total.
	TotalHits *int64
	Hits      []Hit
}

// Hit is a single raw search hit.
type Hit struct {
	Index     string
	Type      string
	ID        string
	Score     float64
	Source    json.RawMessage
	Highlight map[string][]string
}

// CountResponse is a raw count response.
type CountResponse struct {
	// Count is nil when the backend did not report a count.
	Count *int64
}

// Op names used for error context.
const (
	OpSearch = "search"
	OpCount  = "count"
	OpBulk   = "bulk"
	OpOpen   = "open"
	OpClose  = "close"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// EncodeSource serializes a document and adds the document type field.
func EncodeSource(b binding.Binding, doc document.Document) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	if fields == nil {
		return nil, ErrNotObject
	}
	fields[FieldDocType] = b.DocType()
	return fields, nil
}

// SplitSource extracts the document type field from a stored source and
// returns the source without it.
func SplitSource(raw json.RawMessage) (string, json.RawMessage, error) {
	if len(raw) == 0 {
		return "", raw, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", nil, err //nolint:wrapcheck // callers add context
	}
	docTypeRaw, ok := fields[FieldDocType]
	if !ok {
		return "", raw, nil
	}
	var docType string
	if err := json.Unmarshal(docTypeRaw, &docType); err != nil {
		return "", nil, err //nolint:wrapcheck // callers add context
	}
	delete(fields, FieldDocType)
	out, err := json.Marshal(fields)
	if err != nil {
		return "", nil, err //nolint:wrapcheck // callers add context
	}
	return docType, out, nil
}
