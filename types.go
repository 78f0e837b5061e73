package searchable

import (
	"github.com/kailas-cloud/searchable/internal/domain"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	"github.com/kailas-cloud/searchable/internal/domain/search/highlight"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/result"
	"github.com/kailas-cloud/searchable/internal/domain/search/scope"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
	bulkuc "github.com/kailas-cloud/searchable/internal/usecase/bulk"
)

type (
	// Document is a domain object that can be sent to the search backend.
	Document = document.Document
	// TypeID names a registered domain type.
	TypeID = document.TypeID
	// RawDocument is a schemaless document with a free-form field map.
	RawDocument = document.Raw

	// Query is a query-string text or a structured query body.
	Query = query.Spec
	// QueryBody is a structured query in the backend's native format.
	QueryBody = query.Body

	// SearchParams are the optional knobs of Search and CountHits.
	SearchParams = request.Params
	// SearchResult is the normalized outcome of a search.
	SearchResult = result.Result
	// Sort is an additional sort criterion appended after relevance.
	Sort = sorting.Spec
	// SortOrder is a sort direction.
	SortOrder = sorting.Order
	// DistanceUnit is the unit of a geo-distance sort.
	DistanceUnit = sorting.Unit
	// Highlight configures highlight fragments.
	Highlight = highlight.Config
	// IndexScope selects the search indices.
	IndexScope = scope.Index
	// TypeScope restricts hits to document types.
	TypeScope = scope.Type

	// Target selects what Index and Unindex operate on.
	Target = dombulk.Target
	// Session is a page-scoped read session of a Source.
	Session = dombulk.Session
	// Source pages through the persisted objects of one type.
	Source = bulkuc.Source
)

// Sort directions and distance units.
const (
	Asc  = sorting.Asc
	Desc = sorting.Desc

	Meters     = sorting.Meters
	Kilometers = sorting.Kilometers
	Miles      = sorting.Miles
	Yards      = sorting.Yards
	Feet       = sorting.Feet
)

// Errors returned by the Client. Use errors.Is / errors.As.
var (
	ErrUnknownType   = domain.ErrUnknownType
	ErrQueryBuild    = domain.ErrQueryBuild
	ErrIndexing      = domain.ErrIndexing
	ErrBackendCall   = domain.ErrBackendCall
	ErrInvalidTarget = domain.ErrInvalidTarget
	ErrRebuild       = domain.ErrRebuild
)

type (
	// UnknownTypeError lists explicitly requested types with no binding.
	UnknownTypeError = domain.UnknownTypeError
	// QueryBuildError names the malformed part of a request.
	QueryBuildError = domain.QueryBuildError
	// IndexingError names the type and stage of a failed bulk run.
	IndexingError = domain.IndexingError
	// BackendCallError names the failed backend operation.
	BackendCallError = domain.BackendCallError
)

// Query constructors.
var (
	Text       = query.Text
	Structured = query.Structured
)

// Sort constructors.
var (
	ByField    = sorting.ByField
	ByDistance = sorting.ByDistance
)

// Scope constructors. The zero IndexScope and TypeScope are unrestricted.
var (
	AllIndices = scope.Indices
	IndexNamed = scope.IndexNamed
	IndexOf    = scope.IndexOf
	AnyType    = scope.AnyType
	TypeNamed  = scope.TypeNamed
	TypeOf     = scope.TypeOf
)

// Target constructors.
var (
	All       = dombulk.All
	Subset    = dombulk.Subset
	Instances = dombulk.Instances
)

// NewRawDocument creates a schemaless document.
func NewRawDocument(id string, t TypeID, fields map[string]any) (*RawDocument, error) {
	return document.NewRaw(id, t, fields)
}

// RawFactory returns a constructor of empty RawDocuments, for types without a Go struct.
func RawFactory(t TypeID) func() Document {
	return document.RawFactory(t)
}

// Int returns a pointer to v, for SearchParams fields.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for SearchParams fields.
func Bool(v bool) *bool { return &v }

// NewUnknownTypeError creates an error matching ErrUnknownType.
func NewUnknownTypeError(names ...string) error {
	return domain.NewUnknownType(names...)
}
