package request

import (
	"github.com/kailas-cloud/searchable/internal/domain/search/highlight"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/scope"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
)

// Search parameter defaults.
const (
	DefaultFrom    = 0
	DefaultSize    = 60
	DefaultExplain = true
)

// Params are the caller-facing knobs of a search or count.
// Nil pointers mean "use the default".
type Params struct {
	Indices   scope.Index
	Types     scope.Type
	From      *int
	Size      *int
	Explain   *bool
	Sort      *sorting.Spec
	Highlight *highlight.Config
	// Score requests a hit id -> score map in the result.
	Score bool
}

// SearchType is the distributed execution strategy of a search.
type SearchType string

// DFSQueryThenFetch scores across all shards first, then fetches the final top documents.
const DFSQueryThenFetch SearchType = "dfs_query_then_fetch"

// Search is a fully resolved search request, ready for a backend.
type Search struct {
	Indices    []string
	Types      []string
	Query      query.Compiled
	From       int
	Size       int
	Explain    bool
	SearchType SearchType
	Sort       []sorting.Clause
	Highlight  *highlight.Config
	// TrackScores keeps relevance scores computed even when sorting by other criteria.
	TrackScores bool
}

// Count is a fully resolved count request.
type Count struct {
	Indices []string
	Types   []string
	Query   query.Compiled
}

// AllIndices reports whether the request addresses the wildcard index.
func AllIndices(indices []string) bool {
	return len(indices) == 0 || (len(indices) == 1 && indices[0] == scope.AllIndices)
}
