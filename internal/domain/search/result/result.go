package result

// Result is the normalized outcome of a search.
type Result struct {
	total      int64
	objects    []any
	highlights []map[string][]string
	scores     map[string]float64
}

// New creates a search result. highlights and scores are nil when not requested.
func New(total int64, objects []any, highlights []map[string][]string, scores map[string]float64) Result {
	if objects == nil {
		objects = []any{}
	}
	return Result{total: total, objects: objects, highlights: highlights, scores: scores}
}

// Total returns the number of documents matching the query.
func (r *Result) Total() int64 { return r.total }

// Objects returns the rebuilt domain objects in backend hit order.
func (r *Result) Objects() []any { return r.objects }

// Highlights returns per-hit highlight fragments, parallel to Objects.
func (r *Result) Highlights() []map[string][]string { return r.highlights }

// Scores returns hit id -> relevance score.
func (r *Result) Scores() map[string]float64 { return r.scores }

// HasHighlights reports whether highlighting was requested.
func (r *Result) HasHighlights() bool { return r.highlights != nil }

// HasScores reports whether score reporting was requested.
func (r *Result) HasScores() bool { return r.scores != nil }
