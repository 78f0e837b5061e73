package elastic

import (
	"encoding/json"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/search/highlight"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
)

// searchBody renders a resolved search as an Elasticsearch request body.
func searchBody(req *request.Search) map[string]any {
	body := map[string]any{
		"query":            queryClause(req.Query, req.Types),
		"from":             req.From,
		"size":             req.Size,
		"explain":          req.Explain,
		"track_total_hits": true,
		"sort":             sortClauses(req.Sort),
	}
	if req.TrackScores {
		body["track_scores"] = true
	}
	if req.Highlight != nil {
		body["highlight"] = highlightClause(req.Highlight)
	}
	return body
}

// countBody renders a resolved count as an Elasticsearch request body.
func countBody(req *request.Count) map[string]any {
	return map[string]any{"query": queryClause(req.Query, req.Types)}
}

func queryClause(q query.Compiled, types []string) any {
	var base any
	switch {
	case q.Kind() == query.KindStructured:
		base = json.RawMessage(q.Body())
	case q.IsMatchAll():
		base = map[string]any{"match_all": map[string]any{}}
	default:
		base = map[string]any{"query_string": map[string]any{"query": q.Text()}}
	}
	if len(types) == 0 {
		return base
	}
	return map[string]any{
		"bool": map[string]any{
			"must":   base,
			"filter": []any{map[string]any{"terms": map[string]any{backend.FieldDocType: types}}},
		},
	}
}

func sortClauses(clauses []sorting.Clause) []any {
	out := make([]any, 0, len(clauses))
	for _, c := range clauses {
		switch c.Kind {
		case sorting.KindScore:
			out = append(out, map[string]any{"_score": map[string]any{"order": string(c.Order)}})
		case sorting.KindField:
			out = append(out, map[string]any{c.Field: map[string]any{"order": string(c.Order)}})
		case sorting.KindGeoDistance:
			out = append(out, map[string]any{
				"_geo_distance": map[string]any{
					c.Field: map[string]any{"lat": c.Lat, "lon": c.Lon},
					"order": string(c.Order),
					"unit":  string(c.Unit),
				},
			})
		}
	}
	return out
}

func highlightClause(h *highlight.Config) map[string]any {
	fields := make(map[string]any, len(h.Fields))
	for _, f := range h.Fields {
		fields[f] = map[string]any{}
	}
	out := map[string]any{
		"fields":              fields,
		"fragment_size":       h.FragmentSize,
		"number_of_fragments": h.NumberOfFragments,
		"require_field_match": h.RequireFieldMatch,
	}
	if len(h.PreTags) > 0 {
		out["pre_tags"] = h.PreTags
		out["post_tags"] = h.PostTags
	}
	return out
}
