package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

func TestIndexMapping(t *testing.T) {
	m := indexMapping("venue.location")

	props := m["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "keyword"}, props["_doc_type"])
	venue := props["venue"].(map[string]any)["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "geo_point"}, venue["location"])

	props = indexMapping("")["mappings"].(map[string]any)["properties"].(map[string]any)
	assert.Len(t, props, 1, "no geo field mapped without a name")
}

// indexCluster answers index existence checks with exists, creates with create
// and everything else as a bulk request.
func indexCluster(exists int, create func(w http.ResponseWriter)) *fakeCluster {
	bulk := bulkResponder(func(_, _ string) int { return http.StatusCreated })
	return &fakeCluster{respond: func(w http.ResponseWriter, r *http.Request, body string) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(exists)
		case http.MethodPut:
			create(w)
		default:
			bulk(w, r, body)
		}
	}}
}

func (f *fakeCluster) byMethod(method string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recorded
	for _, r := range f.requests {
		if r.method == method {
			out = append(out, r)
		}
	}
	return out
}

func enqueuePlace(t *testing.T, b *Backend, id string) {
	t.Helper()
	doc, err := document.NewRaw(id, "BlogPost", map[string]any{
		"location": map[string]any{"lat": 52.5, "lon": 13.4},
	})
	require.NoError(t, err)
	require.NoError(t, b.EnqueueIndex(context.Background(), binding.MustNew("BlogPost", "places", "BlogPost", true), doc))
}

func TestBackend_Flush_CreatesMissingIndexWithMapping(t *testing.T) {
	f := indexCluster(http.StatusNotFound, func(w http.ResponseWriter) {
		_, _ = io.WriteString(w, `{"acknowledged":true,"index":"places"}`)
	})
	b := newTestBackend(t, f)
	ctx := context.Background()

	enqueuePlace(t, b, "p1")
	require.NoError(t, b.Flush(ctx))

	creates := f.byMethod(http.MethodPut)
	require.Len(t, creates, 1)
	assert.Equal(t, "/places", creates[0].path)

	var body struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(creates[0].body), &body))
	assert.Equal(t, "keyword", body.Mappings.Properties["_doc_type"].Type)
	assert.Equal(t, "geo_point", body.Mappings.Properties["location"].Type)

	assert.Equal(t, "/_bulk", f.last().path)

	enqueuePlace(t, b, "p2")
	require.NoError(t, b.Flush(ctx))
	assert.Len(t, f.byMethod(http.MethodHead), 1, "index checked once per backend")
	assert.Len(t, f.byMethod(http.MethodPut), 1)
}

func TestBackend_Flush_ExistingIndexIsLeftAlone(t *testing.T) {
	f := indexCluster(http.StatusOK, func(w http.ResponseWriter) {
		t.Error("existing index must not be recreated")
		w.WriteHeader(http.StatusBadRequest)
	})
	b := newTestBackend(t, f)

	enqueuePlace(t, b, "p1")
	require.NoError(t, b.Flush(context.Background()))
	assert.Empty(t, f.byMethod(http.MethodPut))
}

func TestBackend_Flush_IndexCreatedConcurrently(t *testing.T) {
	f := indexCluster(http.StatusNotFound, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"resource_already_exists_exception"},"status":400}`)
	})
	b := newTestBackend(t, f)

	enqueuePlace(t, b, "p1")
	require.NoError(t, b.Flush(context.Background()))
	assert.Equal(t, "/_bulk", f.last().path)
}

func TestBackend_Flush_CreateIndexFailure(t *testing.T) {
	f := indexCluster(http.StatusNotFound, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"type":"security_exception"},"status":403}`)
	})
	b := newTestBackend(t, f)

	enqueuePlace(t, b, "p1")
	err := b.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security_exception")
	assert.Empty(t, f.byMethod(http.MethodPost), "no bulk request after a failed create")
}

func TestBackend_Flush_DeletesDoNotCreateIndices(t *testing.T) {
	f := indexCluster(http.StatusNotFound, func(w http.ResponseWriter) {
		t.Error("delete must not create an index")
	})
	b := newTestBackend(t, f)
	ctx := context.Background()

	doc, _ := document.NewRaw("p1", "place", nil)
	require.NoError(t, b.EnqueueDelete(ctx, binding.MustNew("place", "places", "place", true), doc))
	require.NoError(t, b.Flush(ctx))
	assert.Empty(t, f.byMethod(http.MethodHead))
}
