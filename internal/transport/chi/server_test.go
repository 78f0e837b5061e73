package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/domain"
	"github.com/kailas-cloud/searchable/internal/domain/binding"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/result"
	"github.com/kailas-cloud/searchable/internal/domain/search/scope"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
	healthuc "github.com/kailas-cloud/searchable/internal/usecase/health"
)

// --- Mocks ---

type mockSearcher struct {
	res    result.Result
	count  int64
	err    error
	query  query.Spec
	params *request.Params
}

func (m *mockSearcher) Search(_ context.Context, q query.Spec, p *request.Params) (result.Result, error) {
	m.query, m.params = q, p
	return m.res, m.err
}

func (m *mockSearcher) Count(_ context.Context, q query.Spec, p *request.Params) (int64, error) {
	m.query, m.params = q, p
	return m.count, m.err
}

type mockIndexer struct {
	op     string
	target dombulk.Target
	err    error
}

func (m *mockIndexer) Index(_ context.Context, t dombulk.Target) error {
	m.op, m.target = "index", t
	return m.err
}

func (m *mockIndexer) Unindex(_ context.Context, t dombulk.Target) error {
	m.op, m.target = "unindex", t
	return m.err
}

type mockTypes map[string]binding.Binding

func (m mockTypes) ByName(name string) (binding.Binding, bool) {
	b, ok := m[name]
	return b, ok
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockRecords struct {
	saved   document.Document
	removed string
	doc     document.Document
	err     error
}

func (m *mockRecords) Save(_ context.Context, doc document.Document) error {
	m.saved = doc
	return m.err
}

func (m *mockRecords) Get(_ context.Context, t document.TypeID, id string) (document.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

func (m *mockRecords) Remove(_ context.Context, t document.TypeID, id string) error {
	m.removed = string(t) + "/" + id
	return m.err
}

// --- Helpers ---

type fixture struct {
	search  *mockSearcher
	indexer *mockIndexer
	health  *mockHealth
	records *mockRecords
	router  chi.Router
}

func newFixture() *fixture {
	f := &fixture{
		search:  &mockSearcher{},
		indexer: &mockIndexer{},
		records: &mockRecords{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"backend": healthuc.CheckOK},
		}},
	}
	types := mockTypes{
		"place": binding.MustNew("place", "places", "place", true),
		"event": binding.MustNew("event", "events", "event", true),
	}
	srv := NewServer(f.search, f.indexer, types, f.health, zap.NewNop()).WithRecords(f.records)
	f.router = chi.NewRouter()
	srv.Routes(f.router)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --- Search ---

func TestSearch_TextQuery(t *testing.T) {
	f := newFixture()
	f.search.res = result.New(2, []any{map[string]any{"id": "1"}, map[string]any{"id": "2"}}, nil, nil)

	rr := f.do(t, http.MethodPost, "/search", `{"query":"coffee","types":["place"],"size":10}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Objects) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Highlights != nil || resp.Scores != nil {
		t.Errorf("expected no extras, got %+v", resp)
	}

	if f.search.query.Kind() != query.KindText || f.search.query.Text() != "coffee" {
		t.Errorf("query = %+v", f.search.query)
	}
	p := f.search.params
	if p.Size == nil || *p.Size != 10 {
		t.Errorf("size = %v", p.Size)
	}
	if p.From != nil || p.Explain != nil {
		t.Error("expected unset from and explain to stay nil")
	}
	if p.Types.Form() != scope.FormNamed || p.Types.Names()[0] != "place" {
		t.Errorf("types = %+v", p.Types)
	}
	if p.Indices.Form() != scope.Indices().Form() {
		t.Errorf("expected wildcard indices, got %+v", p.Indices)
	}
}

func TestSearch_StructuredQueryAndSort(t *testing.T) {
	f := newFixture()

	body := `{
		"query": {"match": {"name": "blue"}},
		"indices": ["places"],
		"sort": {"geo": {"lat": 52.52, "lon": 13.40}, "unit": "km"},
		"highlight": {"fields": ["name"]},
		"score": true
	}`
	rr := f.do(t, http.MethodPost, "/search", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if f.search.query.Kind() != query.KindStructured {
		t.Fatalf("expected structured query, got %v", f.search.query.Kind())
	}
	if _, ok := f.search.query.Body()["match"]; !ok {
		t.Errorf("body = %v", f.search.query.Body())
	}
	p := f.search.params
	if p.Sort == nil || p.Sort.Kind() != sorting.KindGeoDistance {
		t.Fatalf("sort = %+v", p.Sort)
	}
	clause, err := p.Sort.Clause("location")
	if err != nil {
		t.Fatalf("clause: %v", err)
	}
	if clause.Lat != 52.52 || clause.Lon != 13.40 || clause.Unit != sorting.Kilometers {
		t.Errorf("clause = %+v", clause)
	}
	if p.Highlight == nil || p.Highlight.Fields[0] != "name" {
		t.Errorf("highlight = %+v", p.Highlight)
	}
	if !p.Score {
		t.Error("expected score flag")
	}
	if p.Indices.Form() != scope.FormNamed || p.Indices.Names()[0] != "places" {
		t.Errorf("indices = %+v", p.Indices)
	}
}

func TestSearch_ExtrasInResponse(t *testing.T) {
	f := newFixture()
	f.search.res = result.New(1,
		[]any{map[string]any{"id": "1"}},
		[]map[string][]string{{"name": {"<em>blue</em> bottle"}}},
		map[string]float64{"1": 1.5},
	)

	rr := f.do(t, http.MethodPost, "/search", `{"query":"blue","score":true,"highlight":{}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp SearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Highlights) != 1 || resp.Highlights[0]["name"][0] != "<em>blue</em> bottle" {
		t.Errorf("highlights = %v", resp.Highlights)
	}
	if resp.Scores["1"] != 1.5 {
		t.Errorf("scores = %v", resp.Scores)
	}
}

func TestSearch_EmptyQueryIsMatchAll(t *testing.T) {
	f := newFixture()

	rr := f.do(t, http.MethodPost, "/search", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if f.search.query.Kind() != query.KindText || f.search.query.Text() != "" {
		t.Errorf("query = %+v", f.search.query)
	}
}

func TestSearch_BadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"malformed json", `{`, CodeBadRequest},
		{"unknown field", `{"limit": 3}`, CodeBadRequest},
		{"numeric query", `{"query": 42}`, CodeQueryInvalid},
		{"array query", `{"query": ["a"]}`, CodeQueryInvalid},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPost, "/search", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != tc.code {
				t.Errorf("code = %s, want %s", got, tc.code)
			}
		})
	}
}

func TestSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"unknown type", domain.NewUnknownType("ghost"), http.StatusBadRequest, CodeUnknownType},
		{"query build", domain.NewQueryBuild("size", errors.New("negative")), http.StatusBadRequest, CodeQueryInvalid},
		{"backend", domain.NewBackendCall("search", errors.New("dial tcp")), http.StatusBadGateway, CodeBackendError},
		{"rebuild", errors.Join(domain.ErrRebuild, errors.New("bad source")), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.search.err = tc.err

			rr := f.do(t, http.MethodPost, "/search", `{"query":"x"}`)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			resp := decodeError(t, rr)
			if resp.Code != tc.code {
				t.Errorf("code = %s, want %s", resp.Code, tc.code)
			}
		})
	}
}

func TestSearch_BackendErrorHidesDetails(t *testing.T) {
	f := newFixture()
	f.search.err = domain.NewBackendCall("search", errors.New("dial tcp 10.0.0.7:9200"))

	rr := f.do(t, http.MethodPost, "/search", `{}`)
	if msg := decodeError(t, rr).Message; msg != domain.ErrBackendCall.Error() {
		t.Errorf("message = %q", msg)
	}
}

// --- Count ---

func TestCount(t *testing.T) {
	f := newFixture()
	f.search.count = 42

	rr := f.do(t, http.MethodPost, "/count", `{"query":"coffee","types":["event"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp CountResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 42 {
		t.Errorf("count = %d", resp.Count)
	}
	if f.search.params.Types.Names()[0] != "event" {
		t.Errorf("types = %+v", f.search.params.Types)
	}
}

// --- Index / Unindex ---

func TestIndex_Targets(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		shape dombulk.Shape
	}{
		{"all", `{"all":true}`, dombulk.ShapeAll},
		{"subset", `{"types":["place","event"]}`, dombulk.ShapeSubset},
		{"instances", `{"documents":[{"type":"place","id":"p1","fields":{"name":"Blue Bottle"}}]}`, dombulk.ShapeInstances},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPost, "/index", tc.body)
			if rr.Code != http.StatusNoContent {
				t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
			}
			if f.indexer.op != "index" {
				t.Errorf("op = %q", f.indexer.op)
			}
			if f.indexer.target.Shape() != tc.shape {
				t.Errorf("shape = %v, want %v", f.indexer.target.Shape(), tc.shape)
			}
		})
	}
}

func TestIndex_InstancesCarryFields(t *testing.T) {
	f := newFixture()

	rr := f.do(t, http.MethodPost, "/index",
		`{"documents":[{"type":"place","id":"p1","fields":{"name":"Blue Bottle"}}]}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	docs := f.indexer.target.Instances()
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	raw, ok := docs[0].(*document.Raw)
	if !ok {
		t.Fatalf("expected *document.Raw, got %T", docs[0])
	}
	if raw.DocumentID() != "p1" || raw.DocumentType() != "place" || raw.Fields()["name"] != "Blue Bottle" {
		t.Errorf("document = %+v", raw)
	}
}

func TestUnindex_Subset(t *testing.T) {
	f := newFixture()

	rr := f.do(t, http.MethodPost, "/unindex", `{"types":["event"]}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if f.indexer.op != "unindex" {
		t.Errorf("op = %q", f.indexer.op)
	}
	types := f.indexer.target.Types()
	if len(types) != 1 || types[0] != "event" {
		t.Errorf("types = %v", types)
	}
}

func TestIndex_RejectedTargets(t *testing.T) {
	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"empty", `{}`, CodeInvalidTarget},
		{"two shapes", `{"all":true,"types":["place"]}`, CodeInvalidTarget},
		{"unknown subset type", `{"types":["place","ghost"]}`, CodeUnknownType},
		{"unknown document type", `{"documents":[{"type":"ghost","id":"1"}]}`, CodeUnknownType},
		{"document without id", `{"documents":[{"type":"place"}]}`, CodeInvalidTarget},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPost, "/index", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != tc.code {
				t.Errorf("code = %s, want %s", got, tc.code)
			}
			if f.indexer.op != "" {
				t.Error("indexer must not run for a rejected target")
			}
		})
	}
}

func TestIndex_IndexingFailure(t *testing.T) {
	f := newFixture()
	f.indexer.err = domain.NewIndexing("place", "flush", errors.New("bulk rejected"))

	rr := f.do(t, http.MethodPost, "/index", `{"all":true}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeIndexingError {
		t.Errorf("code = %s", got)
	}
}

// --- Records ---

func TestPutRecord(t *testing.T) {
	f := newFixture()

	rr := f.do(t, http.MethodPut, "/records", `{"type":"place","id":"p1","fields":{"name":"cafe"}}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	raw, ok := f.records.saved.(*document.Raw)
	if !ok {
		t.Fatalf("saved %T", f.records.saved)
	}
	if raw.DocumentID() != "p1" || raw.DocumentType() != "place" || raw.Fields()["name"] != "cafe" {
		t.Errorf("saved = %+v", raw)
	}
}

func TestPutRecord_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		code ErrorCode
	}{
		{"unknown type", `{"type":"ghost","id":"g1"}`, CodeUnknownType},
		{"missing id", `{"type":"place"}`, CodeInvalidTarget},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			rr := f.do(t, http.MethodPut, "/records", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if got := decodeError(t, rr).Code; got != tc.code {
				t.Errorf("code = %s, want %s", got, tc.code)
			}
			if f.records.saved != nil {
				t.Error("nothing should be saved")
			}
		})
	}
}

func TestGetRecord(t *testing.T) {
	f := newFixture()
	f.records.doc, _ = document.NewRaw("p1", "place", map[string]any{"name": "cafe"})

	rr := f.do(t, http.MethodGet, "/records/place/p1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Type   string         `json:"type"`
		ID     string         `json:"id"`
		Object map[string]any `json:"object"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != "place" || resp.ID != "p1" || resp.Object["name"] != "cafe" {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetRecord_Errors(t *testing.T) {
	f := newFixture()
	f.records.err = fmt.Errorf("document p9: %w", domain.ErrRecordNotFound)

	rr := f.do(t, http.MethodGet, "/records/place/p9", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeNotFound {
		t.Errorf("code = %s", got)
	}

	rr = f.do(t, http.MethodGet, "/records/ghost/p1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture()

	rr := f.do(t, http.MethodDelete, "/records/event/e1", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if f.records.removed != "event/e1" {
		t.Errorf("removed = %q", f.records.removed)
	}
}

func TestRecordRoutes_DisabledWithoutStore(t *testing.T) {
	srv := NewServer(&mockSearcher{}, &mockIndexer{}, mockTypes{}, &mockHealth{}, zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)

	req := httptest.NewRequest(http.MethodGet, "/records/place/p1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}
}

// --- Health / Metrics ---

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		status healthuc.Status
		want   int
	}{
		{"healthy", healthuc.Healthy, http.StatusOK},
		{"degraded", healthuc.Degraded, http.StatusOK},
		{"unhealthy", healthuc.Unhealthy, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.health.report.Status = tc.status

			rr := f.do(t, http.MethodGet, "/health", "")
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rr.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != string(tc.status) || resp.Checks["backend"] != "ok" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture()

	rr := f.do(t, http.MethodGet, "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
