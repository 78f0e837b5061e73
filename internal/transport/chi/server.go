package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/domain"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	logpkg "github.com/kailas-cloud/searchable/internal/logger"
	"github.com/kailas-cloud/searchable/internal/metrics"
	healthuc "github.com/kailas-cloud/searchable/internal/usecase/health"
)

// maxBodyBytes caps request bodies; bulk instance lists are the largest payloads.
const maxBodyBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the search facade over HTTP.
type Server struct {
	search        Searcher
	indexer       Indexer
	types         Types
	health        HealthChecker
	records       Records
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, indexer Indexer, types Types, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:  search,
		indexer: indexer,
		types:   types,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		detailHandler(domain.ErrUnknownType, http.StatusBadRequest, CodeUnknownType),
		detailHandler(domain.ErrQueryBuild, http.StatusBadRequest, CodeQueryInvalid),
		detailHandler(domain.ErrInvalidTarget, http.StatusBadRequest, CodeInvalidTarget),
		detailHandler(domain.ErrRecordNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrBackendCall, http.StatusBadGateway, CodeBackendError),
		sentinelHandler(domain.ErrIndexing, http.StatusBadGateway, CodeIndexingError),
	}
	return s
}

// WithRecords enables the /records routes backed by a persistence store.
func (s *Server) WithRecords(records Records) *Server {
	s.records = records
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)
	r.Post("/count", s.Count)
	r.Post("/index", s.Index)
	r.Post("/unindex", s.Unindex)
	if s.records != nil {
		r.Put("/records", s.PutRecord)
		r.Get("/records/{type}/{id}", s.GetRecord)
		r.Delete("/records/{type}/{id}", s.DeleteRecord)
	}
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := queryFromRequest(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeQueryInvalid, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), q, paramsFromRequest(&req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Total:      res.Total(),
		Objects:    res.Objects(),
		Highlights: res.Highlights(),
		Scores:     res.Scores(),
	})
}

// Count handles POST /count. Paging, sort and highlight settings are ignored.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	q, err := queryFromRequest(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeQueryInvalid, err.Error())
		return
	}

	n, err := s.search.Count(r.Context(), q, paramsFromRequest(&req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// Index handles POST /index.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.bulk(w, r, s.indexer.Index)
}

// Unindex handles POST /unindex.
func (s *Server) Unindex(w http.ResponseWriter, r *http.Request) {
	s.bulk(w, r, s.indexer.Unindex)
}

func (s *Server) bulk(w http.ResponseWriter, r *http.Request, run func(context.Context, dombulk.Target) error) {
	var req BulkRequest
	if !s.decode(w, r, &req) {
		return
	}
	target, err := targetFromRequest(&req, s.types)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := run(r.Context(), target); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutRecord handles PUT /records: the object is persisted, then indexed.
func (s *Server) PutRecord(w http.ResponseWriter, r *http.Request) {
	var item DocumentItem
	if !s.decode(w, r, &item) {
		return
	}
	doc, err := recordFromRequest(&item, s.types)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.records.Save(r.Context(), doc); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecord handles GET /records/{type}/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	t, ok := s.recordType(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	doc, err := s.records.Get(r.Context(), t, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordResponse{Type: string(t), ID: id, Object: doc})
}

// DeleteRecord handles DELETE /records/{type}/{id}: the object is unindexed, then deleted.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	t, ok := s.recordType(w, r)
	if !ok {
		return
	}
	if err := s.records.Remove(r.Context(), t, chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) recordType(w http.ResponseWriter, r *http.Request) (document.TypeID, bool) {
	name := chi.URLParam(r, "type")
	b, ok := s.types.ByName(name)
	if !ok {
		s.handleDomainError(w, r, domain.NewUnknownType(name))
		return "", false
	}
	return b.Type(), true
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// detailHandler matches a client error and echoes its message; these carry no internals.
func detailHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// sentinelHandler matches a single sentinel and replies with its message only.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("Domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
