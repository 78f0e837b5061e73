package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain"
	"github.com/kailas-cloud/searchable/internal/domain/search/query"
	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/result"
	"github.com/kailas-cloud/searchable/internal/metrics"
)

// Service runs searches and counts against the backend.
type Service struct {
	builder   *Builder
	backend   Backend
	assembler *Assembler
	logger    *zap.Logger
}

// New creates a search service.
func New(builder *Builder, b Backend, assembler *Assembler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{builder: builder, backend: b, assembler: assembler, logger: logger}
}

// Search builds, executes and assembles a search.
func (s *Service) Search(ctx context.Context, q query.Spec, p *request.Params) (result.Result, error) {
	req, err := s.builder.Search(q, p)
	if err != nil {
		return result.Result{}, err
	}

	start := time.Now()
	resp, err := s.backend.Search(ctx, req)
	metrics.ObserveSearch(backend.OpSearch, err, time.Since(start))
	if err != nil {
		s.logger.Error("Search request failed",
			zap.Strings("indices", req.Indices),
			zap.Strings("types", req.Types),
			zap.Error(err),
		)
		return result.Result{}, domain.NewBackendCall(backend.OpSearch, err)
	}

	withScores := p != nil && p.Score
	return s.assembler.Search(ctx, resp, req.Highlight != nil, withScores)
}

// Count builds and executes a count.
func (s *Service) Count(ctx context.Context, q query.Spec, p *request.Params) (int64, error) {
	req, err := s.builder.Count(q, p)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := s.backend.Count(ctx, req)
	metrics.ObserveSearch(backend.OpCount, err, time.Since(start))
	if err != nil {
		s.logger.Error("Count request failed",
			zap.Strings("indices", req.Indices),
			zap.Error(err),
		)
		return 0, domain.NewBackendCall(backend.OpCount, err)
	}
	return s.assembler.Count(resp), nil
}
