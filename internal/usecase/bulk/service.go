// Package bulk sends whole types or explicit instances to the search backend in bounded pages.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/domain"
	"github.com/kailas-cloud/searchable/internal/domain/binding"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
	"github.com/kailas-cloud/searchable/internal/metrics"
)

// Skip reasons reported in logs and metrics.
const (
	skipUnbound  = "unbound"
	skipNonRoot  = "non_root"
	skipNoSource = "no_source"
)

// Service runs bulk index and delete operations.
type Service struct {
	registry Registry
	sources  Sources
	queue    Queue
	logger   *zap.Logger
}

// New creates a bulk batcher.
func New(registry Registry, sources Sources, queue Queue, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sources == nil {
		sources = SourceMap{}
	}
	return &Service{registry: registry, sources: sources, queue: queue, logger: logger}
}

// Index sends the target to the backend.
func (s *Service) Index(ctx context.Context, target dombulk.Target) error {
	return s.Run(ctx, dombulk.OpIndex, target)
}

// Unindex removes the target from the backend.
func (s *Service) Unindex(ctx context.Context, target dombulk.Target) error {
	return s.Run(ctx, dombulk.OpDelete, target)
}

// Run applies op to every document the target covers.
func (s *Service) Run(ctx context.Context, op dombulk.Operation, target dombulk.Target) error {
	if !op.IsValid() {
		return fmt.Errorf("%w: unknown operation %q", domain.ErrInvalidTarget, op)
	}

	switch target.Shape() {
	case dombulk.ShapeAll:
		return s.runClasses(ctx, op, s.registry.All(), false)
	case dombulk.ShapeSubset:
		bindings, err := s.subset(target.Types())
		if err != nil {
			return err
		}
		return s.runClasses(ctx, op, bindings, true)
	case dombulk.ShapeInstances:
		return s.runInstances(ctx, op, target.Instances())
	default:
		return domain.ErrInvalidTarget
	}
}

func (s *Service) subset(types []document.TypeID) ([]binding.Binding, error) {
	var (
		out     []binding.Binding
		unknown []string
		seen    = make(map[document.TypeID]struct{}, len(types))
	)
	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		b, ok := s.registry.ByType(t)
		if !ok {
			unknown = append(unknown, string(t))
			continue
		}
		out = append(out, b)
	}
	if len(unknown) > 0 {
		return nil, domain.NewUnknownType(unknown...)
	}
	return out, nil
}

func (s *Service) runClasses(ctx context.Context, op dombulk.Operation, bindings []binding.Binding, explicit bool) error {
	for _, b := range bindings {
		if !b.Root() {
			s.skip(op, skipNonRoot, zap.String("type", string(b.Type())))
			continue
		}
		src, ok := s.sources.Source(b.Type())
		if !ok {
			if explicit {
				return domain.NewIndexing(string(b.Type()), "source", errors.New("no persistence source registered"))
			}
			s.skip(op, skipNoSource, zap.String("type", string(b.Type())))
			continue
		}
		if err := s.runClass(ctx, op, b, src); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) runClass(ctx context.Context, op dombulk.Operation, b binding.Binding, src Source) error {
	typeName := string(b.Type())

	total, err := src.Count(ctx)
	if err != nil {
		return domain.NewIndexing(typeName, "count", err)
	}

	batchSize := s.registry.MaxBulkRequest()
	pages := dombulk.Pages(total, batchSize)
	s.logger.Info("Bulk run started",
		zap.String("op", string(op)),
		zap.String("type", typeName),
		zap.String("index", b.Index()),
		zap.Int64("total", total),
		zap.Int("batch_size", batchSize),
		zap.Int("batch_count", len(pages)),
	)

	for i, page := range pages {
		if err := s.runPage(ctx, op, b, src, page); err != nil {
			s.logger.Error("Bulk page failed",
				zap.String("type", typeName),
				zap.Int("page", i),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// runPage holds one session for exactly one page.
func (s *Service) runPage(
	ctx context.Context, op dombulk.Operation, b binding.Binding, src Source, page dombulk.Page,
) (err error) {
	typeName := string(b.Type())

	session, err := src.Open(ctx)
	if err != nil {
		return domain.NewIndexing(typeName, "open", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = domain.NewIndexing(typeName, "close", cerr)
		}
	}()

	docs, err := session.Fetch(ctx, page.Offset, page.Limit)
	if err != nil {
		return domain.NewIndexing(typeName, "fetch", fmt.Errorf("offset %d: %w", page.Offset, err))
	}
	for _, doc := range docs {
		if err := s.enqueue(ctx, op, b, doc); err != nil {
			return domain.NewIndexing(typeName, "enqueue", err)
		}
	}
	if err := s.queue.Flush(ctx); err != nil {
		return domain.NewIndexing(typeName, "flush", err)
	}

	metrics.BulkPagesTotal.WithLabelValues(string(op), typeName).Inc()
	metrics.BulkDocumentsTotal.WithLabelValues(string(op), typeName).Add(float64(len(docs)))
	return nil
}

func (s *Service) runInstances(ctx context.Context, op dombulk.Operation, docs []document.Document) error {
	enqueued := make(map[document.TypeID]int)
	for i, doc := range docs {
		if document.IsNil(doc) {
			s.skip(op, skipUnbound, zap.Int("position", i))
			continue
		}
		b, ok := s.registry.ByType(doc.DocumentType())
		if !ok {
			s.skip(op, skipUnbound,
				zap.String("type", string(doc.DocumentType())),
				zap.String("id", doc.DocumentID()),
			)
			continue
		}
		if !b.Root() {
			s.skip(op, skipNonRoot,
				zap.String("type", string(b.Type())),
				zap.String("id", doc.DocumentID()),
			)
			continue
		}
		if err := s.enqueue(ctx, op, b, doc); err != nil {
			return domain.NewIndexing(string(b.Type()), "enqueue",
				fmt.Errorf("instance %s: %w", strconv.Quote(doc.DocumentID()), err))
		}
		enqueued[b.Type()]++
	}

	if err := s.queue.Flush(ctx); err != nil {
		return domain.NewIndexing("", "flush", err)
	}
	for t, n := range enqueued {
		metrics.BulkDocumentsTotal.WithLabelValues(string(op), string(t)).Add(float64(n))
	}
	return nil
}

func (s *Service) enqueue(ctx context.Context, op dombulk.Operation, b binding.Binding, doc document.Document) error {
	if op == dombulk.OpDelete {
		return s.queue.EnqueueDelete(ctx, b, doc)
	}
	return s.queue.EnqueueIndex(ctx, b, doc)
}

func (s *Service) skip(op dombulk.Operation, reason string, fields ...zap.Field) {
	metrics.BulkSkippedTotal.WithLabelValues(string(op), reason).Inc()
	s.logger.Info("Skipping type not sent to the search backend",
		append(fields, zap.String("op", string(op)), zap.String("reason", reason))...)
}
