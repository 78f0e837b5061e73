package bleve

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

type op struct {
	index  string
	id     string
	fields map[string]any // nil for deletes
}

// EnqueueIndex queues a document for indexing.
func (s *Store) EnqueueIndex(_ context.Context, b binding.Binding, doc document.Document) error {
	fields, err := backend.EncodeSource(b, doc)
	if err != nil {
		return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("encode %s: %w", doc.DocumentID(), err)}
	}
	source, err := json.Marshal(doc)
	if err != nil {
		return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("encode %s: %w", doc.DocumentID(), err)}
	}
	fields[backend.FieldSource] = string(source)
	return s.push(op{index: b.Index(), id: doc.DocumentID(), fields: fields})
}

// EnqueueDelete queues a document for removal.
func (s *Store) EnqueueDelete(_ context.Context, b binding.Binding, doc document.Document) error {
	return s.push(op{index: b.Index(), id: doc.DocumentID()})
}

func (s *Store) push(o op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &backend.Error{Op: backend.OpBulk, Err: ErrClosed}
	}
	s.pending = append(s.pending, o)
	return nil
}

// Flush applies every queued write, one batch per index.
func (s *Store) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &backend.Error{Op: backend.OpBulk, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &backend.Error{Op: backend.OpBulk, Err: ErrClosed}
	}
	ops := s.pending
	s.pending = nil
	if len(ops) == 0 {
		return nil
	}

	var order []string
	byIndex := make(map[string][]op)
	for _, o := range ops {
		if _, seen := byIndex[o.index]; !seen {
			order = append(order, o.index)
		}
		byIndex[o.index] = append(byIndex[o.index], o)
	}

	for _, name := range order {
		idx, err := s.indexLocked(name)
		if err != nil {
			return &backend.Error{Op: backend.OpBulk, Err: err}
		}
		batch := idx.NewBatch()
		for _, o := range byIndex[name] {
			if o.fields == nil {
				batch.Delete(o.id)
				continue
			}
			if err := batch.Index(o.id, o.fields); err != nil {
				return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("index %s/%s: %w", name, o.id, err)}
			}
		}
		if err := idx.Batch(batch); err != nil {
			return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("apply batch to %s: %w", name, err)}
		}
		s.logger.Debug("Bleve batch applied", zap.String("index", name), zap.Int("ops", len(byIndex[name])))
	}
	return nil
}
