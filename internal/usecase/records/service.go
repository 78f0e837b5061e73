// Package records writes domain objects to their persistence store and keeps
// the search backend in step with every write.
package records

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/domain"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// Service handles record writes, reads and removals.
type Service struct {
	stores  StoreMap
	indexer Indexer
	logger  *zap.Logger
}

// New creates a record service.
func New(stores StoreMap, indexer Indexer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{stores: stores, indexer: indexer, logger: logger}
}

// Save persists doc and then indexes it. A failed index leaves the record
// stored; a later class-level index picks it up.
func (s *Service) Save(ctx context.Context, doc document.Document) error {
	if document.IsNil(doc) {
		return fmt.Errorf("%w: nil record", domain.ErrInvalidTarget)
	}
	store, err := s.store(doc.DocumentType())
	if err != nil {
		return err
	}
	if err := store.Put(ctx, doc); err != nil {
		return domain.NewIndexing(string(doc.DocumentType()), "persist", err)
	}
	if err := s.indexer.Index(ctx, dombulk.Instances(doc)); err != nil {
		return fmt.Errorf("index record %s: %w", doc.DocumentID(), err)
	}
	return nil
}

// Get loads one record.
func (s *Service) Get(ctx context.Context, t document.TypeID, id string) (document.Document, error) {
	store, err := s.store(t)
	if err != nil {
		return nil, err
	}
	doc, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return doc, nil
}

// Remove unindexes a record and then deletes it from its store.
func (s *Service) Remove(ctx context.Context, t document.TypeID, id string) error {
	doc, err := s.Get(ctx, t, id)
	if err != nil {
		return err
	}
	if err := s.indexer.Unindex(ctx, dombulk.Instances(doc)); err != nil {
		return fmt.Errorf("unindex record %s: %w", id, err)
	}
	store, _ := s.store(t)
	if err := store.Delete(ctx, id); err != nil {
		return domain.NewIndexing(string(t), "delete", err)
	}
	s.logger.Debug("Record removed", zap.String("type", string(t)), zap.String("id", id))
	return nil
}

func (s *Service) store(t document.TypeID) (Store, error) {
	store, ok := s.stores[t]
	if !ok || store == nil {
		return nil, domain.NewUnknownType(string(t))
	}
	return store, nil
}
