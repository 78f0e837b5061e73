// Package rebuild turns raw search hits back into registered document objects.
package rebuild

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain"
)

// Service decodes each hit's stored source into a fresh instance of its type.
type Service struct {
	factories Factories
}

// New creates a registry-backed rebuilder.
func New(factories Factories) *Service {
	return &Service{factories: factories}
}

// Rebuild returns one object per hit, in hit order.
func (s *Service) Rebuild(ctx context.Context, hits []backend.Hit) ([]any, error) {
	out := make([]any, 0, len(hits))
	for i := range hits {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rebuild: %w", err)
		}
		h := &hits[i]
		factory, ok := s.factories.Factory(h.Type)
		if !ok {
			return nil, fmt.Errorf("%w: hit %s has unregistered type %q", domain.ErrRebuild, h.ID, h.Type)
		}
		doc := factory()
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, doc); err != nil {
				return nil, fmt.Errorf("%w: decode hit %s: %w", domain.ErrRebuild, h.ID, err)
			}
		}
		out = append(out, doc)
	}
	return out, nil
}
