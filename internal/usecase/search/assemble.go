package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/search/result"
	"github.com/kailas-cloud/searchable/internal/metrics"
)

// Assembler normalizes raw backend responses.
type Assembler struct {
	rebuilder Rebuilder
	logger    *zap.Logger
}

// NewAssembler creates a result assembler.
func NewAssembler(rebuilder Rebuilder, logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{rebuilder: rebuilder, logger: logger}
}

// Search converts a raw search response. Highlights and scores are only
// collected when requested.
func (a *Assembler) Search(
	ctx context.Context, resp *backend.Response, withHighlight, withScores bool,
) (result.Result, error) {
	if resp == nil {
		resp = &backend.Response{}
	}

	var total int64
	if resp.TotalHits != nil {
		total = *resp.TotalHits
	}

	objects, err := a.rebuilder.Rebuild(ctx, resp.Hits)
	if err != nil {
		return result.Result{}, fmt.Errorf("rebuild hits: %w", err)
	}

	var highlights []map[string][]string
	if withHighlight {
		highlights = make([]map[string][]string, 0, len(resp.Hits))
		for _, h := range resp.Hits {
			fragments := h.Highlight
			if fragments == nil {
				fragments = map[string][]string{}
			}
			highlights = append(highlights, fragments)
		}
	}

	var scores map[string]float64
	if withScores {
		scores = make(map[string]float64, len(resp.Hits))
		for _, h := range resp.Hits {
			if _, dup := scores[h.ID]; dup {
				metrics.SearchDuplicateHitsTotal.Inc()
				a.logger.Warn("Duplicate hit id in search response",
					zap.String("id", h.ID),
					zap.String("index", h.Index),
				)
			}
			scores[h.ID] = h.Score
		}
	}

	return result.New(total, objects, highlights, scores), nil
}

// Count extracts the count of a raw count response (0 when absent).
func (a *Assembler) Count(resp *backend.CountResponse) int64 {
	if resp == nil || resp.Count == nil {
		return 0
	}
	return *resp.Count
}
