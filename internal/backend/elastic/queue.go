package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

type item struct {
	action string
	index  string
	id     string
	body   []byte
}

// EnqueueIndex queues a document for indexing.
func (b *Backend) EnqueueIndex(_ context.Context, bnd binding.Binding, doc document.Document) error {
	fields, err := backend.EncodeSource(bnd, doc)
	if err != nil {
		return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("encode %s: %w", doc.DocumentID(), err)}
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("encode %s: %w", doc.DocumentID(), err)}
	}
	b.push(item{action: "index", index: bnd.Index(), id: doc.DocumentID(), body: body})
	return nil
}

// EnqueueDelete queues a document for removal.
func (b *Backend) EnqueueDelete(_ context.Context, bnd binding.Binding, doc document.Document) error {
	b.push(item{action: "delete", index: bnd.Index(), id: doc.DocumentID()})
	return nil
}

func (b *Backend) push(it item) {
	b.mu.Lock()
	b.pending = append(b.pending, it)
	b.mu.Unlock()
}

// Flush sends every queued write in bulk requests and waits for them to finish.
// Indices written to are created with the searchable mapping first.
// Deleting a missing document is not a failure.
func (b *Backend) Flush(ctx context.Context) error {
	b.mu.Lock()
	items := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(items) == 0 {
		return nil
	}

	for _, it := range items {
		if it.action != "index" {
			continue
		}
		if err := b.ensureIndex(ctx, it.index); err != nil {
			return &backend.Error{Op: backend.OpBulk, Err: err}
		}
	}

	var (
		failMu   sync.Mutex
		failures []error
	)
	fail := func(err error) {
		failMu.Lock()
		failures = append(failures, err)
		failMu.Unlock()
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        b.es,
		NumWorkers:    b.cfg.BulkWorkers,
		FlushBytes:    b.cfg.FlushBytes,
		FlushInterval: b.cfg.FlushInterval,
		Refresh:       b.cfg.Refresh,
		OnError: func(_ context.Context, err error) {
			b.logger.Error("Bulk indexer error", zap.Error(err))
			fail(err)
		},
	})
	if err != nil {
		return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("create bulk indexer: %w", err)}
	}

	for _, it := range items {
		bulkItem := esutil.BulkIndexerItem{
			Index:      it.index,
			Action:     it.action,
			DocumentID: it.id,
			OnFailure: func(
				_ context.Context, req esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error,
			) {
				if req.Action == "delete" && res.Status == http.StatusNotFound {
					return
				}
				if err == nil {
					err = fmt.Errorf("%s %s/%s: %s: %s", req.Action, req.Index, req.DocumentID,
						res.Error.Type, res.Error.Reason)
				}
				fail(err)
			},
		}
		if it.body != nil {
			bulkItem.Body = bytes.NewReader(it.body)
		}
		if err := bi.Add(ctx, bulkItem); err != nil {
			_ = bi.Close(ctx)
			return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("add %s: %w", it.id, err)}
		}
	}

	if err := bi.Close(ctx); err != nil {
		return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("close bulk indexer: %w", err)}
	}

	stats := bi.Stats()
	b.logger.Debug("Bulk flush finished",
		zap.Uint64("added", stats.NumAdded),
		zap.Uint64("flushed", stats.NumFlushed),
		zap.Uint64("requests", stats.NumRequests),
	)
	if len(failures) > 0 {
		return &backend.Error{Op: backend.OpBulk, Err: fmt.Errorf("%d of %d items failed: %w",
			len(failures), len(items), errors.Join(failures...))}
	}
	return nil
}
