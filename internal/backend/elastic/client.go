// Package elastic is the Elasticsearch search backend.
package elastic

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend"
)

// Config holds Elasticsearch connection and bulk settings.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	CloudID   string
	// GeoField is mapped as a geo_point when an index is created.
	GeoField string
	// Refresh is passed to bulk requests ("true", "wait_for" or "" for none).
	Refresh       string
	BulkWorkers   int
	FlushBytes    int
	FlushInterval time.Duration
}

// Backend talks to an Elasticsearch cluster.
type Backend struct {
	es     *elasticsearch.Client
	cfg    Config
	logger *zap.Logger

	mu      sync.Mutex
	pending []item

	indexMu sync.Mutex
	known   map[string]bool
}

// New creates an Elasticsearch backend. It does not contact the cluster; use Ping for that.
func New(cfg Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "elastic"))

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		CloudID:   cfg.CloudID,
		Transport: &loggingTransport{
			transport: http.DefaultTransport,
			logger:    logger,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Backend{es: es, cfg: cfg, logger: logger, known: make(map[string]bool)}, nil
}

// Ping checks the cluster is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	res, err := b.es.Ping(b.es.Ping.WithContext(ctx))
	if err != nil {
		return &backend.Error{Op: backend.OpOpen, Err: err}
	}
	defer res.Body.Close()
	if res.IsError() {
		return &backend.Error{Op: backend.OpOpen, Err: fmt.Errorf("ping: %s", res.Status())}
	}
	return nil
}

// Close drops writes that were enqueued but never flushed.
func (b *Backend) Close() error {
	b.mu.Lock()
	dropped := len(b.pending)
	b.pending = nil
	b.mu.Unlock()
	if dropped > 0 {
		b.logger.Warn("Closing with unflushed bulk items", zap.Int("dropped", dropped))
	}
	return nil
}

// loggingTransport logs every request sent to the cluster at debug level.
type loggingTransport struct {
	transport http.RoundTripper
	logger    *zap.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		t.logger.Error("Elasticsearch request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, err //nolint:wrapcheck // http.RoundTripper contract
	}
	t.logger.Debug("Elasticsearch request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return resp, nil
}
