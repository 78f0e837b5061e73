// Package searchable runs searches, counts and bulk index/unindex calls against a
// document search backend (Elasticsearch or an in-process bleve index) without building
// backend-native requests by hand.
package searchable

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend/bleve"
	"github.com/kailas-cloud/searchable/internal/backend/elastic"
	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/metrics"
	"github.com/kailas-cloud/searchable/internal/registry"
	bulkuc "github.com/kailas-cloud/searchable/internal/usecase/bulk"
	"github.com/kailas-cloud/searchable/internal/usecase/rebuild"
	"github.com/kailas-cloud/searchable/internal/usecase/resolve"
	searchuc "github.com/kailas-cloud/searchable/internal/usecase/search"
)

// backendClient is what the Client needs from a concrete backend.
type backendClient interface {
	searchuc.Backend
	bulkuc.Queue
	Ping(ctx context.Context) error
	Close() error
}

// Client is the searchable entry point. Register types (and their sources)
// before the first call; registration is not meant to race with searches.
type Client struct {
	registry *registry.Registry
	backend  backendClient
	search   *searchuc.Service
	bulk     *bulkuc.Service
	sources  bulkuc.SourceMap
	logger   *zap.Logger
}

// New creates a Client. Without options it uses an in-memory bleve backend.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	b, err := createBackend(cfg)
	if err != nil {
		return nil, err
	}

	return wireClient(b, cfg), nil
}

func createBackend(cfg *clientConfig) (backendClient, error) {
	switch cfg.driver {
	case driverBleve:
		s, err := bleve.New(bleve.Config{Path: cfg.blevePath, GeoField: cfg.geoField}, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("searchable: create bleve backend: %w", err)
		}
		return s, nil
	case driverElastic:
		e := cfg.elastic
		b, err := elastic.New(elastic.Config{
			Addresses:     e.Addresses,
			Username:      e.Username,
			Password:      e.Password,
			APIKey:        e.APIKey,
			CloudID:       e.CloudID,
			GeoField:      cfg.geoField,
			Refresh:       e.Refresh,
			BulkWorkers:   e.BulkWorkers,
			FlushBytes:    e.FlushBytes,
			FlushInterval: e.FlushInterval,
		}, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("searchable: create elastic backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("searchable: unknown backend driver %q", cfg.driver)
	}
}

func wireClient(b backendClient, cfg *clientConfig) *Client {
	metrics.Register()

	reg := registry.New().WithMaxBulkRequest(cfg.maxBulkRequest)
	sources := make(bulkuc.SourceMap)

	builder := searchuc.NewBuilder(resolve.New(reg, cfg.logger), cfg.geoField).
		WithDefaultSize(cfg.defaultSize)
	assembler := searchuc.NewAssembler(rebuild.New(reg), cfg.logger)

	return &Client{
		registry: reg,
		backend:  b,
		search:   searchuc.New(builder, b, assembler, cfg.logger),
		bulk:     bulkuc.New(reg, sources, b, cfg.logger),
		sources:  sources,
		logger:   cfg.logger,
	}
}

// Register binds a type to a search index. factory creates empty instances that
// search hits are decoded into.
func (c *Client) Register(t TypeID, index string, factory func() Document, opts ...TypeOption) error {
	tc := &typeConfig{docType: string(t), root: true}
	for _, o := range opts {
		o(tc)
	}
	b, err := binding.New(t, index, tc.docType, tc.root)
	if err != nil {
		return fmt.Errorf("searchable: register %q: %w", t, err)
	}
	if err := c.registry.Register(b, factory); err != nil {
		return fmt.Errorf("searchable: register %q: %w", t, err)
	}
	return nil
}

// AddSource attaches the persistence source class-level Index/Unindex pages through.
func (c *Client) AddSource(t TypeID, src Source) error {
	if _, ok := c.registry.ByType(t); !ok {
		return fmt.Errorf("searchable: add source: %w", NewUnknownTypeError(string(t)))
	}
	if src == nil {
		return errors.New("searchable: add source: nil source")
	}
	c.sources[t] = src
	return nil
}

// Search runs q and returns the rebuilt hits. p may be nil.
func (c *Client) Search(ctx context.Context, q Query, p *SearchParams) (*SearchResult, error) {
	res, err := c.search.Search(ctx, q, p)
	if err != nil {
		return nil, fmt.Errorf("searchable: search: %w", err)
	}
	return &res, nil
}

// CountHits returns the number of documents matching q. Paging, sort and highlight are ignored.
func (c *Client) CountHits(ctx context.Context, q Query, p *SearchParams) (int64, error) {
	n, err := c.search.Count(ctx, q, p)
	if err != nil {
		return 0, fmt.Errorf("searchable: count: %w", err)
	}
	return n, nil
}

// Index sends the target's objects to the backend.
func (c *Client) Index(ctx context.Context, target Target) error {
	if err := c.bulk.Index(ctx, target); err != nil {
		return fmt.Errorf("searchable: index: %w", err)
	}
	return nil
}

// Unindex removes the target's objects from the backend.
func (c *Client) Unindex(ctx context.Context, target Target) error {
	if err := c.bulk.Unindex(ctx, target); err != nil {
		return fmt.Errorf("searchable: unindex: %w", err)
	}
	return nil
}

// Ping checks backend connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("searchable: ping: %w", err)
	}
	return nil
}

// Close releases the backend. Unflushed writes are dropped.
func (c *Client) Close() error {
	if err := c.backend.Close(); err != nil {
		return fmt.Errorf("searchable: close: %w", err)
	}
	return nil
}
