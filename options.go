package searchable

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/domain/search/request"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
	"github.com/kailas-cloud/searchable/internal/registry"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver         string
	elastic        ElasticConfig
	blevePath      string
	geoField       string
	defaultSize    int
	maxBulkRequest int
	logger         *zap.Logger
}

const (
	driverBleve   = "bleve"
	driverElastic = "elastic"
)

// ElasticConfig holds Elasticsearch connection settings.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	CloudID   string
	// Refresh is passed to bulk writes: "true", "wait_for" or empty.
	Refresh       string
	BulkWorkers   int
	FlushBytes    int
	FlushInterval time.Duration
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		driver:         driverBleve,
		geoField:       sorting.DefaultGeoField,
		defaultSize:    request.DefaultSize,
		maxBulkRequest: registry.DefaultMaxBulkRequest,
		logger:         zap.NewNop(),
	}
}

// WithElastic selects an Elasticsearch cluster as the backend.
func WithElastic(cfg ElasticConfig) Option {
	return func(c *clientConfig) {
		c.driver = driverElastic
		c.elastic = cfg
	}
}

// WithBleve selects the in-process backend. An empty path keeps indices in memory.
// This is the default. Highlight requests on this backend only select fields;
// fragment size, fragment count and tags are left to bleve.
func WithBleve(path string) Option {
	return func(c *clientConfig) {
		c.driver = driverBleve
		c.blevePath = path
	}
}

// WithGeoField sets the geo-point field distance sorts are computed on.
func WithGeoField(field string) Option {
	return func(c *clientConfig) {
		if field != "" {
			c.geoField = field
		}
	}
}

// WithDefaultSize sets the page size used when SearchParams.Size is nil.
func WithDefaultSize(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.defaultSize = n
		}
	}
}

// WithMaxBulkRequest sets the number of objects per bulk page.
func WithMaxBulkRequest(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxBulkRequest = n
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// TypeOption configures a registered type.
type TypeOption func(*typeConfig)

type typeConfig struct {
	docType string
	root    bool
}

// WithDocType sets the document type name stored in the backend. Defaults to the type id.
func WithDocType(name string) TypeOption {
	return func(c *typeConfig) { c.docType = name }
}

// NotRoot marks a type that is never sent to the backend on its own.
func NotRoot() TypeOption {
	return func(c *typeConfig) { c.root = false }
}
