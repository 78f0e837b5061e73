// Package bleve is an in-process search backend. Writes are searchable as soon
// as Flush returns.
//
// Highlighting honours the requested fields only. FragmentSize, NumberOfFragments
// and the pre/post tags are ignored; bleve's HTML highlighter defaults apply.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend"
	"github.com/kailas-cloud/searchable/internal/domain/search/sorting"
)

const indexSuffix = ".bleve"

// ErrClosed indicates an operation on a closed store.
var ErrClosed = errors.New("store is closed")

// Config holds store settings.
type Config struct {
	// Path is the directory holding one bleve index per search index. Empty keeps everything in memory.
	Path string
	// GeoField is the geo-point field path mapped on every index.
	GeoField string
}

// Store keeps one bleve index per search index name.
type Store struct {
	cfg    Config
	logger *zap.Logger

	mu      sync.RWMutex
	indices map[string]bleve.Index
	pending []op
	closed  bool
}

// New opens a store. Existing on-disk indices under cfg.Path are reopened.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.GeoField == "" {
		cfg.GeoField = sorting.DefaultGeoField
	}
	s := &Store{
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "bleve")),
		indices: make(map[string]bleve.Index),
	}
	if cfg.Path == "" {
		return s, nil
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, &backend.Error{Op: backend.OpOpen, Err: err}
	}
	entries, err := os.ReadDir(cfg.Path)
	if err != nil {
		return nil, &backend.Error{Op: backend.OpOpen, Err: err}
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), indexSuffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), indexSuffix)
		idx, err := bleve.Open(filepath.Join(cfg.Path, e.Name()))
		if err != nil {
			_ = s.Close()
			return nil, &backend.Error{Op: backend.OpOpen, Err: fmt.Errorf("open index %s: %w", name, err)}
		}
		idx.SetName(name)
		s.indices[name] = idx
	}
	s.logger.Info("Bleve store opened", zap.String("path", cfg.Path), zap.Int("indices", len(s.indices)))
	return s, nil
}

// Close closes every index. Unflushed writes are dropped.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if len(s.pending) > 0 {
		s.logger.Warn("Closing with unflushed writes", zap.Int("dropped", len(s.pending)))
		s.pending = nil
	}

	var errs []error
	for name, idx := range s.indices {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close index %s: %w", name, err))
		}
	}
	s.indices = nil
	if err := errors.Join(errs...); err != nil {
		return &backend.Error{Op: backend.OpClose, Err: err}
	}
	return nil
}

// Indices returns the names of existing indices in sorted order.
func (s *Store) Indices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.indices))
	for name := range s.indices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// indexLocked returns the named index, creating it when missing. Callers hold s.mu.
func (s *Store) indexLocked(name string) (bleve.Index, error) {
	if idx, ok := s.indices[name]; ok {
		return idx, nil
	}

	m := newMapping(s.cfg.GeoField)
	var (
		idx bleve.Index
		err error
	)
	if s.cfg.Path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		idx, err = bleve.New(filepath.Join(s.cfg.Path, name+indexSuffix), m)
	}
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", name, err)
	}
	idx.SetName(name)
	s.indices[name] = idx
	s.logger.Info("Bleve index created", zap.String("index", name))
	return idx, nil
}
