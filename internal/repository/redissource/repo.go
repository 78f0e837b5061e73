// Package redissource persists documents in Redis and pages through them for bulk indexing.
package redissource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/searchable/internal/db"
	"github.com/kailas-cloud/searchable/internal/domain"
	dombulk "github.com/kailas-cloud/searchable/internal/domain/bulk"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// store is the consumer interface for the source (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZCard(ctx context.Context, key string) (int64, error)
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Source stores one type's documents as JSON values plus a sorted id set.
// All ids share score 0, so pages follow lexicographic id order.
type Source struct {
	store   store
	prefix  string
	typeID  document.TypeID
	factory func() document.Document
}

// New creates a source for one type.
func New(s store, prefix string, typeID document.TypeID, factory func() document.Document) *Source {
	return &Source{store: s, prefix: prefix, typeID: typeID, factory: factory}
}

// Put stores or replaces a document.
func (r *Source) Put(ctx context.Context, doc document.Document) error {
	if doc.DocumentType() != r.typeID {
		return fmt.Errorf("document %s has type %q, source holds %q", doc.DocumentID(), doc.DocumentType(), r.typeID)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	key := r.docKey(doc.DocumentID())
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := r.store.ZAdd(ctx, r.idsKey(), 0, doc.DocumentID()); err != nil {
		return fmt.Errorf("zadd %s: %w", r.idsKey(), err)
	}
	return nil
}

// Get loads one document.
func (r *Source) Get(ctx context.Context, id string) (document.Document, error) {
	data, err := r.store.Get(ctx, r.docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("document %s: %w: %w", id, domain.ErrRecordNotFound, err)
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return r.decode(data)
}

// Delete removes a document. Missing documents are ignored.
func (r *Source) Delete(ctx context.Context, id string) error {
	if err := r.store.ZRem(ctx, r.idsKey(), id); err != nil {
		return fmt.Errorf("zrem %s: %w", id, err)
	}
	if err := r.store.Del(ctx, r.docKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", id, err)
	}
	return nil
}

// Count returns the number of stored documents.
func (r *Source) Count(ctx context.Context) (int64, error) {
	n, err := r.store.ZCard(ctx, r.idsKey())
	if err != nil {
		return 0, fmt.Errorf("zcard %s: %w", r.idsKey(), err)
	}
	return n, nil
}

// Open starts a page session. Redis needs no per-page resources.
func (r *Source) Open(_ context.Context) (dombulk.Session, error) {
	return &session{src: r}, nil
}

type session struct {
	src *Source
}

// Fetch loads one page of documents. Ids whose value vanished since ZRANGE are skipped.
func (s *session) Fetch(ctx context.Context, offset, limit int) ([]document.Document, error) {
	if limit <= 0 {
		return nil, nil
	}
	r := s.src
	ids, err := r.store.ZRange(ctx, r.idsKey(), int64(offset), int64(offset+limit-1))
	if err != nil {
		return nil, fmt.Errorf("zrange %s: %w", r.idsKey(), err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}
	values, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}

	out := make([]document.Document, 0, len(values))
	for i, data := range values {
		if data == nil {
			continue
		}
		doc, err := r.decode(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", ids[i], err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *session) Close() error { return nil }

func (r *Source) decode(data []byte) (document.Document, error) {
	doc := r.factory()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

func (r *Source) idsKey() string {
	return r.prefix + ":" + string(r.typeID) + ":ids"
}

func (r *Source) docKey(id string) string {
	return r.prefix + ":" + string(r.typeID) + ":" + id
}
