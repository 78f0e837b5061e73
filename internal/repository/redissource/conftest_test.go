package redissource

import (
	"context"
	"sort"
	"testing"

	"github.com/kailas-cloud/searchable/internal/db"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// memStore implements the consumer interface with plain maps.
type memStore struct {
	values map[string][]byte
	sets   map[string]map[string]struct{}

	zrangeErr error
}

func newMemStore() *memStore {
	return &memStore{values: map[string][]byte{}, sets: map[string]map[string]struct{}{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.values[k]
	}
	return out, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.values[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memStore) ZAdd(_ context.Context, key string, _ float64, member string) error {
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	m.sets[key][member] = struct{}{}
	return nil
}

func (m *memStore) ZRem(_ context.Context, key string, members ...string) error {
	for _, mem := range members {
		delete(m.sets[key], mem)
	}
	return nil
}

func (m *memStore) ZCard(_ context.Context, key string) (int64, error) {
	return int64(len(m.sets[key])), nil
}

func (m *memStore) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	if m.zrangeErr != nil {
		return nil, m.zrangeErr
	}
	members := make([]string, 0, len(m.sets[key]))
	for mem := range m.sets[key] {
		members = append(members, mem)
	}
	sort.Strings(members)
	if start >= int64(len(members)) {
		return nil, nil
	}
	if stop >= int64(len(members)) {
		stop = int64(len(members)) - 1
	}
	return members[start : stop+1], nil
}

func newTestSource(t *testing.T) (*Source, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(ms, "searchable", "place", document.RawFactory("place")), ms
}
