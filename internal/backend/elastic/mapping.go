package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/backend"
)

// indexMapping returns the create-index body. The document type is an exact
// keyword and geoField a geo point; every other field is mapped dynamically.
func indexMapping(geoField string) map[string]any {
	props := map[string]any{
		backend.FieldDocType: map[string]any{"type": "keyword"},
	}
	if geoField != "" {
		addProperty(props, strings.Split(geoField, "."), map[string]any{"type": "geo_point"})
	}
	return map[string]any{
		"mappings": map[string]any{"properties": props},
	}
}

// addProperty maps a dotted field path, nesting object properties on the way.
func addProperty(props map[string]any, path []string, field map[string]any) {
	for _, p := range path[:len(path)-1] {
		obj, ok := props[p].(map[string]any)
		if !ok {
			obj = map[string]any{"properties": map[string]any{}}
			props[p] = obj
		}
		props = obj["properties"].(map[string]any)
	}
	props[path[len(path)-1]] = field
}

// ensureIndex creates index with the searchable mapping unless it exists.
// Existing indices are left untouched.
func (b *Backend) ensureIndex(ctx context.Context, index string) error {
	b.indexMu.Lock()
	defer b.indexMu.Unlock()
	if b.known[index] {
		return nil
	}

	res, err := b.es.Indices.Exists([]string{index}, b.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	_ = res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		b.known[index] = true
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: %s", index, res.Status())
	}

	body, err := json.Marshal(indexMapping(b.cfg.GeoField))
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	res, err = b.es.Indices.Create(index,
		b.es.Indices.Create.WithBody(bytes.NewReader(body)),
		b.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		// Another writer created it between the check and the create.
		if !bytes.Contains(data, []byte("resource_already_exists_exception")) {
			return fmt.Errorf("create index %s: %s: %s", index, res.Status(), data)
		}
	} else {
		b.logger.Info("Created index", zap.String("index", index), zap.String("geo_field", b.cfg.GeoField))
	}
	b.known[index] = true
	return nil
}
