package bleve

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/searchable/internal/backend"
)

// newMapping indexes every field dynamically, keeps the document type as an exact
// keyword, stores the serialized source without indexing it and maps geoField as a geo point.
func newMapping(geoField string) *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docType := bleve.NewKeywordFieldMapping()
	docType.Store = true
	im.DefaultMapping.AddFieldMappingsAt(backend.FieldDocType, docType)

	source := bleve.NewTextFieldMapping()
	source.Index = false
	source.Store = true
	source.IncludeInAll = false
	source.IncludeTermVectors = false
	im.DefaultMapping.AddFieldMappingsAt(backend.FieldSource, source)

	addFieldAt(im.DefaultMapping, geoField, bleve.NewGeoPointFieldMapping())
	return im
}

// addFieldAt maps a dotted field path, creating sub-document mappings on the way.
func addFieldAt(dm *mapping.DocumentMapping, path string, fm *mapping.FieldMapping) {
	parts := strings.Split(path, ".")
	for _, p := range parts[:len(parts)-1] {
		sub, ok := dm.Properties[p]
		if !ok {
			sub = bleve.NewDocumentMapping()
			dm.AddSubDocumentMapping(p, sub)
		}
		dm = sub
	}
	dm.AddFieldMappingsAt(parts[len(parts)-1], fm)
}
