package rebuild

import "github.com/kailas-cloud/searchable/internal/domain/document"

// Factories creates empty documents by document type name.
type Factories interface {
	Factory(docType string) (func() document.Document, bool)
}
