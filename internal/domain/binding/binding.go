package binding

import (
	"errors"
	"strings"

	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// Binding is the resolved (index, document type, root) triple of a registry type.
type Binding struct {
	typeID  document.TypeID
	index   string
	docType string
	root    bool
}

// New validates and creates a binding. The index name is lowercased;
// an empty document type name defaults to the type id.
func New(typeID document.TypeID, index, docType string, root bool) (Binding, error) {
	if typeID == "" {
		return Binding{}, errors.New("type id is required")
	}
	index = strings.ToLower(strings.TrimSpace(index))
	if index == "" {
		return Binding{}, errors.New("index name is required")
	}
	if strings.HasPrefix(index, "_") || strings.ContainsAny(index, " ,*\"\\/?<>|#") {
		return Binding{}, errors.New("index name contains invalid characters")
	}
	if docType == "" {
		docType = string(typeID)
	}
	return Binding{typeID: typeID, index: index, docType: docType, root: root}, nil
}

// MustNew calls New and panics on error.
func MustNew(typeID document.TypeID, index, docType string, root bool) Binding {
	b, err := New(typeID, index, docType, root)
	if err != nil {
		panic(err)
	}
	return b
}

// Type returns the registry type id.
func (b Binding) Type() document.TypeID { return b.typeID }

// Index returns the bound index name.
func (b Binding) Index() string { return b.index }

// DocType returns the backend document type name.
func (b Binding) DocType() string { return b.docType }

// Root reports whether the type is indexed as an independent top-level document.
func (b Binding) Root() bool { return b.root }
