package resolve

import (
	"github.com/kailas-cloud/searchable/internal/domain/binding"
	"github.com/kailas-cloud/searchable/internal/domain/document"
)

// Registry looks up type bindings.
type Registry interface {
	ByType(t document.TypeID) (binding.Binding, bool)
	ByName(name string) (binding.Binding, bool)
}
