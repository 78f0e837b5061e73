// Package scope holds the index and type specifiers that narrow a search.
package scope

import "github.com/kailas-cloud/searchable/internal/domain/document"

// AllIndices is the wildcard index name that addresses every index.
const AllIndices = "_all"

// Form tells which variant of a specifier is active.
type Form int

const (
	// FormAll is the unrestricted variant (the zero value).
	FormAll Form = iota
	// FormNamed lists names verbatim.
	FormNamed
	// FormTyped lists registry types.
	FormTyped
)

// Index selects the indices a request runs against.
type Index struct {
	form  Form
	names []string
	types []document.TypeID
}

// Indices returns the unrestricted index specifier.
func Indices() Index { return Index{} }

// IndexNamed selects indices by name.
func IndexNamed(names ...string) Index { return Index{form: FormNamed, names: names} }

// IndexOf selects the indices bound to the given types.
func IndexOf(types ...document.TypeID) Index { return Index{form: FormTyped, types: types} }

// Form returns the active variant.
func (i Index) Form() Form { return i.form }

// Names returns the index names (FormNamed only).
func (i Index) Names() []string { return i.names }

// Types returns the types (FormTyped only).
func (i Index) Types() []document.TypeID { return i.types }

// Type selects the document types a request is restricted to.
type Type struct {
	form  Form
	names []string
	types []document.TypeID
}

// AnyType returns the unrestricted type specifier.
func AnyType() Type { return Type{} }

// TypeNamed selects types by type id or document type name.
func TypeNamed(names ...string) Type { return Type{form: FormNamed, names: names} }

// TypeOf selects the given registry types.
func TypeOf(types ...document.TypeID) Type { return Type{form: FormTyped, types: types} }

// Form returns the active variant.
func (t Type) Form() Form { return t.form }

// Names returns the names (FormNamed only).
func (t Type) Names() []string { return t.names }

// Types returns the types (FormTyped only).
func (t Type) Types() []document.TypeID { return t.types }
