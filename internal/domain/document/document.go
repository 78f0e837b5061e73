package document

import (
	"encoding/json"
	"errors"
	"reflect"
)

// TypeID names a domain type known to the registry.
type TypeID string

// Document is a domain object that can be sent to the search backend.
type Document interface {
	// DocumentID returns the identifier the backend stores the document under.
	DocumentID() string
	// DocumentType returns the registry type of the object.
	DocumentType() TypeID
}

// IsNil reports whether doc is nil or holds a nil pointer.
func IsNil(doc Document) bool {
	if doc == nil {
		return true
	}
	v := reflect.ValueOf(doc)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// Raw is a schemaless document: an id, a type and a free-form field map.
// It lets config-declared types flow through indexing and rebuilding without a Go struct.
type Raw struct {
	id     string
	typeID TypeID
	fields map[string]any
}

// NewRaw creates a schemaless document.
func NewRaw(id string, typeID TypeID, fields map[string]any) (*Raw, error) {
	if id == "" {
		return nil, errors.New("document id is required")
	}
	if typeID == "" {
		return nil, errors.New("document type is required")
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Raw{id: id, typeID: typeID, fields: fields}, nil
}

// RawFactory returns a constructor of empty Raw documents for the given type.
func RawFactory(typeID TypeID) func() Document {
	return func() Document {
		return &Raw{typeID: typeID, fields: make(map[string]any)}
	}
}

// DocumentID returns the document identifier.
func (r *Raw) DocumentID() string { return r.id }

// DocumentType returns the document type.
func (r *Raw) DocumentType() TypeID { return r.typeID }

// Fields returns the document fields.
func (r *Raw) Fields() map[string]any { return r.fields }

// IDField is the source key a Raw document keeps its identifier under.
const IDField = "id"

// MarshalJSON encodes the fields with the id under IDField.
func (r *Raw) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.fields)+1)
	for k, v := range r.fields {
		out[k] = v
	}
	out[IDField] = r.id
	return json.Marshal(out)
}

// UnmarshalJSON decodes a source object, lifting IDField into the identifier.
func (r *Raw) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err //nolint:wrapcheck // json.Unmarshaler contract
	}
	if id, ok := fields[IDField].(string); ok {
		r.id = id
	}
	delete(fields, IDField)
	r.fields = fields
	return nil
}
