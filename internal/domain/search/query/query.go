package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind tells which form of a Spec is active.
type Kind int

const (
	// KindText is a free-text query in the backend's query-string syntax.
	KindText Kind = iota + 1
	// KindStructured is a structured query body in the backend's native format.
	KindStructured
)

// Body is a structured query tree of clauses, serialized as-is to the backend.
type Body map[string]any

// Spec is either a text query or a structured body, never both.
type Spec struct {
	kind Kind
	text string
	body Body
}

// Text creates a free-text query spec.
func Text(q string) Spec { return Spec{kind: KindText, text: q} }

// Structured creates a structured query spec.
func Structured(b Body) Spec { return Spec{kind: KindStructured, body: b} }

// Kind returns the active form (0 for the zero value).
func (s Spec) Kind() Kind { return s.kind }

// Text returns the query string (empty for structured specs).
func (s Spec) Text() string { return s.text }

// Body returns the structured body (nil for text specs).
func (s Spec) Body() Body { return s.body }

// Compiled is a query ready for transmission.
type Compiled struct {
	kind Kind
	text string
	body []byte
}

// Kind returns the compiled form.
func (c Compiled) Kind() Kind { return c.kind }

// Text returns the query-string expression (text form only).
func (c Compiled) Text() string { return c.text }

// Body returns the native JSON bytes (structured form only).
func (c Compiled) Body() []byte { return c.body }

// IsMatchAll reports whether the query places no restriction on documents.
func (c Compiled) IsMatchAll() bool {
	return c.kind != KindStructured && c.text == ""
}

// Compile validates s and serializes a structured body to JSON.
// A zero Spec compiles to an empty text query that matches everything.
func (s Spec) Compile() (Compiled, error) {
	switch s.kind {
	case 0:
		return Compiled{kind: KindText}, nil
	case KindText:
		return Compiled{kind: KindText, text: strings.TrimSpace(s.text)}, nil
	case KindStructured:
		if len(s.body) == 0 {
			return Compiled{}, errors.New("structured query body is empty")
		}
		for k := range s.body {
			if strings.TrimSpace(k) == "" {
				return Compiled{}, errors.New("structured query body has an empty clause name")
			}
		}
		data, err := json.Marshal(s.body)
		if err != nil {
			return Compiled{}, fmt.Errorf("serialize query body: %w", err)
		}
		return Compiled{kind: KindStructured, body: data}, nil
	default:
		return Compiled{}, fmt.Errorf("unknown query kind %d", s.kind)
	}
}
