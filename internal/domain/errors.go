package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownType signals an explicitly requested type with no registry binding.
	ErrUnknownType = errors.New("unknown type")
	// ErrQueryBuild signals a malformed query or search parameter.
	ErrQueryBuild = errors.New("query build failed")
	// ErrIndexing signals a persistence or transmission failure during bulk indexing.
	ErrIndexing = errors.New("indexing failed")
	// ErrBackendCall signals a failed search or count call against the backend.
	ErrBackendCall = errors.New("backend call failed")
	// ErrInvalidTarget signals an index/unindex call without a target shape.
	ErrInvalidTarget = errors.New("invalid bulk target")
	// ErrRebuild signals that a hit could not be turned back into a domain object.
	ErrRebuild = errors.New("rebuild failed")
	// ErrRecordNotFound signals a persisted record that does not exist.
	ErrRecordNotFound = errors.New("record not found")
)

// UnknownTypeError wraps ErrUnknownType with the specifiers that did not resolve.
type UnknownTypeError struct {
	Names []string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownType.Error(), strings.Join(e.Names, ", "))
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// NewUnknownType creates an unknown type error.
func NewUnknownType(names ...string) error {
	return &UnknownTypeError{Names: names}
}

// QueryBuildError wraps ErrQueryBuild with the offending part of the request.
type QueryBuildError struct {
	Part string
	Err  error
}

func (e *QueryBuildError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrQueryBuild.Error(), e.Part, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *QueryBuildError) Unwrap() []error { return []error{ErrQueryBuild, e.Err} }

// NewQueryBuild creates a query build error for the given request part.
func NewQueryBuild(part string, err error) error {
	return &QueryBuildError{Part: part, Err: err}
}

// IndexingError wraps ErrIndexing with the type and stage that failed.
type IndexingError struct {
	Type  string
	Stage string
	Err   error
}

func (e *IndexingError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("%s: %s: %v", ErrIndexing.Error(), e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrIndexing.Error(), e.Type, e.Stage, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *IndexingError) Unwrap() []error { return []error{ErrIndexing, e.Err} }

// NewIndexing creates an indexing error.
func NewIndexing(typeName, stage string, err error) error {
	return &IndexingError{Type: typeName, Stage: stage, Err: err}
}

// BackendCallError wraps ErrBackendCall with the backend operation.
type BackendCallError struct {
	Op  string
	Err error
}

func (e *BackendCallError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackendCall.Error(), e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause.
func (e *BackendCallError) Unwrap() []error { return []error{ErrBackendCall, e.Err} }

// NewBackendCall creates a backend call error.
func NewBackendCall(op string, err error) error {
	return &BackendCallError{Op: op, Err: err}
}
