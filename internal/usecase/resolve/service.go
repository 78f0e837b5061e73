package resolve

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchable/internal/domain"
	"github.com/kailas-cloud/searchable/internal/domain/search/scope"
)

// Service turns index and type specifiers into backend names.
//
// Index resolution is lenient: anything it cannot resolve falls back to every
// index. Type resolution is strict: a type the caller named must exist.
type Service struct {
	registry Registry
	logger   *zap.Logger
}

// New creates a resolver.
func New(registry Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, logger: logger}
}

// Indices resolves an index specifier. The result is never empty.
func (s *Service) Indices(spec scope.Index) []string {
	var out []string
	switch spec.Form() {
	case scope.FormNamed:
		out = uniqueNames(spec.Names(), strings.ToLower)
	case scope.FormTyped:
		names := make([]string, 0, len(spec.Types()))
		for _, t := range spec.Types() {
			b, ok := s.registry.ByType(t)
			if !ok {
				s.logger.Info("no index binding for type, ignoring", zap.String("type", string(t)))
				continue
			}
			names = append(names, b.Index())
		}
		out = uniqueNames(names, nil)
	}
	if len(out) == 0 {
		return []string{scope.AllIndices}
	}
	return out
}

// Types resolves a type specifier to document type names.
// An empty result means "no restriction".
func (s *Service) Types(spec scope.Type) ([]string, error) {
	var (
		names   []string
		unknown []string
	)
	switch spec.Form() {
	case scope.FormAll:
		return nil, nil
	case scope.FormNamed:
		for _, n := range spec.Names() {
			b, ok := s.registry.ByName(strings.TrimSpace(n))
			if !ok {
				unknown = append(unknown, n)
				continue
			}
			names = append(names, b.DocType())
		}
	case scope.FormTyped:
		for _, t := range spec.Types() {
			b, ok := s.registry.ByType(t)
			if !ok {
				unknown = append(unknown, string(t))
				continue
			}
			names = append(names, b.DocType())
		}
	}
	if len(unknown) > 0 {
		return nil, domain.NewUnknownType(unknown...)
	}
	if len(names) == 0 {
		return nil, domain.NewUnknownType("<empty>")
	}
	return uniqueNames(names, nil), nil
}

func uniqueNames(in []string, norm func(string) string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, n := range in {
		n = strings.TrimSpace(n)
		if norm != nil {
			n = norm(n)
		}
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
