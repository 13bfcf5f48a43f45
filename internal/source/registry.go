package source

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/pders01/headlines/internal/config"
)

const (
	KindHTTP       = "http"
	KindGoogleNews = "googlenews"
)

// Factory builds a source from its configuration section.
type Factory func(cfg config.SourceConfig) (ArticleSource, error)

// Registry maps source kinds, as written in the config file, to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows the built-in source kinds.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindHTTP, func(cfg config.SourceConfig) (ArticleSource, error) {
		return NewHTTPSource(cfg)
	})
	r.Register(KindGoogleNews, func(cfg config.SourceConfig) (ArticleSource, error) {
		return NewGoogleNewsSource(cfg), nil
	})
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalizeKind(kind)] = f
}

// New builds the source named by cfg.Kind. An empty kind means http.
func (r *Registry) New(cfg config.SourceConfig) (ArticleSource, error) {
	kind := normalizeKind(cfg.Kind)
	if kind == "" {
		kind = KindHTTP
	}

	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown source kind %q (known: %s)", cfg.Kind, strings.Join(r.Kinds(), ", "))
	}
	return f(cfg)
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// New builds a source from cfg using the built-in kinds.
func New(cfg config.SourceConfig) (ArticleSource, error) {
	return DefaultRegistry().New(cfg)
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
