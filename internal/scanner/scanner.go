package scanner

import (
	"context"
	"fmt"
	"sort"

	"SMMAgent/internal/domain"
)

// Endpoint is a concrete feed URL provided by config.
type Endpoint struct {
	Name string
	URL  string
}

// Request carries all parameters required to scan one endpoint.
type Request struct {
	FeedName string
	Endpoint Endpoint
	Options  map[string]string
}

// Scanner captures a single feed format (headline RSS, channel RSS, etc.).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.FeedItem, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry with the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
