// Package provider holds the raw fetch contract and the registry of
// (family, provider) implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/frame"
)

var ErrNotRegistered = errors.New("provider not registered")

// Request selects what to fetch. Index is set for per-index families and
// Artifact for factor artifacts.
type Request struct {
	Date     time.Time
	Index    consts.IndexInfo
	Artifact string
}

// Fetcher returns the raw table of one provider; an empty table means no data.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*frame.Table, error)
}

type FetcherFunc func(ctx context.Context, req Request) (*frame.Table, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*frame.Table, error) {
	return f(ctx, req)
}

type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]map[string]Fetcher
}

func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]map[string]Fetcher)}
}

// Register replaces any previous fetcher for the pair.
func (r *Registry) Register(family, provider string, f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchers[family] == nil {
		r.fetchers[family] = make(map[string]Fetcher)
	}
	r.fetchers[family][provider] = f
}

func (r *Registry) Lookup(family, provider string) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[family][provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotRegistered, family, provider)
	}
	return f, nil
}

// Providers lists registered providers of a family, sorted.
func (r *Registry) Providers(family string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.fetchers[family]))
	for p := range r.fetchers[family] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Resolve keeps the providers of order that are registered for family. It
// fails only when none is, which makes the family impossible to serve.
func (r *Registry) Resolve(family string, order []string) ([]string, []error, error) {
	var ok []string
	var missing []error
	for _, p := range order {
		if _, err := r.Lookup(family, p); err != nil {
			missing = append(missing, err)
			continue
		}
		ok = append(ok, p)
	}
	if len(ok) == 0 {
		return nil, missing, fmt.Errorf("%w: no provider for %s among %v", ErrNotRegistered, family, order)
	}
	return ok, missing, nil
}
