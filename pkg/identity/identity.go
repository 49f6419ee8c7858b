// Package identity adapts third-party OAuth providers to a normalised user
// record. It only exchanges codes and reads profiles; issuing or checking
// session tokens happens elsewhere.
package identity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrThirdUser is returned whenever a provider cannot produce a user:
	// the upstream call failed or a required field was missing. Details are
	// wrapped but callers should only show a generic message.
	ErrThirdUser = errors.New("identity: cannot fetch third-party user")
	// ErrProviderNotFound is returned for unknown provider names.
	ErrProviderNotFound = errors.New("identity: provider not found")
)

// ThirdUser is the identity a provider vouches for. User holds the raw
// profile as returned upstream.
type ThirdUser struct {
	ID   string         `json:"id"`
	User map[string]any `json:"user"`
}

// Provider exchanges OAuth artefacts for a ThirdUser.
type Provider interface {
	Name() string
	// GetViewer exchanges an authorization code for an access token and
	// returns the user it belongs to.
	GetViewer(ctx context.Context, code string) (ThirdUser, error)
	GetThirdUser(ctx context.Context, accessToken string) (ThirdUser, error)
}

// Registry maps provider names to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds p under its lowercased name. Names must be unique.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("identity: provider is nil")
	}
	name := normalizeName(p.Name())
	if name == "" {
		return errors.New("identity: provider name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("identity: provider %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
