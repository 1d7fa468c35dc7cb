package imagesearch

import (
	"context"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

// Provider is one image-search backend.
type Provider interface {
	Name() string
	// Configured reports whether the provider has a credential.
	Configured() bool
	// Search returns the provider-native response body.
	Search(ctx context.Context, keywords []string, limit int) ([]byte, error)
	// Normalize converts a native response into candidates.
	Normalize(raw []byte) ([]domain.ImageCandidate, error)
}

// Registry keeps providers in priority order, highest first.
type Registry struct {
	providers []Provider
}

// NewRegistry registers providers in the given priority order.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register appends p with a lower priority than every provider already present.
// Registering an existing name replaces it in place.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	for i, existing := range r.providers {
		if existing.Name() == p.Name() {
			r.providers[i] = p
			return
		}
	}
	r.providers = append(r.providers, p)
}

// Providers returns the registered providers, highest priority first.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Priority ranks a provider name: larger wins ties. Unknown names rank 0.
func (r *Registry) Priority(name string) int {
	for i, p := range r.providers {
		if p.Name() == name {
			return len(r.providers) - i
		}
	}
	return 0
}
