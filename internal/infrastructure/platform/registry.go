package platform

import (
	"github.com/possync/backend/internal/domain/integration"
)

// Registry holds the configured delivery platform adapters keyed by their
// platform code. Registration happens once at startup; reads are not
// synchronized.
type Registry struct {
	platforms map[integration.PlatformCode]integration.DeliveryPlatform
	order     []integration.PlatformCode
}

// NewRegistry creates an empty platform registry
func NewRegistry() *Registry {
	return &Registry{
		platforms: make(map[integration.PlatformCode]integration.DeliveryPlatform),
		order:     make([]integration.PlatformCode, 0),
	}
}

// Register adds a platform adapter, replacing any prior adapter for the same
// code
func (r *Registry) Register(p integration.DeliveryPlatform) {
	code := p.PlatformCode()
	if _, exists := r.platforms[code]; !exists {
		r.order = append(r.order, code)
	}
	r.platforms[code] = p
}

// GetPlatform returns the platform adapter for the specified code
func (r *Registry) GetPlatform(code integration.PlatformCode) (integration.DeliveryPlatform, error) {
	p, ok := r.platforms[code]
	if !ok {
		return nil, integration.ErrPlatformNotRegistered
	}
	return p, nil
}

// ListPlatforms returns all registered platform adapters in registration
// order
func (r *Registry) ListPlatforms() []integration.DeliveryPlatform {
	out := make([]integration.DeliveryPlatform, 0, len(r.platforms))
	for _, code := range r.order {
		out = append(out, r.platforms[code])
	}
	return out
}

// Ensure Registry implements PlatformRegistry
var _ integration.PlatformRegistry = (*Registry)(nil)
