package southbound

import (
	"fmt"
	"sort"

	"github.com/zentel/sim-gateway/internal/platform/config"
	"github.com/zentel/sim-gateway/internal/sim_service/domain"
)

// Registry resolves destination identifiers to their endpoint configuration.
// The configuration is loaded once at startup and read-only afterwards.
type Registry struct {
	endpoints map[string]config.EndpointConfig
}

func NewRegistry(endpoints map[string]config.EndpointConfig) *Registry {
	if endpoints == nil {
		endpoints = map[string]config.EndpointConfig{}
	}
	return &Registry{endpoints: endpoints}
}

// Resolve looks up a destination by exact, case-sensitive identifier match.
// No partial or default-fallback resolution is performed.
func (r *Registry) Resolve(endpointID string) (config.EndpointConfig, error) {
	cfg, ok := r.endpoints[endpointID]
	if !ok {
		return config.EndpointConfig{}, fmt.Errorf("%w: %s (available: %v)",
			domain.ErrUnknownDestination, endpointID, r.knownIDs())
	}
	if !cfg.Enabled {
		return config.EndpointConfig{}, fmt.Errorf("%w: %s", domain.ErrDestinationDisabled, endpointID)
	}
	return cfg, nil
}

func (r *Registry) knownIDs() []string {
	ids := make([]string, 0, len(r.endpoints))
	for id := range r.endpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
