package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/skaldic/muse/internal/metrics"
	"go.uber.org/zap"
)

// Router holds the registered providers and routes each agent's
// generation requests, falling back down a per-agent chain when the
// primary backend fails. Every backend call and failure is counted.
type Router struct {
	providers map[string]Provider
	bindings  map[string]string   // agentID -> providerID
	fallbacks map[string][]string // agentID -> fallback provider chain
	defaults  string              // default provider ID
	mu        sync.RWMutex
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewRouter creates a new provider router.
func NewRouter(m *metrics.Metrics, logger *zap.Logger) *Router {
	return &Router{
		providers: make(map[string]Provider),
		bindings:  make(map[string]string),
		fallbacks: make(map[string][]string),
		metrics:   m,
		logger:    logger,
	}
}

// Register adds a provider. The first one registered becomes the default.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
	if r.defaults == "" {
		r.defaults = p.ID()
	}
	r.logger.Info("registered provider", zap.String("id", p.ID()), zap.String("name", p.Name()))
}

// SetDefault sets the default provider.
func (r *Router) SetDefault(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = providerID
}

// DefaultID returns the current default provider ID.
func (r *Router) DefaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults
}

// Bind associates an agent with a specific provider.
func (r *Router) Bind(agentID, providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[agentID] = providerID
}

// SetFallbacks configures fallback providers for an agent.
func (r *Router) SetFallbacks(agentID string, providerIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks[agentID] = providerIDs
}

// Generate routes one prompt through the agent's provider, walking the
// fallback chain when the primary fails.
func (r *Router) Generate(ctx context.Context, agentID, prompt string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary := r.providerFor(agentID)
	if primary == nil {
		return "", fmt.Errorf("agent %s: %w", agentID, ErrNoProvider)
	}

	r.metrics.GenerationCalls.Add(1)
	text, err := primary.Generate(ctx, prompt)
	if err == nil {
		return text, nil
	}
	r.metrics.GenerationFailures.Add(1)
	if ctx.Err() != nil {
		return "", err
	}
	r.logger.Warn("primary provider failed, trying fallbacks",
		zap.String("agent", agentID), zap.Error(err))

	for _, fbID := range r.fallbacks[agentID] {
		fb, ok := r.providers[fbID]
		if !ok {
			continue
		}
		r.metrics.GenerationCalls.Add(1)
		text, err = fb.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		r.metrics.GenerationFailures.Add(1)
		r.logger.Warn("fallback provider failed", zap.String("provider", fbID), zap.Error(err))
	}

	return "", fmt.Errorf("all providers failed for agent %s: %w", agentID, err)
}

func (r *Router) providerFor(agentID string) Provider {
	if pid, ok := r.bindings[agentID]; ok {
		if p, ok := r.providers[pid]; ok {
			return p
		}
	}
	if p, ok := r.providers[r.defaults]; ok {
		return p
	}
	return nil
}

// GetProvider returns a provider by ID.
func (r *Router) GetProvider(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// ListProviders returns all registered providers.
func (r *Router) ListProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		result = append(result, p)
	}
	return result
}
