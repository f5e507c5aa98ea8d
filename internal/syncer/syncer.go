// Package syncer implements the catalog synchronization procedures:
// importing a provider account's catalog into the local mirror, comparing
// two accounts' catalogs, and pushing missing entities across accounts
// with lineage-guarded idempotency.
package syncer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/errors"
	"catalog-sync/internal/logging"
	"catalog-sync/internal/provider"
)

// ProviderAPI is the provider client surface the syncer depends on.
// *provider.Client satisfies it; tests substitute fakes.
type ProviderAPI interface {
	Get(ctx context.Context, path string, params map[string]string) (map[string]interface{}, error)
	Request(ctx context.Context, method, path string, params map[string]string) (map[string]interface{}, error)
	PaginateAll(ctx context.Context, path string, params map[string]string) ([]map[string]interface{}, error)
}

// ClientFactory builds a provider client for one instance's credentials
type ClientFactory func(inst *catalog.Instance) ProviderAPI

// NewClientFactory returns the production factory backed by the real
// provider client
func NewClientFactory(baseURL string, timeout time.Duration) ClientFactory {
	return func(inst *catalog.Instance) ProviderAPI {
		return provider.NewClient(baseURL, inst.APIKey, timeout)
	}
}

// Engine drives all catalog synchronization operations. Every operation is
// one sequential unit of work: per-item failures are isolated and
// reported, never retried.
type Engine struct {
	store   *catalog.Store
	clients ClientFactory
	match   MatchStrategy
	log     *zap.Logger
}

// NewEngine creates an engine over a store and a client factory
func NewEngine(store *catalog.Store, clients ClientFactory) *Engine {
	return &Engine{
		store:   store,
		clients: clients,
		match:   NameMatch{},
		log:     logging.Logger,
	}
}

// WithMatchStrategy overrides the comparator's matching heuristic
func (e *Engine) WithMatchStrategy(m MatchStrategy) *Engine {
	e.match = m
	return e
}

// resolveInstance loads an instance and fails fast, before any network
// call, when it is unknown, inactive, or has no usable API key.
func (e *Engine) resolveInstance(ctx context.Context, orgID, instanceID string) (*catalog.Instance, error) {
	inst, err := e.store.GetInstance(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, errors.Newf(errors.TypeConfig, "unknown instance: %s", instanceID)
	}
	if !inst.Active {
		return nil, errors.Newf(errors.TypeConfig, "instance %s is inactive", inst.Name)
	}
	if inst.APIKey == "" {
		return nil, errors.Newf(errors.TypeConfig, "instance %s has no API key", inst.Name)
	}
	return inst, nil
}
