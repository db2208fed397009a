// Package mcp adapts the SDK to a tool-call server: a wallet manager,
// a response cache, an ERC-20 token registry, and the tool handlers
// themselves over stdio or streamable HTTP.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mantrasdk "mantra-sdk"
	"mantra-sdk/internal/cache"
	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/storage"
	"mantra-sdk/pkg/logger"
)

// DefaultCacheTTL applies to cached tool responses.
const DefaultCacheTTL = 300 * time.Second

// Adapter bundles everything the tool handlers need.
type Adapter struct {
	sdk      *mantrasdk.Client
	wallets  *WalletManager
	cache    cache.Cache
	cacheTTL time.Duration
	tokens   *TokenRegistry
	retryCfg RetryConfig
	log      *slog.Logger
}

// AdapterOption customizes the adapter.
type AdapterOption func(*Adapter)

// WithCache swaps the response cache backend.
func WithCache(c cache.Cache, ttl time.Duration) AdapterOption {
	return func(a *Adapter) {
		if c != nil {
			a.cache = c
		}
		if ttl > 0 {
			a.cacheTTL = ttl
		}
	}
}

// WithTokenRegistry swaps the token registry.
func WithTokenRegistry(r *TokenRegistry) AdapterOption {
	return func(a *Adapter) {
		if r != nil {
			a.tokens = r
		}
	}
}

// WithRetry overrides the retry policy for chain-facing calls.
func WithRetry(cfg RetryConfig) AdapterOption {
	return func(a *Adapter) { a.retryCfg = cfg }
}

// NewAdapter wires an adapter over the SDK client. Defaults: in-memory
// cache, in-memory token store, standard retry policy.
func NewAdapter(sdk *mantrasdk.Client, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		sdk:      sdk,
		wallets:  NewWalletManager(sdk.Network()),
		cache:    cache.NewMemory(),
		cacheTTL: DefaultCacheTTL,
		retryCfg: RetryConfig{},
		log:      logger.Named("mcp"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.tokens == nil {
		a.tokens = NewTokenRegistry(storage.NewMemoryTokenStore(), nil)
	}
	return a
}

// SDK exposes the underlying client.
func (a *Adapter) SDK() *mantrasdk.Client { return a.sdk }

// Wallets exposes the wallet manager.
func (a *Adapter) Wallets() *WalletManager { return a.wallets }

// Tokens exposes the token registry.
func (a *Adapter) Tokens() *TokenRegistry { return a.tokens }

// Close releases the cache and zeroes wallet material.
func (a *Adapter) Close() {
	a.wallets.Close()
	if err := a.cache.Close(); err != nil {
		a.log.Warn("close cache", "error", err)
	}
}

// cachedJSON serves a tool response from the cache, computing and
// storing it on a miss. fn's result is marshalled to JSON.
func (a *Adapter) cachedJSON(ctx context.Context, key string, fn func() (any, error)) (string, error) {
	if raw, ok, err := a.cache.Get(ctx, key); err == nil && ok {
		return string(raw), nil
	}

	value, err := fn()
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(errors.CodeSerialization, err, "encode tool response")
	}
	if err := a.cache.Set(ctx, key, raw, a.cacheTTL); err != nil {
		a.log.Warn("cache tool response", "key", key, "error", err)
	}
	return string(raw), nil
}

// callJSON runs a chain-facing call under the retry policy and encodes
// the result.
func (a *Adapter) callJSON(ctx context.Context, fn func() (any, error)) (string, error) {
	var value any
	err := retry(ctx, a.retryCfg, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", errors.Wrap(errors.CodeSerialization, err, "encode tool response")
	}
	return string(raw), nil
}
