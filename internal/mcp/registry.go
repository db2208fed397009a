package mcp

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/protocols/evm"
	"mantra-sdk/internal/storage"
	"mantra-sdk/pkg/logger"
)

// TokenRefreshTTL bounds how long a discovered token's metadata is
// trusted before it is fetched again.
const TokenRefreshTTL = 600 * time.Second

// builtinTokens are shipped with the SDK and cannot be removed.
var builtinTokens = []storage.Token{
	{ChainID: 5887, Address: "0x57e27b8a4d44fcd11e2e4b1d6a1b7a6c4b3c2c77", Symbol: "WOM", Name: "Wrapped OM", Decimals: 18, Source: storage.SourceBuiltin},
	{ChainID: 5887, Address: "0x3c2e4b1d6a1b7a6c4b3c2c7757e27b8a4d44fcd1", Symbol: "USDC", Name: "USD Coin", Decimals: 6, Source: storage.SourceBuiltin},
	{ChainID: 5888, Address: "0x8a4d44fcd11e2e4b1d6a1b7a6c4b3c2c7757e27b", Symbol: "WOM", Name: "Wrapped OM", Decimals: 18, Source: storage.SourceBuiltin},
}

type registryKey struct {
	chainID uint64
	address string
}

type discovered struct {
	token     storage.Token
	refreshAt time.Time
}

// TokenRegistry resolves ERC-20 metadata from three layers: built-in
// tokens, the custom store, and on-chain discovery cached for
// TokenRefreshTTL.
type TokenRegistry struct {
	store storage.TokenStore
	erc20 *evm.ERC20
	ttl   time.Duration
	log   *slog.Logger

	mu         sync.RWMutex
	builtins   map[registryKey]storage.Token
	discovered map[registryKey]discovered
}

// NewTokenRegistry builds a registry over a custom-token store. The
// ERC-20 helper is optional; without it discovery is disabled.
func NewTokenRegistry(store storage.TokenStore, erc20 *evm.ERC20) *TokenRegistry {
	r := &TokenRegistry{
		store:      store,
		erc20:      erc20,
		ttl:        TokenRefreshTTL,
		log:        logger.Named("tokens"),
		builtins:   make(map[registryKey]storage.Token),
		discovered: make(map[registryKey]discovered),
	}
	for _, token := range builtinTokens {
		r.builtins[registryKey{token.ChainID, token.Address}] = token
	}
	return r
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// List returns built-in plus stored tokens for a chain. A stored token
// at a built-in address does not shadow the built-in.
func (r *TokenRegistry) List(ctx context.Context, chainID uint64) ([]storage.Token, error) {
	stored, err := r.store.List(ctx, chainID)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]storage.Token, 0, len(r.builtins)+len(stored))
	seen := make(map[string]bool)
	for key, token := range r.builtins {
		if key.chainID == chainID {
			out = append(out, token)
			seen[key.address] = true
		}
	}
	r.mu.RUnlock()

	for _, token := range stored {
		if !seen[token.Address] {
			out = append(out, token)
		}
	}
	return out, nil
}

// Add registers a custom token. Built-in addresses cannot be redefined.
func (r *TokenRegistry) Add(ctx context.Context, token storage.Token) error {
	token.Address = normalizeAddress(token.Address)
	key := registryKey{token.ChainID, token.Address}

	r.mu.RLock()
	_, isBuiltin := r.builtins[key]
	r.mu.RUnlock()
	if isBuiltin {
		return errors.Newf(errors.CodeInvalidArgument,
			"token %s is built in and cannot be redefined", token.Address)
	}
	token.Source = storage.SourceCustom
	return r.store.Put(ctx, token)
}

// Remove drops a custom token. Built-ins cannot be removed.
func (r *TokenRegistry) Remove(ctx context.Context, chainID uint64, address string) error {
	address = normalizeAddress(address)
	key := registryKey{chainID, address}

	r.mu.RLock()
	_, isBuiltin := r.builtins[key]
	r.mu.RUnlock()
	if isBuiltin {
		return errors.Newf(errors.CodeInvalidArgument,
			"token %s is built in and cannot be removed", address)
	}

	r.mu.Lock()
	delete(r.discovered, key)
	r.mu.Unlock()
	return r.store.Delete(ctx, chainID, address)
}

// Resolve finds a token by address: built-ins first, then the store,
// then on-chain discovery. Discovered metadata is persisted with the
// discovered source and refreshed after the TTL.
func (r *TokenRegistry) Resolve(ctx context.Context, chainID uint64, address string) (*storage.Token, error) {
	address = normalizeAddress(address)
	if address == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "token address is required")
	}
	key := registryKey{chainID, address}

	r.mu.RLock()
	if token, ok := r.builtins[key]; ok {
		r.mu.RUnlock()
		return &token, nil
	}
	if entry, ok := r.discovered[key]; ok && time.Now().Before(entry.refreshAt) {
		r.mu.RUnlock()
		token := entry.token
		return &token, nil
	}
	r.mu.RUnlock()

	stored, err := r.store.Get(ctx, chainID, address)
	switch {
	case err == nil && stored.Source != storage.SourceDiscovered:
		return stored, nil
	case err != nil && errors.CodeOf(err) != errors.CodeNotFound:
		return nil, err
	}

	// stale or missing discovered entry: refresh from chain, falling back
	// to the stored copy when the endpoint is unreachable
	refreshed, discErr := r.discover(ctx, chainID, key)
	if discErr != nil {
		if stored != nil {
			r.log.Warn("token refresh failed, serving stored copy",
				"address", address, "error", discErr)
			return stored, nil
		}
		return nil, discErr
	}
	return refreshed, nil
}

func (r *TokenRegistry) discover(ctx context.Context, chainID uint64, key registryKey) (*storage.Token, error) {
	if r.erc20 == nil {
		return nil, errors.Newf(errors.CodeNotFound,
			"token %s not registered on chain %d", key.address, chainID)
	}

	meta, err := r.erc20.Metadata(ctx, common.HexToAddress(key.address))
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "discover token metadata")
	}
	token := storage.Token{
		ChainID:  chainID,
		Address:  key.address,
		Symbol:   meta.Symbol,
		Name:     meta.Name,
		Decimals: meta.Decimals,
		Source:   storage.SourceDiscovered,
	}
	if err := r.store.Put(ctx, token); err != nil {
		r.log.Warn("persist discovered token", "address", key.address, "error", err)
	}

	r.mu.Lock()
	r.discovered[key] = discovered{token: token, refreshAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	r.log.Info("token discovered", "chain_id", chainID, "address", key.address, "symbol", token.Symbol)
	return &token, nil
}
