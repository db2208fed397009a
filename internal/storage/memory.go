package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mantra-sdk/internal/errors"
)

type tokenKey struct {
	chainID uint64
	address string
}

// MemoryTokenStore keeps token definitions in process memory.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[tokenKey]Token
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[tokenKey]Token)}
}

// Put implements TokenStore. An existing entry is overwritten.
func (s *MemoryTokenStore) Put(_ context.Context, token Token) error {
	if err := normalizeToken(&token); err != nil {
		return err
	}
	s.mu.Lock()
	s.tokens[tokenKey{token.ChainID, token.Address}] = token
	s.mu.Unlock()
	return nil
}

// Get implements TokenStore.
func (s *MemoryTokenStore) Get(_ context.Context, chainID uint64, address string) (*Token, error) {
	key := tokenKey{chainID, strings.ToLower(strings.TrimSpace(address))}
	s.mu.RLock()
	token, ok := s.tokens[key]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "token %s not registered on chain %d", address, chainID)
	}
	return &token, nil
}

// List implements TokenStore, sorted by symbol for stable output.
func (s *MemoryTokenStore) List(_ context.Context, chainID uint64) ([]Token, error) {
	s.mu.RLock()
	out := make([]Token, 0)
	for key, token := range s.tokens {
		if key.chainID == chainID {
			out = append(out, token)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// Delete implements TokenStore. Deleting an absent token is not an
// error.
func (s *MemoryTokenStore) Delete(_ context.Context, chainID uint64, address string) error {
	key := tokenKey{chainID, strings.ToLower(strings.TrimSpace(address))}
	s.mu.Lock()
	delete(s.tokens, key)
	s.mu.Unlock()
	return nil
}

// Close implements TokenStore.
func (s *MemoryTokenStore) Close() error { return nil }
