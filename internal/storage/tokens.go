// Package storage persists user-registered ERC-20 token definitions,
// with in-memory and MySQL backends behind one interface.
package storage

import (
	"context"
	"strings"
	"time"

	"mantra-sdk/internal/errors"
)

// Token is a registered ERC-20 token definition. Addresses are stored
// lowercased so lookups are case-insensitive.
type Token struct {
	ChainID   uint64    `json:"chain_id"`
	Address   string    `json:"address"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Decimals  uint8     `json:"decimals"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Token sources.
const (
	SourceBuiltin    = "builtin"
	SourceCustom     = "custom"
	SourceDiscovered = "discovered"
)

// TokenStore persists token definitions keyed by chain id and address.
type TokenStore interface {
	Put(ctx context.Context, token Token) error
	Get(ctx context.Context, chainID uint64, address string) (*Token, error)
	List(ctx context.Context, chainID uint64) ([]Token, error)
	Delete(ctx context.Context, chainID uint64, address string) error
	Close() error
}

func normalizeToken(token *Token) error {
	token.Address = strings.ToLower(strings.TrimSpace(token.Address))
	if token.Address == "" {
		return errors.New(errors.CodeInvalidArgument, "token address is required")
	}
	if token.Symbol == "" {
		return errors.New(errors.CodeInvalidArgument, "token symbol is required")
	}
	if token.Source == "" {
		token.Source = SourceCustom
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	return nil
}
