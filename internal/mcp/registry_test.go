package mcp

import (
	"context"
	"testing"

	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/storage"
)

const testTokenAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func TestRegistryBuiltinsProtected(t *testing.T) {
	r := NewTokenRegistry(storage.NewMemoryTokenStore(), nil)
	ctx := context.Background()
	builtin := builtinTokens[0]

	err := r.Add(ctx, storage.Token{
		ChainID: builtin.ChainID,
		Address: builtin.Address,
		Symbol:  "FAKE",
	})
	if errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("Add over builtin: err = %v, want INVALID_ARGUMENT", err)
	}
	if err := r.Remove(ctx, builtin.ChainID, builtin.Address); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("Remove builtin: err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestRegistryResolveBuiltin(t *testing.T) {
	r := NewTokenRegistry(storage.NewMemoryTokenStore(), nil)
	builtin := builtinTokens[0]

	token, err := r.Resolve(context.Background(), builtin.ChainID, builtin.Address)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if token.Symbol != builtin.Symbol || token.Source != storage.SourceBuiltin {
		t.Fatalf("token = %+v, want builtin %s", token, builtin.Symbol)
	}
}

func TestRegistryAddResolveRemove(t *testing.T) {
	r := NewTokenRegistry(storage.NewMemoryTokenStore(), nil)
	ctx := context.Background()

	err := r.Add(ctx, storage.Token{
		ChainID:  5887,
		Address:  testTokenAddr,
		Symbol:   "TEST",
		Name:     "Test Token",
		Decimals: 6,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Addresses normalize to lowercase, so mixed case resolves too.
	token, err := r.Resolve(ctx, 5887, testTokenAddr)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if token.Symbol != "TEST" || token.Source != storage.SourceCustom {
		t.Fatalf("token = %+v", token)
	}

	if err := r.Remove(ctx, 5887, testTokenAddr); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := r.Resolve(ctx, 5887, testTokenAddr); errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("Resolve after Remove: err = %v, want NOT_FOUND", err)
	}
}

func TestRegistryListMergesBuiltins(t *testing.T) {
	r := NewTokenRegistry(storage.NewMemoryTokenStore(), nil)
	ctx := context.Background()

	err := r.Add(ctx, storage.Token{ChainID: 5887, Address: testTokenAddr, Symbol: "TEST"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	tokens, err := r.List(ctx, 5887)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	var builtins, custom int
	for _, token := range tokens {
		switch token.Source {
		case storage.SourceBuiltin:
			builtins++
		case storage.SourceCustom:
			custom++
		}
	}
	if builtins != 2 || custom != 1 {
		t.Fatalf("List = %d builtins and %d custom, want 2 and 1", builtins, custom)
	}

	// Other chains see only their own tokens.
	mainnet, err := r.List(ctx, 5888)
	if err != nil {
		t.Fatalf("List 5888: %v", err)
	}
	if len(mainnet) != 1 {
		t.Fatalf("List 5888 returned %d tokens, want 1", len(mainnet))
	}
}

func TestRegistryResolveUnknownWithoutDiscovery(t *testing.T) {
	r := NewTokenRegistry(storage.NewMemoryTokenStore(), nil)

	_, err := r.Resolve(context.Background(), 5887, "0x000000000000000000000000000000000000dEaD")
	if errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("Resolve unknown: err = %v, want NOT_FOUND", err)
	}
	if _, err := r.Resolve(context.Background(), 5887, ""); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("Resolve empty: err = %v, want INVALID_ARGUMENT", err)
	}
}
