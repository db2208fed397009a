package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"mantra-sdk/internal/errors"
)

func (s *Server) registerWalletTools() {
	s.mcp.AddTool(mcp.NewTool("wallet_generate",
		mcp.WithDescription("Generate a new wallet with a fresh mnemonic. Returns the mnemonic once; store it safely."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique wallet name")),
		mcp.WithNumber("account_index", mcp.Description("HD derivation account index, default 0")),
	), s.handleWalletGenerate)

	s.mcp.AddTool(mcp.NewTool("wallet_import",
		mcp.WithDescription("Import a wallet from a BIP-39 mnemonic."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Unique wallet name")),
		mcp.WithString("mnemonic", mcp.Required(), mcp.Description("BIP-39 mnemonic phrase")),
		mcp.WithNumber("account_index", mcp.Description("HD derivation account index, default 0")),
	), s.handleWalletImport)

	s.mcp.AddTool(mcp.NewTool("wallet_list",
		mcp.WithDescription("List managed wallets with their Cosmos and EVM addresses."),
	), s.handleWalletList)

	s.mcp.AddTool(mcp.NewTool("wallet_switch",
		mcp.WithDescription("Make a managed wallet the active one."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Wallet name")),
	), s.handleWalletSwitch)

	s.mcp.AddTool(mcp.NewTool("wallet_remove",
		mcp.WithDescription("Remove a managed wallet and wipe its key material."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Wallet name")),
	), s.handleWalletRemove)

	s.mcp.AddTool(mcp.NewTool("wallet_info",
		mcp.WithDescription("Describe the active wallet: name, addresses, derivation index."),
	), s.handleWalletInfo)

	s.mcp.AddTool(mcp.NewTool("wallet_balances",
		mcp.WithDescription("Bank balances of an address, defaulting to the active wallet."),
		mcp.WithString("address", mcp.Description("Bech32 address; default is the active wallet")),
	), s.handleWalletBalances)

	s.mcp.AddTool(mcp.NewTool("wallet_find",
		mcp.WithDescription("Find which managed wallet and derivation index produces an address. Accepts bech32 or 0x addresses."),
		mcp.WithString("address", mcp.Required(), mcp.Description("Address to search for")),
	), s.handleWalletFind)
}

func (s *Server) handleWalletGenerate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index := uint32(req.GetInt("account_index", 0))

	mnemonic, w, err := s.adapter.Wallets().Generate(name, index)
	if err != nil {
		return toolError(err)
	}
	out := map[string]any{"name": name, "mnemonic": mnemonic, "account_index": index}
	if addr, err := w.CosmosAddress(); err == nil {
		out["cosmos_address"] = addr
	}
	if addr, err := w.EVMAddress(); err == nil {
		out["evm_address"] = addr.Hex()
	}
	raw, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleWalletImport(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mnemonic, err := req.RequireString("mnemonic")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	index := uint32(req.GetInt("account_index", 0))

	w, err := s.adapter.Wallets().Add(name, mnemonic, index)
	if err != nil {
		return toolError(err)
	}
	out := map[string]any{"name": name, "account_index": index}
	if addr, err := w.CosmosAddress(); err == nil {
		out["cosmos_address"] = addr
	}
	if addr, err := w.EVMAddress(); err == nil {
		out["evm_address"] = addr.Hex()
	}
	raw, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleWalletList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(s.adapter.Wallets().List())
	if err != nil {
		return toolError(errors.Wrap(errors.CodeSerialization, err, "encode wallet list"))
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleWalletSwitch(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.adapter.Wallets().SetActive(name); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(`{"active":"` + name + `"}`), nil
}

func (s *Server) handleWalletRemove(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.adapter.Wallets().Remove(name); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(`{"removed":"` + name + `"}`), nil
}

func (s *Server) handleWalletInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, name, err := s.adapter.Wallets().Active()
	if err != nil {
		return toolError(err)
	}
	out := map[string]any{"name": name, "account_index": w.AccountIndex()}
	if addr, err := w.CosmosAddress(); err == nil {
		out["cosmos_address"] = addr
	}
	if addr, err := w.EVMAddress(); err == nil {
		out["evm_address"] = addr.Hex()
	}
	raw, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleWalletBalances(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	if address == "" {
		w, _, err := s.adapter.Wallets().Active()
		if err != nil {
			return toolError(err)
		}
		addr, err := w.CosmosAddress()
		if err != nil {
			return toolError(err)
		}
		address = addr
	}

	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return s.adapter.SDK().Cosmos().AllBalances(ctx, address)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleWalletFind(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, err := req.RequireString("address")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	found, err := s.adapter.Wallets().FindByAddress(address)
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(found)
	return mcp.NewToolResultText(string(raw)), nil
}
