package mcp

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/mark3labs/mcp-go/mcp"

	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/protocols/evm"
	"mantra-sdk/internal/storage"
)

func (s *Server) registerEVMTools() {
	s.mcp.AddTool(mcp.NewTool("evm_balance",
		mcp.WithDescription("Native balance of an EVM address, defaulting to the active wallet."),
		mcp.WithString("address", mcp.Description("0x address; default is the active wallet")),
	), s.handleEVMBalance)

	s.mcp.AddTool(mcp.NewTool("evm_call",
		mcp.WithDescription("Execute a read-only contract call."),
		mcp.WithString("to", mcp.Required(), mcp.Description("Contract address")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Hex calldata")),
	), s.handleEVMCall)

	s.mcp.AddTool(mcp.NewTool("evm_estimate_gas",
		mcp.WithDescription("Estimate gas for a call, including the standard buffer."),
		mcp.WithString("to", mcp.Description("Target address; omit for contract creation")),
		mcp.WithString("data", mcp.Description("Hex calldata")),
		mcp.WithString("value", mcp.Description("Wei to attach")),
	), s.handleEVMEstimateGas)

	s.mcp.AddTool(mcp.NewTool("evm_send",
		mcp.WithDescription("Sign an EIP-1559 transaction with the active wallet and broadcast it."),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient address")),
		mcp.WithString("value", mcp.Description("Wei to send")),
		mcp.WithString("data", mcp.Description("Hex calldata")),
	), s.handleEVMSend)

	s.mcp.AddTool(mcp.NewTool("evm_logs",
		mcp.WithDescription("Filter contract logs by address and block range."),
		mcp.WithString("address", mcp.Required(), mcp.Description("Contract address")),
		mcp.WithNumber("from_block", mcp.Description("Start block")),
		mcp.WithNumber("to_block", mcp.Description("End block")),
	), s.handleEVMLogs)

	s.mcp.AddTool(mcp.NewTool("evm_erc20_balance",
		mcp.WithDescription("ERC-20 balance of an owner, with token metadata from the registry."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Token contract address")),
		mcp.WithString("owner", mcp.Description("Owner address; default is the active wallet")),
	), s.handleERC20Balance)

	s.mcp.AddTool(mcp.NewTool("evm_erc20_transfer",
		mcp.WithDescription("Transfer ERC-20 tokens from the active wallet."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Token contract address")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient address")),
		mcp.WithString("amount", mcp.Required(), mcp.Description("Amount in the token's base units")),
	), s.handleERC20Transfer)

	s.mcp.AddTool(mcp.NewTool("evm_erc20_approve",
		mcp.WithDescription("Approve a spender for ERC-20 tokens of the active wallet."),
		mcp.WithString("token", mcp.Required(), mcp.Description("Token contract address")),
		mcp.WithString("spender", mcp.Required(), mcp.Description("Spender address")),
		mcp.WithString("amount", mcp.Required(), mcp.Description("Allowance in the token's base units")),
	), s.handleERC20Approve)

	s.mcp.AddTool(mcp.NewTool("evm_token_list",
		mcp.WithDescription("List registered ERC-20 tokens on the active EVM chain."),
	), s.handleTokenList)

	s.mcp.AddTool(mcp.NewTool("evm_token_add",
		mcp.WithDescription("Register a custom ERC-20 token."),
		mcp.WithString("address", mcp.Required(), mcp.Description("Token contract address")),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Token symbol")),
		mcp.WithString("name", mcp.Description("Token name")),
		mcp.WithNumber("decimals", mcp.Description("Token decimals, default 18")),
	), s.handleTokenAdd)

	s.mcp.AddTool(mcp.NewTool("evm_token_remove",
		mcp.WithDescription("Remove a custom ERC-20 token. Built-in tokens cannot be removed."),
		mcp.WithString("address", mcp.Required(), mcp.Description("Token contract address")),
	), s.handleTokenRemove)

	s.mcp.AddTool(mcp.NewTool("evm_decode_tx",
		mcp.WithDescription("Decode calldata against known ABIs and produce a human-readable summary."),
		mcp.WithString("data", mcp.Required(), mcp.Description("Hex calldata")),
		mcp.WithString("to", mcp.Description("Target contract, used in the summary")),
	), s.handleDecodeTx)
}

func parseHexData(arg string) ([]byte, error) {
	arg = strings.TrimPrefix(arg, "0x")
	if arg == "" {
		return nil, nil
	}
	data, err := hex.DecodeString(arg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidArgument, err, "parse hex data")
	}
	return data, nil
}

func parseWei(arg string) (*big.Int, error) {
	if arg == "" {
		return nil, nil
	}
	value, ok := new(big.Int).SetString(arg, 10)
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidArgument, "invalid wei amount %q", arg)
	}
	return value, nil
}

func requireHexAddress(req mcp.CallToolRequest, name string) (common.Address, error) {
	arg, err := req.RequireString(name)
	if err != nil {
		return common.Address{}, errors.Wrap(errors.CodeInvalidArgument, err, name)
	}
	if !common.IsHexAddress(arg) {
		return common.Address{}, errors.Newf(errors.CodeInvalidArgument, "invalid address %q", arg)
	}
	return common.HexToAddress(arg), nil
}

func (s *Server) activeEVMAddress() (common.Address, error) {
	w, _, err := s.adapter.Wallets().Active()
	if err != nil {
		return common.Address{}, err
	}
	return w.EVMAddress()
}

func (s *Server) handleEVMBalance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return toolError(err)
	}

	var account common.Address
	if arg := req.GetString("address", ""); arg != "" {
		if !common.IsHexAddress(arg) {
			return mcp.NewToolResultError("invalid address " + arg), nil
		}
		account = common.HexToAddress(arg)
	} else {
		account, err = s.activeEVMAddress()
		if err != nil {
			return toolError(err)
		}
	}

	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		balance, err := client.Balance(ctx, account)
		if err != nil {
			return nil, err
		}
		return map[string]string{"address": account.Hex(), "balance_wei": balance.String()}, nil
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleEVMCall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return toolError(err)
	}
	to, err := requireHexAddress(req, "to")
	if err != nil {
		return toolError(err)
	}
	dataArg, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := parseHexData(dataArg)
	if err != nil {
		return toolError(err)
	}

	out, err := client.Call(ctx, gethcore.CallMsg{To: &to, Data: data})
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]string{"result": "0x" + hex.EncodeToString(out)})
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleEVMEstimateGas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return toolError(err)
	}

	msg := gethcore.CallMsg{}
	if arg := req.GetString("to", ""); arg != "" {
		if !common.IsHexAddress(arg) {
			return mcp.NewToolResultError("invalid address " + arg), nil
		}
		to := common.HexToAddress(arg)
		msg.To = &to
	}
	if msg.Data, err = parseHexData(req.GetString("data", "")); err != nil {
		return toolError(err)
	}
	if msg.Value, err = parseWei(req.GetString("value", "")); err != nil {
		return toolError(err)
	}
	if from, err := s.activeEVMAddress(); err == nil {
		msg.From = from
	}

	gas, err := client.EstimateGas(ctx, msg)
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]uint64{"gas": gas})
	return mcp.NewToolResultText(string(raw)), nil
}

// buildAndSend assembles, signs, and broadcasts an EIP-1559 transaction
// from the active wallet.
func (s *Server) buildAndSend(ctx context.Context, to common.Address, value *big.Int, data []byte) (string, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return "", err
	}
	w, _, err := s.adapter.Wallets().Active()
	if err != nil {
		return "", err
	}
	from, err := w.EVMAddress()
	if err != nil {
		return "", err
	}

	nonce, err := client.PendingNonce(ctx, from)
	if err != nil {
		return "", err
	}
	fees, err := client.SuggestFees(ctx)
	if err != nil {
		return "", err
	}
	gas, err := client.EstimateGas(ctx, gethcore.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return "", err
	}

	signed, err := w.SignEVMTransaction(&types.DynamicFeeTx{
		ChainID:   client.ChainID(),
		Nonce:     nonce,
		GasTipCap: fees.GasTipCap,
		GasFeeCap: fees.GasFeeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})
	if err != nil {
		return "", err
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	return signed.Hash().Hex(), nil
}

func (s *Server) handleEVMSend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	to, err := requireHexAddress(req, "to")
	if err != nil {
		return toolError(err)
	}
	value, err := parseWei(req.GetString("value", ""))
	if err != nil {
		return toolError(err)
	}
	data, err := parseHexData(req.GetString("data", ""))
	if err != nil {
		return toolError(err)
	}

	hash, err := s.buildAndSend(ctx, to, value, data)
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]string{"tx_hash": hash})
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleEVMLogs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return toolError(err)
	}
	address, err := requireHexAddress(req, "address")
	if err != nil {
		return toolError(err)
	}

	query := gethcore.FilterQuery{Addresses: []common.Address{address}}
	if from := req.GetInt("from_block", 0); from > 0 {
		query.FromBlock = big.NewInt(int64(from))
	}
	if to := req.GetInt("to_block", 0); to > 0 {
		query.ToBlock = big.NewInt(int64(to))
	}

	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return client.Logs(ctx, query)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleERC20Balance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return toolError(err)
	}
	token, err := requireHexAddress(req, "token")
	if err != nil {
		return toolError(err)
	}

	var owner common.Address
	if arg := req.GetString("owner", ""); arg != "" {
		if !common.IsHexAddress(arg) {
			return mcp.NewToolResultError("invalid address " + arg), nil
		}
		owner = common.HexToAddress(arg)
	} else {
		owner, err = s.activeEVMAddress()
		if err != nil {
			return toolError(err)
		}
	}

	erc20, err := evm.NewERC20(client)
	if err != nil {
		return toolError(err)
	}
	balance, err := erc20.BalanceOf(ctx, token, owner)
	if err != nil {
		return toolError(err)
	}

	out := map[string]any{
		"token":   token.Hex(),
		"owner":   owner.Hex(),
		"balance": balance.String(),
	}
	chainID := client.ChainID().Uint64()
	if meta, err := s.adapter.Tokens().Resolve(ctx, chainID, token.Hex()); err == nil {
		out["symbol"] = meta.Symbol
		out["decimals"] = meta.Decimals
	}
	raw, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleERC20Transfer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return toolError(err)
	}
	token, err := requireHexAddress(req, "token")
	if err != nil {
		return toolError(err)
	}
	to, err := requireHexAddress(req, "to")
	if err != nil {
		return toolError(err)
	}
	amountArg, err := req.RequireString("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := parseWei(amountArg)
	if err != nil || amount == nil {
		return toolError(errors.Newf(errors.CodeInvalidArgument, "invalid amount %q", amountArg))
	}

	erc20, err := evm.NewERC20(client)
	if err != nil {
		return toolError(err)
	}
	data, err := erc20.TransferData(to, amount)
	if err != nil {
		return toolError(err)
	}

	hash, err := s.buildAndSend(ctx, token, nil, data)
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]string{"tx_hash": hash, "token": token.Hex()})
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleERC20Approve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, err := s.adapter.SDK().EVM()
	if err != nil {
		return toolError(err)
	}
	token, err := requireHexAddress(req, "token")
	if err != nil {
		return toolError(err)
	}
	spender, err := requireHexAddress(req, "spender")
	if err != nil {
		return toolError(err)
	}
	amountArg, err := req.RequireString("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := parseWei(amountArg)
	if err != nil || amount == nil {
		return toolError(errors.Newf(errors.CodeInvalidArgument, "invalid amount %q", amountArg))
	}

	erc20, err := evm.NewERC20(client)
	if err != nil {
		return toolError(err)
	}
	data, err := erc20.ApproveData(spender, amount)
	if err != nil {
		return toolError(err)
	}

	hash, err := s.buildAndSend(ctx, token, nil, data)
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]string{"tx_hash": hash, "token": token.Hex()})
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) activeEVMChainID() uint64 {
	if client, err := s.adapter.SDK().EVM(); err == nil {
		return client.ChainID().Uint64()
	}
	return s.adapter.SDK().Network().EVMChainID
}

func (s *Server) handleTokenList(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokens, err := s.adapter.Tokens().List(ctx, s.activeEVMChainID())
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(tokens)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleTokenAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, err := requireHexAddress(req, "address")
	if err != nil {
		return toolError(err)
	}
	symbol, err := req.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	token := storage.Token{
		ChainID:  s.activeEVMChainID(),
		Address:  address.Hex(),
		Symbol:   symbol,
		Name:     req.GetString("name", ""),
		Decimals: uint8(req.GetInt("decimals", 18)),
	}
	if err := s.adapter.Tokens().Add(ctx, token); err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]string{"added": strings.ToLower(address.Hex())})
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleTokenRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address, err := requireHexAddress(req, "address")
	if err != nil {
		return toolError(err)
	}
	if err := s.adapter.Tokens().Remove(ctx, s.activeEVMChainID(), address.Hex()); err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(map[string]string{"removed": strings.ToLower(address.Hex())})
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleDecodeTx(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dataArg, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := parseHexData(dataArg)
	if err != nil {
		return toolError(err)
	}
	if s.decoder == nil {
		return toolError(errors.New(errors.CodeUnsupported, "calldata decoder unavailable"))
	}

	call, err := s.decoder.Decode(data)
	if err != nil {
		return toolError(err)
	}
	out := map[string]any{"decoded": call}
	if arg := req.GetString("to", ""); common.IsHexAddress(arg) {
		out["summary"] = evm.NarrateCall(call, common.HexToAddress(arg), nil)
	} else {
		out["summary"] = fmt.Sprintf("call %s with %d args", call.Method, len(call.Args))
	}
	raw, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(raw)), nil
}
