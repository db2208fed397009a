package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/protocols/dex"
)

func (s *Server) registerDexTools() {
	s.mcp.AddTool(mcp.NewTool("dex_pools",
		mcp.WithDescription("List pools on the pool manager, optionally paginated."),
		mcp.WithString("start_after", mcp.Description("Pool identifier to resume after")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of pools")),
	), s.handleDexPools)

	s.mcp.AddTool(mcp.NewTool("dex_pool",
		mcp.WithDescription("Fetch one pool by identifier."),
		mcp.WithString("pool_id", mcp.Required(), mcp.Description("Pool identifier")),
	), s.handleDexPool)

	s.mcp.AddTool(mcp.NewTool("dex_simulate_swap",
		mcp.WithDescription("Simulate a swap and report the return amount, spread, and fees."),
		mcp.WithString("pool_id", mcp.Required(), mcp.Description("Pool identifier")),
		mcp.WithString("offer_denom", mcp.Required(), mcp.Description("Denom offered")),
		mcp.WithString("offer_amount", mcp.Required(), mcp.Description("Amount offered, base units")),
		mcp.WithString("ask_denom", mcp.Required(), mcp.Description("Denom asked for")),
	), s.handleDexSimulateSwap)

	s.mcp.AddTool(mcp.NewTool("dex_swap",
		mcp.WithDescription("Build a swap message for the active wallet. The message is returned unbroadcast."),
		mcp.WithString("pool_id", mcp.Required(), mcp.Description("Pool identifier")),
		mcp.WithString("offer_denom", mcp.Required(), mcp.Description("Denom offered")),
		mcp.WithString("offer_amount", mcp.Required(), mcp.Description("Amount offered, base units")),
		mcp.WithString("ask_denom", mcp.Required(), mcp.Description("Denom asked for")),
		mcp.WithString("max_spread", mcp.Description("Maximum spread tolerance, e.g. 0.01")),
		mcp.WithString("receiver", mcp.Description("Optional alternate receiver address")),
	), s.handleDexSwap)

	s.mcp.AddTool(mcp.NewTool("dex_provide_liquidity",
		mcp.WithDescription("Build a liquidity deposit for the active wallet."),
		mcp.WithString("pool_id", mcp.Required(), mcp.Description("Pool identifier")),
		mcp.WithString("assets", mcp.Required(), mcp.Description(`Deposit as JSON, e.g. [{"denom":"uom","amount":"1000000"}]`)),
		mcp.WithString("slippage_tolerance", mcp.Description("Slippage tolerance, e.g. 0.01")),
	), s.handleDexProvideLiquidity)

	s.mcp.AddTool(mcp.NewTool("dex_withdraw_liquidity",
		mcp.WithDescription("Build an LP share withdrawal for the active wallet."),
		mcp.WithString("pool_id", mcp.Required(), mcp.Description("Pool identifier")),
		mcp.WithString("amount", mcp.Required(), mcp.Description("LP share amount to burn")),
	), s.handleDexWithdrawLiquidity)
}

func (s *Server) activeCosmosAddress() (string, error) {
	w, _, err := s.adapter.Wallets().Active()
	if err != nil {
		return "", err
	}
	return w.CosmosAddress()
}

func parseDecimalArg(value, name string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidArgument, err, "parse "+name)
	}
	return &d, nil
}

func (s *Server) handleDexPools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dexClient, err := s.adapter.SDK().Dex()
	if err != nil {
		return toolError(err)
	}
	query := dex.PoolsQuery{
		StartAfter: req.GetString("start_after", ""),
		Limit:      uint32(req.GetInt("limit", 0)),
	}
	key := fmt.Sprintf("dex:pools:%s:%s:%d", s.adapter.SDK().Network().Network, query.StartAfter, query.Limit)
	raw, err := s.adapter.cachedJSON(ctx, key, func() (any, error) {
		return dexClient.Pools(ctx, query)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleDexPool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dexClient, err := s.adapter.SDK().Dex()
	if err != nil {
		return toolError(err)
	}
	poolID, err := req.RequireString("pool_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return dexClient.Pool(ctx, poolID)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleDexSimulateSwap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dexClient, err := s.adapter.SDK().Dex()
	if err != nil {
		return toolError(err)
	}
	poolID, err := req.RequireString("pool_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offerDenom, err := req.RequireString("offer_denom")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offerAmount, err := req.RequireString("offer_amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	askDenom, err := req.RequireString("ask_denom")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, err := s.adapter.callJSON(ctx, func() (any, error) {
		return dexClient.SimulateSwap(ctx, poolID,
			cosmos.Coin{Denom: offerDenom, Amount: offerAmount}, askDenom)
	})
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleDexSwap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dexClient, err := s.adapter.SDK().Dex()
	if err != nil {
		return toolError(err)
	}
	sender, err := s.activeCosmosAddress()
	if err != nil {
		return toolError(err)
	}
	poolID, err := req.RequireString("pool_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offerDenom, err := req.RequireString("offer_denom")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offerAmount, err := req.RequireString("offer_amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	askDenom, err := req.RequireString("ask_denom")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	maxSpread, err := parseDecimalArg(req.GetString("max_spread", ""), "max_spread")
	if err != nil {
		return toolError(err)
	}

	result, err := dexClient.Swap(ctx, sender, dex.SwapParams{
		PoolID:        poolID,
		OfferAsset:    cosmos.Coin{Denom: offerDenom, Amount: offerAmount},
		AskAssetDenom: askDenom,
		MaxSpread:     maxSpread,
		Receiver:      req.GetString("receiver", ""),
	})
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleDexProvideLiquidity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dexClient, err := s.adapter.SDK().Dex()
	if err != nil {
		return toolError(err)
	}
	sender, err := s.activeCosmosAddress()
	if err != nil {
		return toolError(err)
	}
	poolID, err := req.RequireString("pool_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	assetsJSON, err := req.RequireString("assets")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var assets []cosmos.Coin
	if err := json.Unmarshal([]byte(assetsJSON), &assets); err != nil {
		return toolError(errors.Wrap(errors.CodeInvalidArgument, err, "parse assets"))
	}
	slippage, err := parseDecimalArg(req.GetString("slippage_tolerance", ""), "slippage_tolerance")
	if err != nil {
		return toolError(err)
	}

	result, err := dexClient.ProvideLiquidity(ctx, sender, dex.ProvideLiquidityParams{
		PoolID:            poolID,
		Assets:            assets,
		SlippageTolerance: slippage,
	})
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleDexWithdrawLiquidity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dexClient, err := s.adapter.SDK().Dex()
	if err != nil {
		return toolError(err)
	}
	sender, err := s.activeCosmosAddress()
	if err != nil {
		return toolError(err)
	}
	poolID, err := req.RequireString("pool_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	amount, err := req.RequireString("amount")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := dexClient.WithdrawLiquidity(ctx, sender, dex.WithdrawLiquidityParams{
		PoolID: poolID,
		Amount: amount,
	})
	if err != nil {
		return toolError(err)
	}
	raw, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(raw)), nil
}
