// Package dex is the client for the on-chain pool manager: pool queries,
// swap simulation, and message construction for swaps and liquidity
// management.
package dex

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shopspring/decimal"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/protocols"
	"mantra-sdk/pkg/logger"
)

// Version of the protocol client.
const Version = "1.0.0"

// Client talks to the pool manager contract.
type Client struct {
	rpc      *cosmos.Client
	manager  *config.Manager
	log      *slog.Logger
	contract string
}

// New creates a DEX client. The pool manager address is resolved during
// Initialize so a network switch re-resolves it.
func New(rpc *cosmos.Client, manager *config.Manager) *Client {
	return &Client{
		rpc:     rpc,
		manager: manager,
		log:     logger.Named("dex"),
	}
}

// Name implements protocols.Protocol.
func (c *Client) Name() string { return protocols.IDDex }

// Version implements protocols.Protocol.
func (c *Client) Version() string { return Version }

// Initialize resolves the pool manager contract for the active network.
func (c *Client) Initialize(_ context.Context) error {
	addr, err := c.manager.ContractAddress(config.ContractPoolManager)
	if err != nil {
		return errors.Wrap(errors.CodeConfig, err, "dex requires a pool manager contract")
	}
	c.contract = addr
	c.log.Debug("dex initialized", "pool_manager", addr)
	return nil
}

// IsAvailable reports whether the node answers and the contract is set.
func (c *Client) IsAvailable(ctx context.Context) bool {
	if c.contract == "" {
		return false
	}
	return c.rpc.Healthy(ctx) == nil
}

func (c *Client) requireContract() (string, error) {
	if c.contract == "" {
		return "", errors.New(errors.CodeConfig, "dex client not initialized")
	}
	return c.contract, nil
}

// Pools lists pools with optional pagination.
func (c *Client) Pools(ctx context.Context, q PoolsQuery) ([]PoolEntry, error) {
	contract, err := c.requireContract()
	if err != nil {
		return nil, err
	}

	inner := map[string]any{}
	if q.PoolIdentifier != "" {
		inner["pool_identifier"] = q.PoolIdentifier
	}
	if q.StartAfter != "" {
		inner["start_after"] = q.StartAfter
	}
	if q.Limit > 0 {
		inner["limit"] = q.Limit
	}

	var resp PoolsResponse
	if err := c.rpc.SmartQuery(ctx, contract, map[string]any{"pools": inner}, &resp); err != nil {
		return nil, err
	}
	return resp.Pools, nil
}

// Pool fetches a single pool by identifier.
func (c *Client) Pool(ctx context.Context, poolID string) (*PoolEntry, error) {
	if poolID == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "pool identifier is required")
	}
	pools, err := c.Pools(ctx, PoolsQuery{PoolIdentifier: poolID})
	if err != nil {
		return nil, err
	}
	if len(pools) == 0 {
		return nil, errors.Newf(errors.CodeNotFound, "pool %s not found", poolID)
	}
	return &pools[0], nil
}

// SimulateSwap asks the contract what a swap would return.
func (c *Client) SimulateSwap(ctx context.Context, poolID string, offer cosmos.Coin, askDenom string) (*SimulationResponse, error) {
	contract, err := c.requireContract()
	if err != nil {
		return nil, err
	}
	query := map[string]any{
		"simulation": map[string]any{
			"offer_asset":     offer,
			"ask_asset_denom": askDenom,
			"pool_identifier": poolID,
		},
	}
	var resp SimulationResponse
	if err := c.rpc.SmartQuery(ctx, contract, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReverseSimulateSwap asks what offer amount yields a desired ask amount.
func (c *Client) ReverseSimulateSwap(ctx context.Context, poolID string, ask cosmos.Coin, offerDenom string) (*ReverseSimulationResponse, error) {
	contract, err := c.requireContract()
	if err != nil {
		return nil, err
	}
	query := map[string]any{
		"reverse_simulation": map[string]any{
			"ask_asset":         ask,
			"offer_asset_denom": offerDenom,
			"pool_identifier":   poolID,
		},
	}
	var resp ReverseSimulationResponse
	if err := c.rpc.SmartQuery(ctx, contract, query, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Swap builds a swap execution against the pool manager.
func (c *Client) Swap(ctx context.Context, sender string, p SwapParams) (*protocols.OperationResult, error) {
	contract, err := c.requireContract()
	if err != nil {
		return nil, err
	}
	if p.OfferAsset.Amount == "" || p.OfferAsset.Amount == "0" {
		return nil, errors.New(errors.CodeInvalidArgument, "offer amount must be positive")
	}
	if p.AskAssetDenom == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "ask asset denom is required")
	}

	inner := map[string]any{
		"ask_asset_denom": p.AskAssetDenom,
		"pool_identifier": p.PoolID,
	}
	if p.BeliefPrice != nil {
		inner["belief_price"] = p.BeliefPrice.String()
	}
	if p.MaxSpread != nil {
		inner["max_spread"] = p.MaxSpread.String()
	}
	if p.Receiver != "" {
		inner["receiver"] = p.Receiver
	}

	msg, err := json.Marshal(map[string]any{"swap": inner})
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode swap message")
	}
	c.log.Info("swap message constructed", "pool", p.PoolID, "offer", p.OfferAsset.Denom, "ask", p.AskAssetDenom)
	return protocols.NewExecuteResult(contract, sender, msg, []cosmos.Coin{p.OfferAsset}), nil
}

// ProvideLiquidity builds a liquidity deposit execution.
func (c *Client) ProvideLiquidity(ctx context.Context, sender string, p ProvideLiquidityParams) (*protocols.OperationResult, error) {
	contract, err := c.requireContract()
	if err != nil {
		return nil, err
	}
	if len(p.Assets) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument, "at least one asset is required")
	}

	inner := map[string]any{"pool_identifier": p.PoolID}
	if p.SlippageTolerance != nil {
		inner["slippage_tolerance"] = p.SlippageTolerance.String()
	}
	if p.MaxSpread != nil {
		inner["max_spread"] = p.MaxSpread.String()
	}
	if p.Receiver != "" {
		inner["receiver"] = p.Receiver
	}

	msg, err := json.Marshal(map[string]any{"provide_liquidity": inner})
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode provide_liquidity message")
	}
	return protocols.NewExecuteResult(contract, sender, msg, p.Assets), nil
}

// WithdrawLiquidity builds an LP share withdrawal. The LP denom is read
// from the pool so the funds attach correctly.
func (c *Client) WithdrawLiquidity(ctx context.Context, sender string, p WithdrawLiquidityParams) (*protocols.OperationResult, error) {
	contract, err := c.requireContract()
	if err != nil {
		return nil, err
	}
	pool, err := c.Pool(ctx, p.PoolID)
	if err != nil {
		return nil, err
	}

	msg, err := json.Marshal(map[string]any{
		"withdraw_liquidity": map[string]any{"pool_identifier": p.PoolID},
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode withdraw_liquidity message")
	}
	funds := []cosmos.Coin{{Denom: pool.PoolInfo.LPDenom, Amount: p.Amount}}
	return protocols.NewExecuteResult(contract, sender, msg, funds), nil
}

// CreatePool builds a pool creation execution.
func (c *Client) CreatePool(ctx context.Context, sender string, p CreatePoolParams) (*protocols.OperationResult, error) {
	contract, err := c.requireContract()
	if err != nil {
		return nil, err
	}
	if len(p.AssetDenoms) < 2 {
		return nil, errors.New(errors.CodeInvalidArgument, "a pool needs at least two denoms")
	}
	if len(p.AssetDenoms) != len(p.AssetDecimals) {
		return nil, errors.New(errors.CodeInvalidArgument, "asset denoms and decimals must align")
	}

	inner := map[string]any{
		"asset_denoms":   p.AssetDenoms,
		"asset_decimals": p.AssetDecimals,
		"pool_fees":      p.PoolFees,
		"pool_type":      p.PoolType,
	}
	if p.PoolIdentifier != "" {
		inner["pool_identifier"] = p.PoolIdentifier
	}

	msg, err := json.Marshal(map[string]any{"create_pool": inner})
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode create_pool message")
	}
	return protocols.NewExecuteResult(contract, sender, msg, nil), nil
}

// LPTokenBalance returns the owner's balance of a pool's LP denom.
func (c *Client) LPTokenBalance(ctx context.Context, owner, poolID string) (cosmos.Coin, error) {
	pool, err := c.Pool(ctx, poolID)
	if err != nil {
		return cosmos.Coin{}, err
	}
	balances, err := c.rpc.AllBalances(ctx, owner)
	if err != nil {
		return cosmos.Coin{}, err
	}
	for _, coin := range balances {
		if coin.Denom == pool.PoolInfo.LPDenom {
			return coin, nil
		}
	}
	return cosmos.Coin{Denom: pool.PoolInfo.LPDenom, Amount: "0"}, nil
}

// EstimateLPWithdrawal computes the assets a given LP amount would
// redeem, pro rata against the pool's total share.
func (c *Client) EstimateLPWithdrawal(ctx context.Context, poolID, lpAmount string) ([]cosmos.Coin, error) {
	pool, err := c.Pool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	share, err := decimal.NewFromString(lpAmount)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidArgument, err, "parse lp amount")
	}
	total, err := decimal.NewFromString(pool.TotalShare.Amount)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "parse total share")
	}
	if total.IsZero() {
		return nil, errors.New(errors.CodeInvalidArgument, "pool has no liquidity")
	}
	fraction := share.Div(total)

	out := make([]cosmos.Coin, 0, len(pool.PoolInfo.Assets))
	for _, asset := range pool.PoolInfo.Assets {
		amount, err := decimal.NewFromString(asset.Amount)
		if err != nil {
			return nil, errors.Wrap(errors.CodeSerialization, err, "parse pool asset amount")
		}
		out = append(out, cosmos.Coin{
			Denom:  asset.Denom,
			Amount: amount.Mul(fraction).Floor().String(),
		})
	}
	return out, nil
}
