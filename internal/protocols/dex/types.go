package dex

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"mantra-sdk/internal/cosmos"
)

// Fee is a fee share expressed as a decimal string, e.g. "0.003".
type Fee struct {
	Share string `json:"share"`
}

// PoolFees mirrors the pool manager's fee structure.
type PoolFees struct {
	ProtocolFee Fee   `json:"protocol_fee"`
	SwapFee     Fee   `json:"swap_fee"`
	BurnFee     Fee   `json:"burn_fee"`
	ExtraFees   []Fee `json:"extra_fees,omitempty"`
}

// PoolInfo describes one pool as the contract reports it. PoolType is
// kept raw since the contract encodes it as a tagged enum.
type PoolInfo struct {
	PoolIdentifier string          `json:"pool_identifier"`
	AssetDenoms    []string        `json:"asset_denoms"`
	LPDenom        string          `json:"lp_denom"`
	AssetDecimals  []uint8         `json:"asset_decimals"`
	Assets         []cosmos.Coin   `json:"assets"`
	PoolType       json.RawMessage `json:"pool_type"`
	PoolFees       PoolFees        `json:"pool_fees"`
}

// PoolEntry pairs pool info with its LP total share.
type PoolEntry struct {
	PoolInfo   PoolInfo    `json:"pool_info"`
	TotalShare cosmos.Coin `json:"total_share"`
}

// PoolsResponse is the reply to a pools query.
type PoolsResponse struct {
	Pools []PoolEntry `json:"pools"`
}

// SimulationResponse is the reply to a swap simulation.
type SimulationResponse struct {
	ReturnAmount      string `json:"return_amount"`
	SpreadAmount      string `json:"spread_amount"`
	SwapFeeAmount     string `json:"swap_fee_amount"`
	ProtocolFeeAmount string `json:"protocol_fee_amount"`
	BurnFeeAmount     string `json:"burn_fee_amount"`
}

// ReverseSimulationResponse is the reply to a reverse simulation.
type ReverseSimulationResponse struct {
	OfferAmount       string `json:"offer_amount"`
	SpreadAmount      string `json:"spread_amount"`
	SwapFeeAmount     string `json:"swap_fee_amount"`
	ProtocolFeeAmount string `json:"protocol_fee_amount"`
	BurnFeeAmount     string `json:"burn_fee_amount"`
}

// PoolsQuery paginates the pools listing.
type PoolsQuery struct {
	PoolIdentifier string
	StartAfter     string
	Limit          uint32
}

// SwapParams describes a swap execution.
type SwapParams struct {
	PoolID        string
	OfferAsset    cosmos.Coin
	AskAssetDenom string
	BeliefPrice   *decimal.Decimal
	MaxSpread     *decimal.Decimal
	Receiver      string
}

// ProvideLiquidityParams describes a liquidity deposit.
type ProvideLiquidityParams struct {
	PoolID            string
	Assets            []cosmos.Coin
	SlippageTolerance *decimal.Decimal
	MaxSpread         *decimal.Decimal
	Receiver          string
}

// WithdrawLiquidityParams burns LP shares of a pool.
type WithdrawLiquidityParams struct {
	PoolID string
	Amount string
}

// CreatePoolParams describes a new pool.
type CreatePoolParams struct {
	AssetDenoms    []string
	AssetDecimals  []uint8
	PoolFees       PoolFees
	PoolType       json.RawMessage
	PoolIdentifier string
}
