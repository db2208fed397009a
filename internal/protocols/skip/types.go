package skip

import (
	"encoding/json"
	"time"
)

// RouteRequest asks the router for a path between two assets.
type RouteRequest struct {
	AmountIn           string `json:"amount_in"`
	SourceAssetDenom   string `json:"source_asset_denom"`
	SourceAssetChainID string `json:"source_asset_chain_id"`
	DestAssetDenom     string `json:"dest_asset_denom"`
	DestAssetChainID   string `json:"dest_asset_chain_id"`
	AllowMultiTx       bool   `json:"allow_multi_tx,omitempty"`
}

// Route is the router's answer. Operations stay raw; the SDK relays them
// to the entry point contract without interpreting each hop.
type Route struct {
	AmountIn           string            `json:"amount_in"`
	AmountOut          string            `json:"amount_out"`
	SourceAssetDenom   string            `json:"source_asset_denom"`
	SourceAssetChainID string            `json:"source_asset_chain_id"`
	DestAssetDenom     string            `json:"dest_asset_denom"`
	DestAssetChainID   string            `json:"dest_asset_chain_id"`
	Operations         []json.RawMessage `json:"operations"`
	ChainIDs           []string          `json:"chain_ids"`
	DoesSwap           bool              `json:"does_swap"`
	EstimatedFees      []FeeEstimate     `json:"estimated_fees"`
	USDAmountIn        string            `json:"usd_amount_in,omitempty"`
	USDAmountOut       string            `json:"usd_amount_out,omitempty"`
}

// FeeEstimate is one fee the route will incur.
type FeeEstimate struct {
	FeeType   string `json:"fee_type"`
	Amount    string `json:"amount"`
	Denom     string `json:"denom"`
	ChainID   string `json:"chain_id"`
	USDAmount string `json:"usd_amount,omitempty"`
}

// TransferStatus is the lifecycle state of a tracked transfer.
type TransferStatus string

const (
	StatusPending    TransferStatus = "pending"
	StatusInProgress TransferStatus = "in_progress"
	StatusCompleted  TransferStatus = "completed"
	StatusFailed     TransferStatus = "failed"
	StatusTimedOut   TransferStatus = "timed_out"
	StatusRefunded   TransferStatus = "refunded"
)

// Terminal reports whether the status can no longer change. Terminal
// transfers are served from the local registry without re-querying.
func (s TransferStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimedOut, StatusRefunded:
		return true
	}
	return false
}

// Transfer is one tracked cross-chain transfer.
type Transfer struct {
	ID            string         `json:"id"`
	TxHash        string         `json:"tx_hash"`
	SourceChainID string         `json:"source_chain_id"`
	DestChainID   string         `json:"dest_chain_id"`
	Route         *Route         `json:"route,omitempty"`
	Status        TransferStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Chain is one chain the router supports.
type Chain struct {
	ChainID    string `json:"chain_id"`
	ChainName  string `json:"chain_name"`
	PrettyName string `json:"pretty_name,omitempty"`
}

// Asset is one asset the router knows on a chain.
type Asset struct {
	Denom    string `json:"denom"`
	ChainID  string `json:"chain_id"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type chainsResponse struct {
	Chains []Chain `json:"chains"`
}

type assetsResponse struct {
	ChainToAssetsMap map[string]struct {
		Assets []Asset `json:"assets"`
	} `json:"chain_to_assets_map"`
}

type trackResponse struct {
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// statusFromState maps the router's state strings onto transfer statuses.
func statusFromState(state string) TransferStatus {
	switch state {
	case "STATE_SUBMITTED", "STATE_PENDING":
		return StatusInProgress
	case "STATE_COMPLETED", "STATE_COMPLETED_SUCCESS":
		return StatusCompleted
	case "STATE_COMPLETED_ERROR", "STATE_PENDING_ERROR":
		return StatusFailed
	case "STATE_ABANDONED":
		return StatusTimedOut
	case "STATE_REFUNDED":
		return StatusRefunded
	default:
		return StatusPending
	}
}
