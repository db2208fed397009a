package cosmos

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"mantra-sdk/internal/errors"
	"mantra-sdk/pkg/logger"
)

// DefaultHTTPTimeout bounds a single RPC round trip.
const DefaultHTTPTimeout = 15 * time.Second

// Query paths served over ABCI.
const (
	pathSmartContractState = "/cosmwasm.wasm.v1.Query/SmartContractState"
	pathAllBalances        = "/cosmos.bank.v1beta1.Query/AllBalances"
)

// Coin is a denom/amount pair as reported by the bank module.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// NodeStatus is the subset of the CometBFT status result the SDK uses.
type NodeStatus struct {
	NodeInfo struct {
		Network string `json:"network"`
		Moniker string `json:"moniker"`
		Version string `json:"version"`
	} `json:"node_info"`
	SyncInfo struct {
		LatestBlockHash   string    `json:"latest_block_hash"`
		LatestBlockHeight string    `json:"latest_block_height"`
		LatestBlockTime   time.Time `json:"latest_block_time"`
		CatchingUp        bool      `json:"catching_up"`
	} `json:"sync_info"`
}

// LatestHeight parses the latest block height.
func (s *NodeStatus) LatestHeight() (int64, error) {
	h, err := strconv.ParseInt(s.SyncInfo.LatestBlockHeight, 10, 64)
	if err != nil {
		return 0, errors.Wrap(errors.CodeSerialization, err, "parse block height")
	}
	return h, nil
}

// Client is a CometBFT JSON-RPC client over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *slog.Logger
	nextID     atomic.Int64
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout adjusts the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a client bound to a CometBFT RPC endpoint.
func NewClient(rpcURL string, opts ...Option) (*Client, error) {
	if rpcURL == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "rpc url is required")
	}
	parsed, err := url.Parse(rpcURL)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInvalidArgument, err, "parse rpc url")
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		log:        logger.Named("cosmos"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrap(errors.CodeSerialization, err, "encode rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(errors.CodeRPC, err, "build rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.CodeRPC, err, method+" request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.CodeRPC, err, "read rpc response")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.CodeRPC, "%s returned HTTP %d: %s",
			method, resp.StatusCode, truncate(body, 256))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return errors.Wrap(errors.CodeSerialization, err, "decode rpc response")
	}
	if rpcResp.Error != nil {
		return errors.Newf(errors.CodeRPC, "%s failed: %s (%s)",
			method, rpcResp.Error.Message, rpcResp.Error.Data)
	}
	if result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return errors.Wrap(errors.CodeSerialization, err, "decode rpc result")
		}
	}
	return nil
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}

// Status fetches the node status.
func (c *Client) Status(ctx context.Context) (*NodeStatus, error) {
	var status NodeStatus
	if err := c.call(ctx, "status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Healthy reports whether the node answers and is not catching up.
func (c *Client) Healthy(ctx context.Context) error {
	status, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if status.SyncInfo.CatchingUp {
		return errors.New(errors.CodeRPC, "node is catching up",
			errors.WithRetryable(true))
	}
	return nil
}

type abciQueryResult struct {
	Response struct {
		Code  uint32 `json:"code"`
		Log   string `json:"log"`
		Value []byte `json:"value"`
	} `json:"response"`
}

// ABCIQuery performs an abci_query against a gRPC query path. A non-zero
// response code surfaces as a contract error carrying the node's log.
func (c *Client) ABCIQuery(ctx context.Context, path string, data []byte) ([]byte, error) {
	params := map[string]any{
		"path":   path,
		"data":   hex.EncodeToString(data),
		"height": "0",
		"prove":  false,
	}
	var result abciQueryResult
	if err := c.call(ctx, "abci_query", params, &result); err != nil {
		return nil, err
	}
	if result.Response.Code != 0 {
		return nil, errors.Newf(errors.CodeContract,
			"query %s failed with code %d: %s", path, result.Response.Code, result.Response.Log)
	}
	return result.Response.Value, nil
}

// SmartContractState runs a CosmWasm smart query and returns the raw JSON
// the contract produced.
func (c *Client) SmartContractState(ctx context.Context, contract string, query any) (json.RawMessage, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode contract query")
	}
	c.log.Debug("smart contract query", "contract", contract, "query", string(queryJSON))

	value, err := c.ABCIQuery(ctx, pathSmartContractState, encodeSmartQueryRequest(contract, queryJSON))
	if err != nil {
		return nil, err
	}
	return decodeSmartQueryResponse(value)
}

// SmartQuery runs a smart query and decodes the contract's JSON reply
// into result.
func (c *Client) SmartQuery(ctx context.Context, contract string, query, result any) error {
	raw, err := c.SmartContractState(ctx, contract, query)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.Wrap(errors.CodeSerialization, err,
			fmt.Sprintf("decode contract response from %s", contract))
	}
	return nil
}

// AllBalances returns every bank balance held by an address.
func (c *Client) AllBalances(ctx context.Context, address string) ([]Coin, error) {
	value, err := c.ABCIQuery(ctx, pathAllBalances, encodeAllBalancesRequest(address))
	if err != nil {
		return nil, err
	}
	return decodeAllBalancesResponse(value)
}
