// Package evm is the EVM compatibility layer: a JSON-RPC client,
// ERC-20/ERC-721 helpers, calldata decoding, and human-readable
// transaction narratives.
package evm

import (
	"context"
	"encoding/hex"
	"log/slog"
	"math/big"
	"time"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/protocols"
	"mantra-sdk/pkg/logger"
)

// Version of the protocol client.
const Version = "1.0.0"

// Gas handling defaults.
const (
	// GasEstimateInitial seeds estimation when the node cannot estimate,
	// e.g. reverting simulations.
	GasEstimateInitial = uint64(300_000)
	// GasBufferPercent pads successful estimates.
	GasBufferPercent = 20
	// GasBufferPercentContract pads estimates for contract creation.
	GasBufferPercentContract = 30
)

// ReceiptPollInterval is how often WaitForReceipt polls.
const ReceiptPollInterval = 2 * time.Second

// Client wraps the JSON-RPC connection with typed helpers. The raw rpc
// client stays available for batch submission.
type Client struct {
	rpcClient *gethrpc.Client
	eth       *ethclient.Client
	chainID   *big.Int
	log       *slog.Logger
}

// Dial connects to an EVM JSON-RPC endpoint and caches the chain id.
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	if rawURL == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "evm rpc url is required")
	}
	rpcClient, err := gethrpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "dial evm endpoint")
	}
	eth := ethclient.NewClient(rpcClient)
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, errors.Wrap(errors.CodeEVM, err, "fetch chain id")
	}
	return &Client{
		rpcClient: rpcClient,
		eth:       eth,
		chainID:   chainID,
		log:       logger.Named("evm"),
	}, nil
}

// Close releases the connection.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Name implements protocols.Protocol.
func (c *Client) Name() string { return protocols.IDEVM }

// Version implements protocols.Protocol.
func (c *Client) Version() string { return Version }

// Initialize implements protocols.Protocol; the dial already verified
// connectivity.
func (c *Client) Initialize(_ context.Context) error { return nil }

// IsAvailable probes the endpoint with a block number call.
func (c *Client) IsAvailable(ctx context.Context) bool {
	probe, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.eth.BlockNumber(probe)
	return err == nil
}

// ChainID returns the cached chain id.
func (c *Client) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// BlockNumber returns the latest block height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.CodeEVM, err, "fetch block number")
	}
	return n, nil
}

// Balance returns the native balance at the latest block.
func (c *Client) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "fetch balance")
	}
	return balance, nil
}

// PendingNonce returns the next nonce including pending transactions.
func (c *Client) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, errors.Wrap(errors.CodeEVM, err, "fetch pending nonce")
	}
	return nonce, nil
}

// FeeSuggestion carries EIP-1559 fee parameters.
type FeeSuggestion struct {
	GasTipCap *big.Int
	GasFeeCap *big.Int
	GasPrice  *big.Int
}

// SuggestFees queries tip and base fee and derives a fee cap of
// 2*base + tip.
func (c *Client) SuggestFees(ctx context.Context) (*FeeSuggestion, error) {
	tip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "suggest gas tip")
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "suggest gas price")
	}
	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "fetch head")
	}

	feeCap := new(big.Int).Set(gasPrice)
	if head.BaseFee != nil {
		feeCap = new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	}
	return &FeeSuggestion{GasTipCap: tip, GasFeeCap: feeCap, GasPrice: gasPrice}, nil
}

// EstimateGas estimates gas for a call and pads it with the standard
// buffer. Contract creation (nil To) gets the larger buffer. Estimation
// failures fall back to the initial default so callers can still build a
// transaction for inspection.
func (c *Client) EstimateGas(ctx context.Context, msg gethcore.CallMsg) (uint64, error) {
	estimate, err := c.eth.EstimateGas(ctx, msg)
	if err != nil {
		c.log.Warn("gas estimation failed, using default", "error", err)
		return GasEstimateInitial, nil
	}
	buffer := uint64(GasBufferPercent)
	if msg.To == nil {
		buffer = GasBufferPercentContract
	}
	return estimate + estimate*buffer/100, nil
}

// Call executes a read-only call at the latest block.
func (c *Client) Call(ctx context.Context, msg gethcore.CallMsg) ([]byte, error) {
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "contract call")
	}
	return out, nil
}

// Logs runs a filter query.
func (c *Client) Logs(ctx context.Context, q gethcore.FilterQuery) ([]types.Log, error) {
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "filter logs")
	}
	return logs, nil
}

// Code returns the bytecode at an address.
func (c *Client) Code(ctx context.Context, account common.Address) ([]byte, error) {
	code, err := c.eth.CodeAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "fetch code")
	}
	return code, nil
}

// Storage reads one storage slot.
func (c *Client) Storage(ctx context.Context, account common.Address, slot common.Hash) ([]byte, error) {
	value, err := c.eth.StorageAt(ctx, account, slot, nil)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "fetch storage")
	}
	return value, nil
}

// TransactionByHash fetches a transaction and whether it is pending.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	tx, pending, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, false, errors.Wrap(errors.CodeEVM, err, "fetch transaction")
	}
	return tx, pending, nil
}

// Receipt fetches a transaction receipt.
func (c *Client) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "fetch receipt")
	}
	return receipt, nil
}

// WaitForReceipt polls until the transaction is mined or the context
// expires.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(ReceiptPollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(errors.CodeTimeout, ctx.Err(), "wait for receipt")
		case <-ticker.C:
		}
	}
}

// SendTransaction broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return errors.Wrap(errors.CodeEVM, err, "send transaction")
	}
	return nil
}

// SendBatchTransactions submits several signed transactions in one RPC
// batch and returns their hashes. Per-element failures surface as one
// aggregated error after all elements are attempted.
func (c *Client) SendBatchTransactions(ctx context.Context, txs []*types.Transaction) ([]common.Hash, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	batch := make([]gethrpc.BatchElem, len(txs))
	hashes := make([]string, len(txs))
	for i, tx := range txs {
		raw, err := tx.MarshalBinary()
		if err != nil {
			return nil, errors.Wrap(errors.CodeSerialization, err, "encode transaction")
		}
		batch[i] = gethrpc.BatchElem{
			Method: "eth_sendRawTransaction",
			Args:   []any{"0x" + hex.EncodeToString(raw)},
			Result: &hashes[i],
		}
	}
	if err := c.rpcClient.BatchCallContext(ctx, batch); err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "submit batch")
	}

	out := make([]common.Hash, len(txs))
	var failed []string
	for i, elem := range batch {
		if elem.Error != nil {
			failed = append(failed, elem.Error.Error())
			continue
		}
		out[i] = common.HexToHash(hashes[i])
	}
	if len(failed) > 0 {
		return out, errors.Newf(errors.CodeEVM, "%d of %d batch elements failed: %v",
			len(failed), len(txs), failed)
	}
	return out, nil
}
