// Package mantrasdk is the SDK facade: one Client aggregating the
// config manager, the chain RPC client, an optional wallet, and the
// protocol clients, with runtime network switching.
package mantrasdk

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/events"
	"mantra-sdk/internal/protocols"
	"mantra-sdk/internal/protocols/claimdrop"
	"mantra-sdk/internal/protocols/dex"
	"mantra-sdk/internal/protocols/evm"
	"mantra-sdk/internal/protocols/skip"
	"mantra-sdk/internal/wallet"
)

// Client is the aggregate SDK entry point. Protocol accessors return an
// UNSUPPORTED error when the protocol is disabled or could not start.
type Client struct {
	mu        sync.RWMutex
	manager   *config.Manager
	rpc       *cosmos.Client
	wallet    *wallet.MultiVMWallet
	registry  *protocols.Registry
	dex       *dex.Client
	skip      *skip.Client
	claimdrop *claimdrop.FactoryClient
	evm       *evm.Client
	publisher events.Publisher
	log       *slog.Logger
}

// Network returns the active network constants.
func (c *Client) Network() config.NetworkConstants {
	return c.manager.Active()
}

// Config exposes the configuration manager.
func (c *Client) Config() *config.Manager {
	return c.manager
}

// Cosmos returns the chain RPC client.
func (c *Client) Cosmos() *cosmos.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rpc
}

// Wallet returns the bound wallet, or nil when none was configured.
func (c *Client) Wallet() *wallet.MultiVMWallet {
	return c.wallet
}

// Protocols exposes the registry.
func (c *Client) Protocols() *protocols.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

// Dex returns the DEX client.
func (c *Client) Dex() (*dex.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dex == nil {
		return nil, errors.New(errors.CodeUnsupported, "dex protocol is not enabled")
	}
	return c.dex, nil
}

// Skip returns the cross-chain routing client.
func (c *Client) Skip() (*skip.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.skip == nil {
		return nil, errors.New(errors.CodeUnsupported, "skip protocol is not enabled")
	}
	return c.skip, nil
}

// Claimdrop returns the campaign factory client.
func (c *Client) Claimdrop() (*claimdrop.FactoryClient, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.claimdrop == nil {
		return nil, errors.New(errors.CodeUnsupported, "claimdrop protocol is not enabled")
	}
	return c.claimdrop, nil
}

// Campaign binds a client to one campaign contract.
func (c *Client) Campaign(contract string) (*claimdrop.CampaignClient, error) {
	c.mu.RLock()
	rpc := c.rpc
	c.mu.RUnlock()
	return claimdrop.NewCampaignClient(rpc, contract)
}

// EVM returns the EVM client.
func (c *Client) EVM() (*evm.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.evm == nil {
		return nil, errors.New(errors.CodeUnsupported, "evm protocol is not enabled")
	}
	return c.evm, nil
}

// CheckConnectivity probes every registered protocol plus the chain RPC
// endpoint.
func (c *Client) CheckConnectivity(ctx context.Context) map[string]bool {
	c.mu.RLock()
	registry := c.registry
	rpc := c.rpc
	c.mu.RUnlock()

	result := registry.CheckConnectivity(ctx)
	result["cosmos_rpc"] = rpc.Healthy(ctx) == nil
	return result
}

// SwitchNetwork activates another network and rebuilds the RPC and
// protocol clients against its endpoints.
func (c *Client) SwitchNetwork(ctx context.Context, network string) error {
	if err := c.manager.SwitchNetwork(network); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.manager.Active()
	rpc, err := cosmos.NewClient(active.RPCURL)
	if err != nil {
		return err
	}
	if c.evm != nil {
		c.evm.Close()
		c.evm = nil
	}
	c.rpc = rpc
	c.buildProtocols(ctx, active)

	if err := c.registry.InitializeAll(ctx); err != nil {
		c.log.Warn("protocol initialization after switch", "error", err)
	}
	c.log.Info("network switched", "network", network, "chain_id", active.ChainID)
	return nil
}

// buildProtocols constructs the enabled protocol clients against the
// given network. Caller holds the write lock.
func (c *Client) buildProtocols(ctx context.Context, active config.NetworkConstants) {
	c.registry = protocols.NewRegistry()
	c.dex = nil
	c.skip = nil
	c.claimdrop = nil

	if c.manager.ProtocolEnabled(protocols.IDDex) {
		c.dex = dex.New(c.rpc, c.manager)
		_ = c.registry.Register(c.dex)
	}
	if c.manager.ProtocolEnabled(protocols.IDSkip) {
		c.skip = skip.New(skip.WithPublisher(c.publisher))
		_ = c.registry.Register(c.skip)
	}
	if c.manager.ProtocolEnabled(protocols.IDClaimdrop) {
		c.claimdrop = claimdrop.NewFactory(c.rpc, c.manager)
		_ = c.registry.Register(c.claimdrop)
	}
	if c.manager.ProtocolEnabled(protocols.IDEVM) && active.EVMRPCURL != "" {
		evmClient, err := evm.Dial(ctx, active.EVMRPCURL)
		if err != nil {
			c.log.Warn("evm endpoint unavailable", "url", active.EVMRPCURL, "error", err)
		} else {
			c.evm = evmClient
			_ = c.registry.Register(c.evm)
		}
	}
}

// Summary describes the client state for diagnostics.
type Summary struct {
	Network       string          `json:"network"`
	ChainID       string          `json:"chain_id"`
	EVMChainID    uint64          `json:"evm_chain_id,omitempty"`
	CosmosAddress string          `json:"cosmos_address,omitempty"`
	EVMAddress    string          `json:"evm_address,omitempty"`
	Protocols     map[string]bool `json:"protocols"`
}

// SummaryJSON reports the active network, wallet addresses, and
// protocol availability as JSON.
func (c *Client) SummaryJSON(ctx context.Context) ([]byte, error) {
	active := c.manager.Active()
	summary := Summary{
		Network:    active.Network,
		ChainID:    active.ChainID,
		EVMChainID: active.EVMChainID,
		Protocols:  c.CheckConnectivity(ctx),
	}
	if c.wallet != nil {
		if addr, err := c.wallet.CosmosAddress(); err == nil {
			summary.CosmosAddress = addr
		}
		if addr, err := c.wallet.EVMAddress(); err == nil {
			summary.EVMAddress = addr.Hex()
		}
	}
	out, err := json.Marshal(summary)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode summary")
	}
	return out, nil
}

// Close releases the EVM connection and zeroes the wallet mnemonic.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evm != nil {
		c.evm.Close()
		c.evm = nil
	}
	if c.wallet != nil {
		c.wallet.Close()
	}
}
