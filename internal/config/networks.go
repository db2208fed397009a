package config

import (
	"github.com/shopspring/decimal"

	"mantra-sdk/internal/errors"
)

// Well-known network names.
const (
	NetworkDukong  = "mantra-dukong"
	NetworkMainnet = "mantra-mainnet"
)

// NetworkConstants holds the chain parameters for one named network.
type NetworkConstants struct {
	Network         string          `yaml:"-"`
	ChainID         string          `yaml:"chain_id"`
	RPCURL          string          `yaml:"rpc_url"`
	DefaultGasPrice decimal.Decimal `yaml:"gas_price"`
	GasAdjustment   float64         `yaml:"gas_adjustment"`
	NativeDenom     string          `yaml:"native_denom"`
	Bech32Prefix    string          `yaml:"bech32_prefix"`
	EVMRPCURL       string          `yaml:"evm_rpc_url"`
	EVMChainID      uint64          `yaml:"evm_chain_id"`
}

func builtinNetworks() map[string]NetworkConstants {
	return map[string]NetworkConstants{
		NetworkDukong: {
			Network:         NetworkDukong,
			ChainID:         "mantra-dukong-1",
			RPCURL:          "https://rpc.dukong.mantrachain.io:443",
			DefaultGasPrice: decimal.RequireFromString("0.01"),
			GasAdjustment:   1.5,
			NativeDenom:     "uom",
			Bech32Prefix:    "mantra",
			EVMRPCURL:       "https://evm.dukong.mantrachain.io",
			EVMChainID:      5887,
		},
		NetworkMainnet: {
			Network:         NetworkMainnet,
			ChainID:         "mantra-1",
			RPCURL:          "https://rpc.mantrachain.io:443",
			DefaultGasPrice: decimal.RequireFromString("0.01"),
			GasAdjustment:   1.5,
			NativeDenom:     "uom",
			Bech32Prefix:    "mantra",
			EVMRPCURL:       "https://evm.mantrachain.io",
			EVMChainID:      5888,
		},
	}
}

// NetworkByName returns the built-in constants for a named network.
func NetworkByName(name string) (NetworkConstants, error) {
	nets := builtinNetworks()
	net, ok := nets[name]
	if !ok {
		return NetworkConstants{}, errors.Newf(errors.CodeNotFound, "unknown network %q", name)
	}
	return net, nil
}

// GasFee computes the fee amount in the native denom for a gas limit,
// applying the network's gas adjustment before pricing.
func (n NetworkConstants) GasFee(gasLimit uint64) (adjustedGas uint64, feeAmount decimal.Decimal) {
	adjusted := decimal.NewFromInt(int64(gasLimit)).Mul(decimal.NewFromFloat(n.GasAdjustment))
	adjustedGas = uint64(adjusted.Ceil().IntPart())
	feeAmount = decimal.NewFromInt(int64(adjustedGas)).Mul(n.DefaultGasPrice).Ceil()
	return adjustedGas, feeAmount
}

func (n NetworkConstants) validate() error {
	if n.ChainID == "" {
		return errors.New(errors.CodeConfig, "network chain_id is required")
	}
	if n.RPCURL == "" {
		return errors.New(errors.CodeConfig, "network rpc_url is required")
	}
	if n.Bech32Prefix == "" {
		return errors.New(errors.CodeConfig, "network bech32_prefix is required")
	}
	return nil
}
