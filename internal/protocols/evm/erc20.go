package evm

import (
	"context"
	"math/big"
	"strings"
	"sync"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"mantra-sdk/internal/errors"
)

// erc20ABIJSON covers the calls and events the SDK uses.
const erc20ABIJSON = `[
  {"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
  {"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
  {"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint8"}]},
  {"name":"totalSupply","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"uint256"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
  {"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"type":"uint256"}]},
  {"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
  {"name":"transferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
  {"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
  {"name":"Transfer","type":"event","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
  {"name":"Approval","type":"event","inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var (
	erc20ABIOnce sync.Once
	erc20ABIVal  abi.ABI
	erc20ABIErr  error
)

func erc20ABI() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABIVal, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABIVal, erc20ABIErr
}

// TokenMetadata describes an ERC-20 token.
type TokenMetadata struct {
	Address     common.Address `json:"address"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Decimals    uint8          `json:"decimals"`
	TotalSupply *big.Int       `json:"total_supply,omitempty"`
}

// ERC20 wraps token calls over a client.
type ERC20 struct {
	client *Client
	abi    abi.ABI
}

// NewERC20 prepares the helper.
func NewERC20(client *Client) (*ERC20, error) {
	parsed, err := erc20ABI()
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "parse erc20 abi")
	}
	return &ERC20{client: client, abi: parsed}, nil
}

func (e *ERC20) callString(ctx context.Context, token common.Address, method string) (string, error) {
	data, err := e.abi.Pack(method)
	if err != nil {
		return "", errors.Wrap(errors.CodeSerialization, err, "pack "+method)
	}
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &token, Data: data})
	if err != nil {
		return "", err
	}
	values, err := e.abi.Unpack(method, out)
	if err != nil || len(values) != 1 {
		return "", errors.Wrap(errors.CodeSerialization, err, "unpack "+method)
	}
	s, ok := values[0].(string)
	if !ok {
		return "", errors.Newf(errors.CodeSerialization, "%s returned %T", method, values[0])
	}
	return s, nil
}

// Metadata fetches name, symbol, decimals, and total supply.
func (e *ERC20) Metadata(ctx context.Context, token common.Address) (*TokenMetadata, error) {
	name, err := e.callString(ctx, token, "name")
	if err != nil {
		return nil, err
	}
	symbol, err := e.callString(ctx, token, "symbol")
	if err != nil {
		return nil, err
	}

	data, _ := e.abi.Pack("decimals")
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	values, err := e.abi.Unpack("decimals", out)
	if err != nil || len(values) != 1 {
		return nil, errors.Wrap(errors.CodeSerialization, err, "unpack decimals")
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return nil, errors.Newf(errors.CodeSerialization, "decimals returned %T", values[0])
	}

	meta := &TokenMetadata{Address: token, Name: name, Symbol: symbol, Decimals: decimals}
	if supply, err := e.totalSupply(ctx, token); err == nil {
		meta.TotalSupply = supply
	}
	return meta, nil
}

func (e *ERC20) totalSupply(ctx context.Context, token common.Address) (*big.Int, error) {
	data, _ := e.abi.Pack("totalSupply")
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	return e.unpackBig("totalSupply", out)
}

func (e *ERC20) unpackBig(method string, out []byte) (*big.Int, error) {
	values, err := e.abi.Unpack(method, out)
	if err != nil || len(values) != 1 {
		return nil, errors.Wrap(errors.CodeSerialization, err, "unpack "+method)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Newf(errors.CodeSerialization, "%s returned %T", method, values[0])
	}
	return v, nil
}

// BalanceOf returns a holder's token balance.
func (e *ERC20) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := e.abi.Pack("balanceOf", owner)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "pack balanceOf")
	}
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	return e.unpackBig("balanceOf", out)
}

// Allowance returns the spender's allowance from an owner.
func (e *ERC20) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := e.abi.Pack("allowance", owner, spender)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "pack allowance")
	}
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	return e.unpackBig("allowance", out)
}

// TransferData packs transfer calldata.
func (e *ERC20) TransferData(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := e.abi.Pack("transfer", to, amount)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "pack transfer")
	}
	return data, nil
}

// ApproveData packs approve calldata.
func (e *ERC20) ApproveData(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := e.abi.Pack("approve", spender, amount)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "pack approve")
	}
	return data, nil
}
