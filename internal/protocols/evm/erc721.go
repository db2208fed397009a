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

const erc721ABIJSON = `[
  {"name":"name","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
  {"name":"symbol","type":"function","stateMutability":"view","inputs":[],"outputs":[{"type":"string"}]},
  {"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"type":"address"}]},
  {"name":"tokenURI","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"type":"string"}]},
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"type":"uint256"}]},
  {"name":"safeTransferFrom","type":"function","stateMutability":"nonpayable","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]},
  {"name":"Transfer","type":"event","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true}]}
]`

var (
	erc721ABIOnce sync.Once
	erc721ABIVal  abi.ABI
	erc721ABIErr  error
)

func erc721ABI() (abi.ABI, error) {
	erc721ABIOnce.Do(func() {
		erc721ABIVal, erc721ABIErr = abi.JSON(strings.NewReader(erc721ABIJSON))
	})
	return erc721ABIVal, erc721ABIErr
}

// ERC721 wraps NFT calls over a client.
type ERC721 struct {
	client *Client
	abi    abi.ABI
}

// NewERC721 prepares the helper.
func NewERC721(client *Client) (*ERC721, error) {
	parsed, err := erc721ABI()
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "parse erc721 abi")
	}
	return &ERC721{client: client, abi: parsed}, nil
}

// OwnerOf returns the owner of a token id.
func (e *ERC721) OwnerOf(ctx context.Context, collection common.Address, tokenID *big.Int) (common.Address, error) {
	data, err := e.abi.Pack("ownerOf", tokenID)
	if err != nil {
		return common.Address{}, errors.Wrap(errors.CodeSerialization, err, "pack ownerOf")
	}
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &collection, Data: data})
	if err != nil {
		return common.Address{}, err
	}
	values, err := e.abi.Unpack("ownerOf", out)
	if err != nil || len(values) != 1 {
		return common.Address{}, errors.Wrap(errors.CodeSerialization, err, "unpack ownerOf")
	}
	owner, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, errors.Newf(errors.CodeSerialization, "ownerOf returned %T", values[0])
	}
	return owner, nil
}

// TokenURI returns a token's metadata URI.
func (e *ERC721) TokenURI(ctx context.Context, collection common.Address, tokenID *big.Int) (string, error) {
	data, err := e.abi.Pack("tokenURI", tokenID)
	if err != nil {
		return "", errors.Wrap(errors.CodeSerialization, err, "pack tokenURI")
	}
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &collection, Data: data})
	if err != nil {
		return "", err
	}
	values, err := e.abi.Unpack("tokenURI", out)
	if err != nil || len(values) != 1 {
		return "", errors.Wrap(errors.CodeSerialization, err, "unpack tokenURI")
	}
	uri, ok := values[0].(string)
	if !ok {
		return "", errors.Newf(errors.CodeSerialization, "tokenURI returned %T", values[0])
	}
	return uri, nil
}

// BalanceOf returns how many tokens an owner holds in a collection.
func (e *ERC721) BalanceOf(ctx context.Context, collection, owner common.Address) (*big.Int, error) {
	data, err := e.abi.Pack("balanceOf", owner)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "pack balanceOf")
	}
	out, err := e.client.Call(ctx, gethcore.CallMsg{To: &collection, Data: data})
	if err != nil {
		return nil, err
	}
	values, err := e.abi.Unpack("balanceOf", out)
	if err != nil || len(values) != 1 {
		return nil, errors.Wrap(errors.CodeSerialization, err, "unpack balanceOf")
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Newf(errors.CodeSerialization, "balanceOf returned %T", values[0])
	}
	return v, nil
}

// SafeTransferData packs safeTransferFrom calldata.
func (e *ERC721) SafeTransferData(from, to common.Address, tokenID *big.Int) ([]byte, error) {
	data, err := e.abi.Pack("safeTransferFrom", from, to, tokenID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "pack safeTransferFrom")
	}
	return data, nil
}
