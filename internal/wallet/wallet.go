// Package wallet implements HD key derivation and signing for the two
// virtual machines the chain exposes: Cosmos (coin type 118, bech32
// addresses) and EVM (coin type 60, Keccak addresses). Both sides derive
// from a single BIP-39 mnemonic.
package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/errors"
	"mantra-sdk/pkg/logger"
)

// Wallet is a Cosmos-side signing wallet bound to one account index of a
// mnemonic. The same secp256k1 key also yields an Ethereum address for
// networks that map accounts across VMs.
type Wallet struct {
	mnemonic     string
	accountIndex uint32
	network      config.NetworkConstants
	priv         *ecdsa.PrivateKey
	address      string
}

// Info is the public view of a wallet.
type Info struct {
	Address      string `json:"address"`
	PublicKey    string `json:"public_key"`
	AccountIndex uint32 `json:"account_index"`
}

// StdFee is the amino-JSON fee object included in a sign doc.
type StdFee struct {
	Amount []cosmos.Coin `json:"amount"`
	Gas    string        `json:"gas"`
}

// NewFromMnemonic derives a wallet from a mnemonic at an account index.
func NewFromMnemonic(mnemonic string, accountIndex uint32, network config.NetworkConstants) (*Wallet, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	priv, err := derivePrivateKey(mnemonic, CosmosCoinType, accountIndex)
	if err != nil {
		return nil, err
	}
	address, err := cosmosAddress(&priv.PublicKey, network.Bech32Prefix)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		mnemonic:     mnemonic,
		accountIndex: accountIndex,
		network:      network,
		priv:         priv,
		address:      address,
	}, nil
}

// Generate creates a wallet with a fresh random mnemonic at index 0.
func Generate(network config.NetworkConstants) (*Wallet, error) {
	mnemonic, err := NewMnemonic()
	if err != nil {
		return nil, err
	}
	return NewFromMnemonic(mnemonic, 0, network)
}

// Address returns the bech32 account address.
func (w *Wallet) Address() string {
	return w.address
}

// AccountIndex returns the derivation index.
func (w *Wallet) AccountIndex() uint32 {
	return w.accountIndex
}

// Mnemonic returns the backing mnemonic. Handle with care.
func (w *Wallet) Mnemonic() string {
	return w.mnemonic
}

// Network returns the network constants the wallet was built for.
func (w *Wallet) Network() config.NetworkConstants {
	return w.network
}

// PublicKey returns the compressed secp256k1 public key.
func (w *Wallet) PublicKey() []byte {
	return crypto.CompressPubkey(&w.priv.PublicKey)
}

// Info returns the address and hex public key.
func (w *Wallet) Info() Info {
	return Info{
		Address:      w.address,
		PublicKey:    hex.EncodeToString(w.PublicKey()),
		AccountIndex: w.accountIndex,
	}
}

// Sign hashes the sign-doc bytes with SHA-256 and signs them, returning
// the 64-byte r||s signature Cosmos expects.
func (w *Wallet) Sign(signDoc []byte) ([]byte, error) {
	digest := sha256.Sum256(signDoc)
	sig, err := crypto.Sign(digest[:], w.priv)
	if err != nil {
		return nil, errors.Wrap(errors.CodeWallet, err, "sign document")
	}
	logger.Audit().Info("cosmos sign-doc signed",
		"signer", w.address, "account_index", w.accountIndex)
	return sig[:64], nil
}

// Fee builds a fee from the network's gas price and adjustment.
func (w *Wallet) Fee(gasLimit uint64) StdFee {
	adjustedGas, amount := w.network.GasFee(gasLimit)
	return StdFee{
		Amount: []cosmos.Coin{{Denom: w.network.NativeDenom, Amount: amount.String()}},
		Gas:    strconv.FormatUint(adjustedGas, 10),
	}
}

// FeeForPrice builds a fee with an explicit gas price override.
func (w *Wallet) FeeForPrice(gasLimit uint64, gasPrice decimal.Decimal) StdFee {
	amount := decimal.NewFromInt(int64(gasLimit)).Mul(gasPrice).Ceil()
	return StdFee{
		Amount: []cosmos.Coin{{Denom: w.network.NativeDenom, Amount: amount.String()}},
		Gas:    strconv.FormatUint(gasLimit, 10),
	}
}

// EthereumAddress maps the same key to its EVM address.
func (w *Wallet) EthereumAddress() (common.Address, error) {
	return ethereumAddress(&w.priv.PublicKey)
}

// SignEVMTransaction signs an EIP-1559 transaction with the wallet key.
func (w *Wallet) SignEVMTransaction(tx *types.DynamicFeeTx) (*types.Transaction, error) {
	if tx == nil || tx.ChainID == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "transaction chain id is required")
	}
	signer := types.LatestSignerForChainID(tx.ChainID)
	signed, err := types.SignNewTx(w.priv, signer, tx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeWallet, err, "sign evm transaction")
	}
	logger.Audit().Info("evm transaction signed",
		"signer", w.address, "chain_id", tx.ChainID.String(),
		"nonce", tx.Nonce, "tx_hash", signed.Hash().Hex())
	return signed, nil
}

// SignEIP712 signs the EIP-712 digest of a domain separator and struct
// hash, returning a recoverable 65-byte signature.
func (w *Wallet) SignEIP712(domainSeparator, structHash [32]byte) ([]byte, error) {
	msg := make([]byte, 0, 66)
	msg = append(msg, 0x19, 0x01)
	msg = append(msg, domainSeparator[:]...)
	msg = append(msg, structHash[:]...)
	digest := crypto.Keccak256(msg)
	sig, err := crypto.Sign(digest, w.priv)
	if err != nil {
		return nil, errors.Wrap(errors.CodeWallet, err, "sign eip-712 digest")
	}
	return sig, nil
}

// stdSignDoc carries fields in the alphabetical order amino JSON expects.
type stdSignDoc struct {
	AccountNumber string            `json:"account_number"`
	ChainID       string            `json:"chain_id"`
	Fee           StdFee            `json:"fee"`
	Memo          string            `json:"memo"`
	Msgs          []json.RawMessage `json:"msgs"`
	Sequence      string            `json:"sequence"`
}

// StdSignDocBytes produces the canonical sign-doc JSON for the given
// transaction parameters.
func StdSignDocBytes(chainID string, accountNumber, sequence uint64, fee StdFee, msgs []json.RawMessage, memo string) ([]byte, error) {
	doc := stdSignDoc{
		AccountNumber: strconv.FormatUint(accountNumber, 10),
		ChainID:       chainID,
		Fee:           fee,
		Memo:          memo,
		Msgs:          msgs,
		Sequence:      strconv.FormatUint(sequence, 10),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "encode sign doc")
	}
	return payload, nil
}
