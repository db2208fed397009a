package wallet

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/errors"
	"mantra-sdk/pkg/logger"
)

// MultiVMWallet holds only the validated mnemonic and account index, and
// re-derives the Cosmos (44'/118') or EVM (44'/60') key for each
// operation. Close zeroes the mnemonic.
type MultiVMWallet struct {
	mu           sync.Mutex
	mnemonic     []byte
	accountIndex uint32
	network      config.NetworkConstants
}

// NewMultiVM validates the mnemonic and wraps it.
func NewMultiVM(mnemonic string, accountIndex uint32, network config.NetworkConstants) (*MultiVMWallet, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}
	return &MultiVMWallet{
		mnemonic:     []byte(mnemonic),
		accountIndex: accountIndex,
		network:      network,
	}, nil
}

// GenerateMultiVM creates a multi-VM wallet with a fresh mnemonic.
func GenerateMultiVM(accountIndex uint32, network config.NetworkConstants) (*MultiVMWallet, error) {
	mnemonic, err := NewMnemonic()
	if err != nil {
		return nil, err
	}
	return NewMultiVM(mnemonic, accountIndex, network)
}

// AccountIndex returns the derivation index shared by both VMs.
func (m *MultiVMWallet) AccountIndex() uint32 {
	return m.accountIndex
}

// Network returns the bound network constants.
func (m *MultiVMWallet) Network() config.NetworkConstants {
	return m.network
}

func (m *MultiVMWallet) withMnemonic(fn func(mnemonic string) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.mnemonic) == 0 {
		return errors.New(errors.CodeWallet, "wallet is closed")
	}
	return fn(string(m.mnemonic))
}

// CosmosWallet derives the Cosmos-side wallet.
func (m *MultiVMWallet) CosmosWallet() (*Wallet, error) {
	var w *Wallet
	err := m.withMnemonic(func(mnemonic string) error {
		derived, err := NewFromMnemonic(mnemonic, m.accountIndex, m.network)
		if err != nil {
			return err
		}
		w = derived
		return nil
	})
	return w, err
}

// CosmosAddress derives the bech32 address.
func (m *MultiVMWallet) CosmosAddress() (string, error) {
	w, err := m.CosmosWallet()
	if err != nil {
		return "", err
	}
	return w.Address(), nil
}

// EVMAddress derives the Ethereum address on the 44'/60' path.
func (m *MultiVMWallet) EVMAddress() (common.Address, error) {
	var addr common.Address
	err := m.withMnemonic(func(mnemonic string) error {
		priv, err := derivePrivateKey(mnemonic, EthereumCoinType, m.accountIndex)
		if err != nil {
			return err
		}
		derived, err := ethereumAddress(&priv.PublicKey)
		if err != nil {
			return err
		}
		addr = derived
		return nil
	})
	return addr, err
}

// SignCosmos signs sign-doc bytes with the Cosmos-side key.
func (m *MultiVMWallet) SignCosmos(signDoc []byte) ([]byte, error) {
	w, err := m.CosmosWallet()
	if err != nil {
		return nil, err
	}
	return w.Sign(signDoc)
}

// SignEVMTransaction signs an EIP-1559 transaction with the 44'/60' key.
func (m *MultiVMWallet) SignEVMTransaction(tx *types.DynamicFeeTx) (*types.Transaction, error) {
	if tx == nil || tx.ChainID == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "transaction chain id is required")
	}
	var signed *types.Transaction
	err := m.withMnemonic(func(mnemonic string) error {
		priv, err := derivePrivateKey(mnemonic, EthereumCoinType, m.accountIndex)
		if err != nil {
			return err
		}
		signer := types.LatestSignerForChainID(tx.ChainID)
		out, err := types.SignNewTx(priv, signer, tx)
		if err != nil {
			return errors.Wrap(errors.CodeWallet, err, "sign evm transaction")
		}
		signed = out
		return nil
	})
	if err == nil {
		logger.Audit().Info("evm transaction signed",
			"account_index", m.accountIndex, "chain_id", tx.ChainID.String(),
			"nonce", tx.Nonce, "tx_hash", signed.Hash().Hex())
	}
	return signed, err
}

// SignEVMDigest signs a 32-byte digest with the 44'/60' key, returning a
// recoverable 65-byte signature.
func (m *MultiVMWallet) SignEVMDigest(digest [32]byte) ([]byte, error) {
	var sig []byte
	err := m.withMnemonic(func(mnemonic string) error {
		priv, err := derivePrivateKey(mnemonic, EthereumCoinType, m.accountIndex)
		if err != nil {
			return err
		}
		signature, err := crypto.Sign(digest[:], priv)
		if err != nil {
			return errors.Wrap(errors.CodeWallet, err, "sign digest")
		}
		sig = signature
		return nil
	})
	return sig, err
}

// Close zeroes the mnemonic. The wallet is unusable afterwards.
func (m *MultiVMWallet) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.mnemonic {
		m.mnemonic[i] = 0
	}
	m.mnemonic = nil
}
