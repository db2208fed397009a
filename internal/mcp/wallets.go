package mcp

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/errors"
	"mantra-sdk/internal/wallet"
	"mantra-sdk/pkg/logger"
)

// MaxDerivationIndex bounds the linear search when recovering a wallet
// from a bare address.
const MaxDerivationIndex = 100

// WalletInfo describes a managed wallet for listings.
type WalletInfo struct {
	Name          string `json:"name"`
	CosmosAddress string `json:"cosmos_address"`
	EVMAddress    string `json:"evm_address"`
	AccountIndex  uint32 `json:"account_index"`
	Active        bool   `json:"active"`
}

type walletEntry struct {
	mnemonic string
	index    uint32
	wallet   *wallet.MultiVMWallet
}

// WalletManager keeps named wallets and tracks which one is active.
type WalletManager struct {
	mu       sync.RWMutex
	network  config.NetworkConstants
	entries  map[string]*walletEntry
	active   string
	maxIndex uint32
	log      *slog.Logger
}

// NewWalletManager creates an empty manager bound to a network.
func NewWalletManager(network config.NetworkConstants) *WalletManager {
	return &WalletManager{
		network:  network,
		entries:  make(map[string]*walletEntry),
		maxIndex: MaxDerivationIndex,
		log:      logger.Named("wallets"),
	}
}

// Add imports a wallet from a mnemonic under a unique name. The first
// wallet added becomes active.
func (m *WalletManager) Add(name, mnemonic string, accountIndex uint32) (*wallet.MultiVMWallet, error) {
	if name == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "wallet name is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := wallet.NewMultiVM(mnemonic, accountIndex, m.network)
	if err != nil {
		return nil, err
	}
	if _, exists := m.entries[name]; exists {
		return nil, errors.Newf(errors.CodeInvalidArgument, "wallet %q already exists", name)
	}
	m.entries[name] = &walletEntry{mnemonic: mnemonic, index: accountIndex, wallet: w}
	if m.active == "" {
		m.active = name
	}
	m.log.Info("wallet added", "name", name, "account_index", accountIndex)
	return w, nil
}

// Generate creates a wallet with a fresh mnemonic and returns the
// mnemonic so the caller can persist it.
func (m *WalletManager) Generate(name string, accountIndex uint32) (string, *wallet.MultiVMWallet, error) {
	mnemonic, err := wallet.NewMnemonic()
	if err != nil {
		return "", nil, err
	}
	w, err := m.Add(name, mnemonic, accountIndex)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, w, nil
}

// Remove drops a wallet and zeroes its key material. Removing the
// active wallet clears the active selection.
func (m *WalletManager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[name]
	if !ok {
		return errors.Newf(errors.CodeNotFound, "wallet %q not found", name)
	}
	entry.wallet.Close()
	delete(m.entries, name)
	if m.active == name {
		m.active = ""
	}
	m.log.Info("wallet removed", "name", name)
	return nil
}

// SetActive switches the active wallet.
func (m *WalletManager) SetActive(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[name]; !ok {
		return errors.Newf(errors.CodeNotFound, "wallet %q not found", name)
	}
	m.active = name
	return nil
}

// SetNetwork rebinds the manager and every managed wallet to new
// network constants. Called after a network switch so imports and
// derivation searches track the active network.
func (m *WalletManager) SetNetwork(network config.NetworkConstants) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rebuilt := make(map[string]*wallet.MultiVMWallet, len(m.entries))
	for name, entry := range m.entries {
		w, err := wallet.NewMultiVM(entry.mnemonic, entry.index, network)
		if err != nil {
			for _, w := range rebuilt {
				w.Close()
			}
			return err
		}
		rebuilt[name] = w
	}
	for name, entry := range m.entries {
		entry.wallet.Close()
		entry.wallet = rebuilt[name]
	}
	m.network = network
	m.log.Info("wallet manager rebound", "chain_id", network.ChainID)
	return nil
}

// Active returns the active wallet and its name.
func (m *WalletManager) Active() (*wallet.MultiVMWallet, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return nil, "", errors.New(errors.CodeWallet, "no active wallet")
	}
	return m.entries[m.active].wallet, m.active, nil
}

// List describes every managed wallet, sorted by name.
func (m *WalletManager) List() []WalletInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]WalletInfo, 0, len(m.entries))
	for name, entry := range m.entries {
		info := WalletInfo{
			Name:         name,
			AccountIndex: entry.index,
			Active:       name == m.active,
		}
		if addr, err := entry.wallet.CosmosAddress(); err == nil {
			info.CosmosAddress = addr
		}
		if addr, err := entry.wallet.EVMAddress(); err == nil {
			info.EVMAddress = addr.Hex()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FoundWallet is the result of a derivation search.
type FoundWallet struct {
	Name         string `json:"name"`
	AccountIndex uint32 `json:"account_index"`
	Address      string `json:"address"`
	VM           string `json:"vm"`
}

// FindByAddress scans each managed mnemonic over derivation indexes 0
// through MaxDerivationIndex, matching the address against both the
// Cosmos and EVM derivations. EVM addresses compare case-insensitively.
func (m *WalletManager) FindByAddress(address string) (*FoundWallet, error) {
	if address == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "address is required")
	}
	isEVM := strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X")

	m.mu.RLock()
	snapshot := make(map[string]*walletEntry, len(m.entries))
	for name, entry := range m.entries {
		snapshot[name] = entry
	}
	maxIndex := m.maxIndex
	network := m.network
	m.mu.RUnlock()

	for name, entry := range snapshot {
		for idx := uint32(0); idx <= maxIndex; idx++ {
			if isEVM {
				// Derive on the 44'/60' path so the search matches the
				// addresses List and the import tools report.
				w, err := wallet.NewMultiVM(entry.mnemonic, idx, network)
				if err != nil {
					return nil, err
				}
				derived, err := w.EVMAddress()
				w.Close()
				if err != nil {
					return nil, err
				}
				if strings.EqualFold(derived.Hex(), address) {
					return &FoundWallet{Name: name, AccountIndex: idx, Address: derived.Hex(), VM: "evm"}, nil
				}
				continue
			}
			w, err := wallet.NewFromMnemonic(entry.mnemonic, idx, network)
			if err != nil {
				return nil, err
			}
			if w.Address() == address {
				return &FoundWallet{Name: name, AccountIndex: idx, Address: address, VM: "cosmos"}, nil
			}
		}
	}
	return nil, errors.Newf(errors.CodeNotFound,
		"no managed wallet derives %s within %d indexes", address, maxIndex)
}

// Close zeroes every wallet.
func (m *WalletManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, entry := range m.entries {
		entry.wallet.Close()
	}
	m.entries = make(map[string]*walletEntry)
	m.active = ""
}
