package mcp

import (
	"strings"
	"testing"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/errors"
)

const (
	testMnemonic   = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testCosmosAddr = "mantra19rl4cm2hmr8afy4kldpxz3fka4jguq0aht8eu0"
	testEVMAddr    = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

func testNetwork(t *testing.T) config.NetworkConstants {
	t.Helper()
	net, err := config.NetworkByName(config.NetworkDukong)
	if err != nil {
		t.Fatalf("NetworkByName: %v", err)
	}
	return net
}

func TestWalletManagerAddAndActive(t *testing.T) {
	m := NewWalletManager(testNetwork(t))
	defer m.Close()

	if _, _, err := m.Active(); errors.CodeOf(err) != errors.CodeWallet {
		t.Fatalf("Active on empty manager: err = %v, want WALLET", err)
	}

	w, err := m.Add("main", testMnemonic, 0)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	addr, err := w.CosmosAddress()
	if err != nil {
		t.Fatalf("CosmosAddress: %v", err)
	}
	if addr != testCosmosAddr {
		t.Fatalf("cosmos address = %s, want %s", addr, testCosmosAddr)
	}

	active, name, err := m.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if name != "main" || active == nil {
		t.Fatalf("active = %q, want main", name)
	}

	if _, err := m.Add("main", testMnemonic, 1); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("duplicate Add: err = %v, want INVALID_ARGUMENT", err)
	}
	if _, err := m.Add("", testMnemonic, 0); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("empty name Add: err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestWalletManagerGenerate(t *testing.T) {
	m := NewWalletManager(testNetwork(t))
	defer m.Close()

	mnemonic, w, err := m.Generate("fresh", 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if words := len(strings.Fields(mnemonic)); words != 12 {
		t.Fatalf("mnemonic has %d words, want 12", words)
	}
	if _, err := w.CosmosAddress(); err != nil {
		t.Fatalf("CosmosAddress: %v", err)
	}

	list := m.List()
	if len(list) != 1 || list[0].Name != "fresh" || !list[0].Active {
		t.Fatalf("List = %+v, want one active entry named fresh", list)
	}
}

func TestWalletManagerSwitchAndRemove(t *testing.T) {
	m := NewWalletManager(testNetwork(t))
	defer m.Close()

	if _, err := m.Add("a", testMnemonic, 0); err != nil {
		t.Fatalf("Add a: %v", err)
	}
	if _, err := m.Add("b", testMnemonic, 1); err != nil {
		t.Fatalf("Add b: %v", err)
	}

	if err := m.SetActive("b"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, name, _ := m.Active(); name != "b" {
		t.Fatalf("active = %q, want b", name)
	}
	if err := m.SetActive("missing"); errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("SetActive missing: err = %v, want NOT_FOUND", err)
	}

	if err := m.Remove("b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, _, err := m.Active(); errors.CodeOf(err) != errors.CodeWallet {
		t.Fatalf("Active after removing active wallet: err = %v, want WALLET", err)
	}
	if err := m.Remove("b"); errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("Remove twice: err = %v, want NOT_FOUND", err)
	}
}

func TestWalletManagerListSorted(t *testing.T) {
	m := NewWalletManager(testNetwork(t))
	defer m.Close()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if _, err := m.Add(name, testMnemonic, 0); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	list := m.List()
	want := []string{"alpha", "bravo", "charlie"}
	for i, info := range list {
		if info.Name != want[i] {
			t.Fatalf("List[%d] = %s, want %s", i, info.Name, want[i])
		}
	}
}

func TestWalletManagerFindByAddress(t *testing.T) {
	m := NewWalletManager(testNetwork(t))
	defer m.Close()
	m.maxIndex = 3 // keep the derivation scan short

	if _, err := m.Add("main", testMnemonic, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	found, err := m.FindByAddress(testCosmosAddr)
	if err != nil {
		t.Fatalf("FindByAddress cosmos: %v", err)
	}
	if found.Name != "main" || found.AccountIndex != 0 || found.VM != "cosmos" {
		t.Fatalf("found = %+v", found)
	}

	// EVM lookups are case-insensitive and must return the same 44'/60'
	// address the wallet listing reports.
	if list := m.List(); list[0].EVMAddress != testEVMAddr {
		t.Fatalf("List evm address = %s, want %s", list[0].EVMAddress, testEVMAddr)
	}
	found, err = m.FindByAddress(strings.ToLower(testEVMAddr))
	if err != nil {
		t.Fatalf("FindByAddress evm: %v", err)
	}
	if found.AccountIndex != 0 || found.VM != "evm" || found.Address != testEVMAddr {
		t.Fatalf("found = %+v", found)
	}

	// Index 1 on the same path.
	found, err = m.FindByAddress("0x6Fac4D18c912343BF86fa7049364Dd4E424Ab9C0")
	if err != nil {
		t.Fatalf("FindByAddress evm index 1: %v", err)
	}
	if found.AccountIndex != 1 || found.VM != "evm" {
		t.Fatalf("found = %+v", found)
	}

	if _, err := m.FindByAddress("mantra1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"); errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("unknown address: err = %v, want NOT_FOUND", err)
	}
	if _, err := m.FindByAddress(""); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("empty address: err = %v, want INVALID_ARGUMENT", err)
	}
}

func TestWalletManagerSetNetwork(t *testing.T) {
	m := NewWalletManager(testNetwork(t))
	defer m.Close()

	if _, err := m.Add("main", testMnemonic, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}

	mainnet, err := config.NetworkByName(config.NetworkMainnet)
	if err != nil {
		t.Fatalf("NetworkByName: %v", err)
	}
	if err := m.SetNetwork(mainnet); err != nil {
		t.Fatalf("SetNetwork: %v", err)
	}

	// Existing wallets are rebound to the new constants.
	w, name, err := m.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if name != "main" || w.Network().ChainID != mainnet.ChainID {
		t.Fatalf("active wallet bound to %s, want %s", w.Network().ChainID, mainnet.ChainID)
	}

	// New imports pick up the new network too.
	w2, err := m.Add("second", testMnemonic, 1)
	if err != nil {
		t.Fatalf("Add after switch: %v", err)
	}
	if w2.Network().ChainID != mainnet.ChainID {
		t.Fatalf("imported wallet bound to %s, want %s", w2.Network().ChainID, mainnet.ChainID)
	}
}
