package config

import (
	"os"
	"path/filepath"
	"testing"
)

// Valid bech32 addresses with the mantra prefix, generated once for tests.
const (
	testPoolManagerAddr = "mantra1fwcxlrjw8fm3t5sp64eap2jzxa3w2hdt6cdzcq3837jke3kjjnsqt2vagx"
	testFactoryAddr     = "mantra1y4uve7rytvk3msgvge00lpp4skts7wn7yg5k4yk264w53x38ypeq7emt2x"
)

func TestNetworkByName(t *testing.T) {
	net, err := NetworkByName(NetworkDukong)
	if err != nil {
		t.Fatalf("NetworkByName: %v", err)
	}
	if net.ChainID != "mantra-dukong-1" {
		t.Fatalf("unexpected chain id: %s", net.ChainID)
	}
	if net.NativeDenom != "uom" {
		t.Fatalf("unexpected denom: %s", net.NativeDenom)
	}
	if net.Bech32Prefix != "mantra" {
		t.Fatalf("unexpected prefix: %s", net.Bech32Prefix)
	}

	if _, err := NetworkByName("unknown-net"); err == nil {
		t.Fatal("expected error for unknown network")
	}
}

func TestGasFee(t *testing.T) {
	net, _ := NetworkByName(NetworkDukong)
	adjusted, fee := net.GasFee(200000)
	if adjusted != 300000 {
		t.Fatalf("adjusted gas = %d, want 300000", adjusted)
	}
	if fee.String() != "3000" {
		t.Fatalf("fee = %s, want 3000", fee)
	}
}

func TestContractRegistryValidation(t *testing.T) {
	reg := NewContractRegistry(NetworkDukong, "mantra")

	if err := reg.Set(ContractPoolManager, testPoolManagerAddr); err != nil {
		t.Fatalf("Set valid address: %v", err)
	}
	if err := reg.Set(ContractFarmManager, "not-a-bech32-address"); err == nil {
		t.Fatal("expected error for malformed address")
	}
	if err := reg.Set(ContractFarmManager, "cosmos1na8mdre7rkkgygp0n2jcrnsthu0hvh0sxstf0e"); err == nil {
		t.Fatal("expected error for wrong prefix")
	}

	addr, err := reg.Address(ContractPoolManager)
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if addr != testPoolManagerAddr {
		t.Fatalf("unexpected address: %s", addr)
	}

	if _, err := reg.Address(ContractFeeCollector); err == nil {
		t.Fatal("expected not-found for unset contract")
	}
}

func TestContractRegistryApplySkipsInvalid(t *testing.T) {
	reg := NewContractRegistry(NetworkDukong, "mantra")
	reg.Apply(map[ContractType]string{
		ContractPoolManager:      testPoolManagerAddr,
		ContractClaimdropFactory: "bogus",
	})

	if !reg.Has(ContractPoolManager) {
		t.Fatal("valid address should be applied")
	}
	if reg.Has(ContractClaimdropFactory) {
		t.Fatal("invalid address should be skipped")
	}
	if err := reg.ValidateRequired(); err != nil {
		t.Fatalf("ValidateRequired: %v", err)
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mantra.yaml")
	content := `
network: mantra-dukong
contracts:
  mantra-dukong:
    pool_manager: ` + testPoolManagerAddr + `
protocols:
  skip: false
mcp:
  transport: http
  http_address: ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MANTRA_NETWORK_RPC_URL", "http://localhost:26657")
	t.Setenv("MANTRA_CONTRACT_CLAIMDROP_FACTORY", testFactoryAddr)
	t.Setenv("MANTRA_PROTOCOL_EVM", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	net, err := cfg.ResolveNetwork(cfg.Network)
	if err != nil {
		t.Fatalf("ResolveNetwork: %v", err)
	}
	if net.RPCURL != "http://localhost:26657" {
		t.Fatalf("env override lost: %s", net.RPCURL)
	}
	if net.ChainID != "mantra-dukong-1" {
		t.Fatalf("built-in default lost: %s", net.ChainID)
	}

	contracts := cfg.ContractsFor(cfg.Network)
	if contracts[ContractPoolManager] != testPoolManagerAddr {
		t.Fatal("file contract missing")
	}
	if contracts[ContractClaimdropFactory] != testFactoryAddr {
		t.Fatal("env contract missing")
	}

	if cfg.Protocols.Enabled("skip") {
		t.Fatal("skip should be disabled by file")
	}
	if cfg.Protocols.Enabled("evm") {
		t.Fatal("evm should be disabled by env")
	}
	if !cfg.Protocols.Enabled("dex") {
		t.Fatal("dex should default to enabled")
	}
	if cfg.MCP.Transport != "http" || cfg.MCP.HTTPAddress != ":9090" {
		t.Fatalf("mcp section not loaded: %+v", cfg.MCP)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Network != NetworkDukong {
		t.Fatalf("default network = %s", cfg.Network)
	}
	if cfg.MCP.Cache.Driver != "memory" || cfg.MCP.Cache.TTLSeconds != 300 {
		t.Fatalf("cache defaults wrong: %+v", cfg.MCP.Cache)
	}
}

func TestManagerSwitchNetwork(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if mgr.Active().Network != NetworkDukong {
		t.Fatalf("active = %s", mgr.Active().Network)
	}

	if err := mgr.SwitchNetwork(NetworkMainnet); err != nil {
		t.Fatalf("SwitchNetwork: %v", err)
	}
	if mgr.Active().ChainID != "mantra-1" {
		t.Fatalf("chain id after switch = %s", mgr.Active().ChainID)
	}

	if err := mgr.SwitchNetwork("nope"); err == nil {
		t.Fatal("expected error for unknown network")
	}
}
