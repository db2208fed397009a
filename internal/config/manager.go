package config

import (
	"log/slog"
	"sync"

	"mantra-sdk/internal/errors"
	"mantra-sdk/pkg/logger"
)

// Manager tracks the active network and its contract registry, and lets
// callers switch networks at runtime.
type Manager struct {
	mu         sync.RWMutex
	cfg        *Config
	active     NetworkConstants
	registries map[string]*ContractRegistry
	log        *slog.Logger
}

// NewManager resolves the configured active network and builds its
// contract registry.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = &Config{}
		cfg.applyDefaults()
	}
	m := &Manager{
		cfg:        cfg,
		registries: make(map[string]*ContractRegistry),
		log:        logger.Named("config"),
	}
	if err := m.activate(cfg.Network); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) activate(network string) error {
	net, err := m.cfg.ResolveNetwork(network)
	if err != nil {
		return err
	}

	reg, ok := m.registries[network]
	if !ok {
		reg = NewContractRegistry(network, net.Bech32Prefix)
		reg.Apply(m.cfg.ContractsFor(network))
		m.registries[network] = reg
	}

	m.active = net
	m.log.Info("network activated", "network", network, "chain_id", net.ChainID)
	return nil
}

// Active returns the constants of the currently selected network.
func (m *Manager) Active() NetworkConstants {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Contracts returns the registry for the active network.
func (m *Manager) Contracts() *ContractRegistry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registries[m.active.Network]
}

// ContractAddress looks up a contract address on the active network.
func (m *Manager) ContractAddress(ct ContractType) (string, error) {
	reg := m.Contracts()
	if reg == nil {
		return "", errors.New(errors.CodeConfig, "no contract registry for active network")
	}
	return reg.Address(ct)
}

// SetContract registers an address on the active network's registry.
func (m *Manager) SetContract(ct ContractType, address string) error {
	reg := m.Contracts()
	if reg == nil {
		return errors.New(errors.CodeConfig, "no contract registry for active network")
	}
	return reg.Set(ct, address)
}

// SwitchNetwork changes the active network, keeping previously built
// registries so a switch back is cheap.
func (m *Manager) SwitchNetwork(network string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if network == m.active.Network {
		return nil
	}
	return m.activate(network)
}

// ProtocolEnabled reports whether a protocol id is enabled in config.
func (m *Manager) ProtocolEnabled(id string) bool {
	return m.cfg.Protocols.Enabled(id)
}

// Raw exposes the underlying file config, mainly for server wiring.
func (m *Manager) Raw() *Config {
	return m.cfg
}
