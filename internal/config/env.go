package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable prefixes recognised by the SDK.
const (
	envNetworkPrefix  = "MANTRA_NETWORK_"
	envContractPrefix = "MANTRA_CONTRACT_"
	envProtocolPrefix = "MANTRA_PROTOCOL_"
	envMCPPrefix      = "MANTRA_MCP_"
)

// applyEnv layers MANTRA_* environment variables over the loaded file.
func (c *Config) applyEnv() {
	if v := os.Getenv("MANTRA_NETWORK"); v != "" {
		c.Network = v
	}

	c.applyNetworkEnv()
	c.applyContractEnv()
	c.applyProtocolEnv()
	c.applyMCPEnv()

	if v := os.Getenv("MANTRA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MANTRA_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

// applyNetworkEnv overrides fields of the active network. Overrides are
// stored in the Networks map so ResolveNetwork picks them up.
func (c *Config) applyNetworkEnv() {
	override := c.Networks[c.Network]
	changed := false

	if v := os.Getenv(envNetworkPrefix + "RPC_URL"); v != "" {
		override.RPCURL = v
		changed = true
	}
	if v := os.Getenv(envNetworkPrefix + "CHAIN_ID"); v != "" {
		override.ChainID = v
		changed = true
	}
	if v := os.Getenv(envNetworkPrefix + "EVM_RPC_URL"); v != "" {
		override.EVMRPCURL = v
		changed = true
	}
	if v := os.Getenv(envNetworkPrefix + "EVM_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			override.EVMChainID = id
			changed = true
		}
	}
	if v := os.Getenv(envNetworkPrefix + "NATIVE_DENOM"); v != "" {
		override.NativeDenom = v
		changed = true
	}

	if changed {
		if c.Networks == nil {
			c.Networks = make(map[string]NetworkConstants)
		}
		c.Networks[c.Network] = override
	}
}

// applyContractEnv reads MANTRA_CONTRACT_<TYPE> into the active network's
// contract map, e.g. MANTRA_CONTRACT_POOL_MANAGER.
func (c *Config) applyContractEnv() {
	for _, ct := range KnownContractTypes() {
		key := envContractPrefix + strings.ToUpper(string(ct))
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		if c.Contracts == nil {
			c.Contracts = make(map[string]map[string]string)
		}
		if c.Contracts[c.Network] == nil {
			c.Contracts[c.Network] = make(map[string]string)
		}
		c.Contracts[c.Network][string(ct)] = v
	}
}

func (c *Config) applyProtocolEnv() {
	read := func(name string, target **bool) {
		v := os.Getenv(envProtocolPrefix + name)
		if v == "" {
			return
		}
		if enabled, err := strconv.ParseBool(v); err == nil {
			*target = &enabled
		}
	}
	read("DEX", &c.Protocols.Dex)
	read("SKIP", &c.Protocols.Skip)
	read("CLAIMDROP", &c.Protocols.Claimdrop)
	read("EVM", &c.Protocols.EVM)
}

func (c *Config) applyMCPEnv() {
	if v := os.Getenv(envMCPPrefix + "TRANSPORT"); v != "" {
		c.MCP.Transport = v
	}
	if v := os.Getenv(envMCPPrefix + "HTTP_ADDRESS"); v != "" {
		c.MCP.HTTPAddress = v
	}
	if v := os.Getenv(envMCPPrefix + "CACHE_DRIVER"); v != "" {
		c.MCP.Cache.Driver = v
	}
	if v := os.Getenv(envMCPPrefix + "CACHE_REDIS_ADDRESS"); v != "" {
		c.MCP.Cache.Redis.Address = v
	}
	if v := os.Getenv(envMCPPrefix + "TOKEN_STORE_DRIVER"); v != "" {
		c.MCP.TokenStore.Driver = v
	}
	if v := os.Getenv(envMCPPrefix + "TOKEN_STORE_DSN"); v != "" {
		c.MCP.TokenStore.DSN = v
	}
	if v := os.Getenv(envMCPPrefix + "EVENTS_DRIVER"); v != "" {
		c.MCP.Events.Driver = v
	}
	if v := os.Getenv(envMCPPrefix + "EVENTS_RABBITMQ_URL"); v != "" {
		c.MCP.Events.RabbitMQ.URL = v
	}
}
