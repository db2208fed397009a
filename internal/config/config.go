package config

import (
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mantra-sdk/internal/errors"
)

// Config is the file representation loaded at startup. Values layer as
// built-in defaults, then the YAML file, then MANTRA_* environment
// variables.
type Config struct {
	Network   string                       `yaml:"network"`
	Networks  map[string]NetworkConstants  `yaml:"networks"`
	Contracts map[string]map[string]string `yaml:"contracts"`
	Protocols ProtocolsConfig              `yaml:"protocols"`
	MCP       MCPConfig                    `yaml:"mcp"`
	Log       LogConfig                    `yaml:"log"`
}

// ProtocolsConfig toggles individual protocol clients.
type ProtocolsConfig struct {
	Dex       *bool `yaml:"dex"`
	Skip      *bool `yaml:"skip"`
	Claimdrop *bool `yaml:"claimdrop"`
	EVM       *bool `yaml:"evm"`
}

// Enabled reports whether a protocol id is switched on. Unset means on.
func (p ProtocolsConfig) Enabled(id string) bool {
	flag := func(b *bool) bool { return b == nil || *b }
	switch id {
	case "dex":
		return flag(p.Dex)
	case "skip":
		return flag(p.Skip)
	case "claimdrop":
		return flag(p.Claimdrop)
	case "evm":
		return flag(p.EVM)
	default:
		return false
	}
}

// MCPConfig configures the tool server and its supporting stores.
type MCPConfig struct {
	Transport   string           `yaml:"transport"`
	HTTPAddress string           `yaml:"http_address"`
	Cache       CacheConfig      `yaml:"cache"`
	TokenStore  TokenStoreConfig `yaml:"token_store"`
	Events      EventsConfig     `yaml:"events"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Driver     string `yaml:"driver"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	Redis      struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// TokenStoreConfig selects where custom ERC-20 registry entries live.
type TokenStoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// EventsConfig selects the lifecycle event publisher backend.
type EventsConfig struct {
	Driver   string `yaml:"driver"`
	RabbitMQ struct {
		URL        string `yaml:"url"`
		Exchange   string `yaml:"exchange"`
		Queue      string `yaml:"queue"`
		Durable    bool   `yaml:"durable"`
		AutoDelete bool   `yaml:"auto_delete"`
	} `yaml:"rabbitmq"`
}

// LogConfig mirrors pkg/logger's Config for the YAML file.
type LogConfig struct {
	Level       string   `yaml:"level"`
	Format      string   `yaml:"format"`
	OutputPaths []string `yaml:"outputs"`
	AuditPath   string   `yaml:"audit_path"`
}

// DefaultConfigPath resolves the config file location: MANTRA_CONFIG_DIR
// if set, otherwise ./configs.
func DefaultConfigPath() string {
	dir := os.Getenv("MANTRA_CONFIG_DIR")
	if dir == "" {
		dir = "configs"
	}
	return filepath.Join(dir, "mantra.yaml")
}

// Load parses a YAML config file and applies environment overrides.
// A missing file is not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		file, err := os.Open(path)
		switch {
		case err == nil:
			defer file.Close()
			content, err := io.ReadAll(file)
			if err != nil {
				return nil, errors.Wrap(errors.CodeConfig, err, "read config file")
			}
			if err := yaml.Unmarshal(content, cfg); err != nil {
				return nil, errors.Wrap(errors.CodeConfig, err, "parse config file")
			}
		case os.IsNotExist(err):
			// fall through to defaults
		default:
			return nil, errors.Wrap(errors.CodeConfig, err, "open config file")
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Network == "" {
		c.Network = NetworkDukong
	}
	if c.MCP.Transport == "" {
		c.MCP.Transport = "stdio"
	}
	if c.MCP.HTTPAddress == "" {
		c.MCP.HTTPAddress = ":8080"
	}
	if c.MCP.Cache.Driver == "" {
		c.MCP.Cache.Driver = "memory"
	}
	if c.MCP.Cache.TTLSeconds <= 0 {
		c.MCP.Cache.TTLSeconds = 300
	}
	if c.MCP.TokenStore.Driver == "" {
		c.MCP.TokenStore.Driver = "memory"
	}
	if c.MCP.Events.Driver == "" {
		c.MCP.Events.Driver = "noop"
	}
}

// ResolveNetwork merges built-in constants with any file-level overrides
// for the named network.
func (c *Config) ResolveNetwork(name string) (NetworkConstants, error) {
	base, baseErr := NetworkByName(name)
	override, hasOverride := c.Networks[name]
	if baseErr != nil && !hasOverride {
		return NetworkConstants{}, baseErr
	}
	if !hasOverride {
		return base, nil
	}

	merged := base
	merged.Network = name
	if override.ChainID != "" {
		merged.ChainID = override.ChainID
	}
	if override.RPCURL != "" {
		merged.RPCURL = override.RPCURL
	}
	if !override.DefaultGasPrice.IsZero() {
		merged.DefaultGasPrice = override.DefaultGasPrice
	}
	if override.GasAdjustment != 0 {
		merged.GasAdjustment = override.GasAdjustment
	}
	if override.NativeDenom != "" {
		merged.NativeDenom = override.NativeDenom
	}
	if override.Bech32Prefix != "" {
		merged.Bech32Prefix = override.Bech32Prefix
	}
	if override.EVMRPCURL != "" {
		merged.EVMRPCURL = override.EVMRPCURL
	}
	if override.EVMChainID != 0 {
		merged.EVMChainID = override.EVMChainID
	}
	if err := merged.validate(); err != nil {
		return NetworkConstants{}, err
	}
	return merged, nil
}

// ContractsFor returns the configured contract addresses for a network,
// keyed by contract type.
func (c *Config) ContractsFor(network string) map[ContractType]string {
	raw, ok := c.Contracts[network]
	if !ok {
		return nil
	}
	out := make(map[ContractType]string, len(raw))
	for k, v := range raw {
		out[ContractType(k)] = v
	}
	return out
}

// LoggerConfig converts the file section into pkg/logger's shape.
func (c *Config) LoggerConfig() LogConfig {
	return c.Log
}
