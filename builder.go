package mantrasdk

import (
	"context"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/events"
	"mantra-sdk/internal/wallet"
	"mantra-sdk/pkg/logger"
)

// Builder assembles a Client step by step. Zero values fall back to the
// loaded configuration.
type Builder struct {
	cfg              *config.Config
	configPath       string
	network          string
	mnemonic         string
	accountIndex     uint32
	hasWallet        bool
	skipContract     string
	claimdropFactory string
	publisher        events.Publisher
}

// NewBuilder starts an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig uses an already loaded configuration.
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithConfigPath loads configuration from the given file.
func (b *Builder) WithConfigPath(path string) *Builder {
	b.configPath = path
	return b
}

// WithNetwork overrides the configured active network.
func (b *Builder) WithNetwork(network string) *Builder {
	b.network = network
	return b
}

// WithWallet binds a wallet derived from the mnemonic at the given
// account index.
func (b *Builder) WithWallet(mnemonic string, accountIndex uint32) *Builder {
	b.mnemonic = mnemonic
	b.accountIndex = accountIndex
	b.hasWallet = true
	return b
}

// WithSkipContract registers the entry point contract for cross-chain
// routing on the active network.
func (b *Builder) WithSkipContract(address string) *Builder {
	b.skipContract = address
	return b
}

// WithClaimdropFactory registers the campaign factory contract on the
// active network.
func (b *Builder) WithClaimdropFactory(address string) *Builder {
	b.claimdropFactory = address
	return b
}

// WithPublisher attaches a lifecycle event publisher.
func (b *Builder) WithPublisher(pub events.Publisher) *Builder {
	b.publisher = pub
	return b
}

// Build resolves configuration, connects the RPC client, and constructs
// the enabled protocols. Protocol initialization failures are logged but
// do not abort the build; availability checks report them.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	cfg := b.cfg
	if cfg == nil {
		path := b.configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if b.network != "" {
		cfg.Network = b.network
	}

	manager, err := config.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	if b.skipContract != "" {
		if err := manager.SetContract(config.ContractSkipEntryPoint, b.skipContract); err != nil {
			return nil, err
		}
	}
	if b.claimdropFactory != "" {
		if err := manager.SetContract(config.ContractClaimdropFactory, b.claimdropFactory); err != nil {
			return nil, err
		}
	}

	active := manager.Active()
	rpc, err := cosmos.NewClient(active.RPCURL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		manager:   manager,
		rpc:       rpc,
		publisher: b.publisher,
		log:       logger.Named("sdk"),
	}
	if client.publisher == nil {
		client.publisher = events.NewNoop()
	}

	if b.hasWallet {
		w, err := newWallet(b.mnemonic, b.accountIndex, active)
		if err != nil {
			return nil, err
		}
		client.wallet = w
	}

	client.mu.Lock()
	client.buildProtocols(ctx, active)
	client.mu.Unlock()

	if err := client.registry.InitializeAll(ctx); err != nil {
		client.log.Warn("protocol initialization", "error", err)
	}
	return client, nil
}

func newWallet(mnemonic string, accountIndex uint32, active config.NetworkConstants) (*wallet.MultiVMWallet, error) {
	if mnemonic == "" {
		return wallet.GenerateMultiVM(accountIndex, active)
	}
	return wallet.NewMultiVM(mnemonic, accountIndex, active)
}
