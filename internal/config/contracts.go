package config

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/btcsuite/btcutil/bech32"

	"mantra-sdk/internal/errors"
	"mantra-sdk/pkg/logger"
)

// ContractType identifies a deployed contract the SDK talks to.
type ContractType string

const (
	ContractPoolManager          ContractType = "pool_manager"
	ContractFarmManager          ContractType = "farm_manager"
	ContractFeeCollector         ContractType = "fee_collector"
	ContractEpochManager         ContractType = "epoch_manager"
	ContractSkipEntryPoint       ContractType = "skip_entry_point"
	ContractSkipIBCHooksAdapter  ContractType = "skip_ibc_hooks_adapter"
	ContractSkipMantraDexAdapter ContractType = "skip_mantra_dex_adapter"
	ContractClaimdropFactory     ContractType = "claimdrop_factory"
	ContractClaimdropCampaign    ContractType = "claimdrop_campaign"
)

// requiredContracts must be present before the DEX protocol initializes.
var requiredContracts = []ContractType{ContractPoolManager}

// KnownContractTypes lists every contract type the registry accepts.
func KnownContractTypes() []ContractType {
	return []ContractType{
		ContractPoolManager,
		ContractFarmManager,
		ContractFeeCollector,
		ContractEpochManager,
		ContractSkipEntryPoint,
		ContractSkipIBCHooksAdapter,
		ContractSkipMantraDexAdapter,
		ContractClaimdropFactory,
		ContractClaimdropCampaign,
	}
}

// ContractRegistry maps contract types to on-chain addresses for one network.
type ContractRegistry struct {
	mu        sync.RWMutex
	network   string
	hrp       string
	contracts map[ContractType]string
	log       *slog.Logger
}

// NewContractRegistry creates an empty registry bound to a network's
// bech32 prefix.
func NewContractRegistry(network, bech32Prefix string) *ContractRegistry {
	return &ContractRegistry{
		network:   network,
		hrp:       bech32Prefix,
		contracts: make(map[ContractType]string),
		log:       logger.Named("contracts"),
	}
}

// Set stores a contract address after bech32 validation.
func (r *ContractRegistry) Set(ct ContractType, address string) error {
	if err := ValidateBech32Address(address, r.hrp); err != nil {
		return errors.Wrap(errors.CodeInvalidArgument, err,
			"invalid address for contract "+string(ct))
	}
	r.mu.Lock()
	r.contracts[ct] = address
	r.mu.Unlock()
	return nil
}

// Apply stores every entry of the map. Invalid addresses are logged and
// skipped rather than failing the whole load.
func (r *ContractRegistry) Apply(addresses map[ContractType]string) {
	for ct, addr := range addresses {
		if err := r.Set(ct, addr); err != nil {
			r.log.Warn("skipping contract address",
				"network", r.network, "contract", string(ct), "error", err)
		}
	}
}

// Address returns the configured address of a contract type.
func (r *ContractRegistry) Address(ct ContractType) (string, error) {
	r.mu.RLock()
	addr, ok := r.contracts[ct]
	r.mu.RUnlock()
	if !ok {
		return "", errors.Newf(errors.CodeNotFound,
			"contract %s not configured for network %s", ct, r.network)
	}
	return addr, nil
}

// Has reports whether the contract type has an address configured.
func (r *ContractRegistry) Has(ct ContractType) bool {
	r.mu.RLock()
	_, ok := r.contracts[ct]
	r.mu.RUnlock()
	return ok
}

// All returns a sorted snapshot of the configured contracts.
func (r *ContractRegistry) All() map[ContractType]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := make(map[ContractType]string, len(r.contracts))
	for ct, addr := range r.contracts {
		clone[ct] = addr
	}
	return clone
}

// Types returns the configured contract types in stable order.
func (r *ContractRegistry) Types() []ContractType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]ContractType, 0, len(r.contracts))
	for ct := range r.contracts {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ValidateRequired checks that every required contract has an address.
func (r *ContractRegistry) ValidateRequired() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []string
	for _, ct := range requiredContracts {
		if _, ok := r.contracts[ct]; !ok {
			missing = append(missing, string(ct))
		}
	}
	if len(missing) > 0 {
		return errors.Newf(errors.CodeConfig,
			"missing required contracts for network %s: %s",
			r.network, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateBech32Address checks that an address is well-formed bech32 with
// the expected human-readable prefix.
func ValidateBech32Address(address, hrp string) error {
	decoded, _, err := bech32.Decode(address)
	if err != nil {
		return errors.Wrap(errors.CodeInvalidArgument, err, "bech32 decode failed")
	}
	if hrp != "" && decoded != hrp {
		return errors.Newf(errors.CodeInvalidArgument,
			"address prefix %q does not match expected %q", decoded, hrp)
	}
	return nil
}
