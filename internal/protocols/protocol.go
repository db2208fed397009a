// Package protocols defines the protocol abstraction shared by the DEX,
// ClaimDrop, Skip, and EVM clients, plus the registry the SDK facade uses
// to look them up.
package protocols

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"mantra-sdk/internal/cosmos"
	"mantra-sdk/internal/errors"
)

// Well-known protocol ids.
const (
	IDDex       = "dex"
	IDSkip      = "skip"
	IDClaimdrop = "claimdrop"
	IDEVM       = "evm"
)

// Protocol is implemented by every protocol client.
type Protocol interface {
	Name() string
	Version() string
	// IsAvailable reports whether the protocol can serve requests right
	// now: its endpoint answers and its contracts are configured.
	IsAvailable(ctx context.Context) bool
	// Initialize prepares the protocol after construction or a network
	// switch.
	Initialize(ctx context.Context) error
}

// OperationResult is returned by state-changing operations. Contract
// execution builds and validates the message but leaves broadcast to the
// caller's signing pipeline, so Success stays false and Msg carries the
// constructed payload.
type OperationResult struct {
	Success  bool            `json:"success"`
	TxHash   string          `json:"tx_hash,omitempty"`
	Contract string          `json:"contract,omitempty"`
	Sender   string          `json:"sender,omitempty"`
	Msg      json.RawMessage `json:"msg,omitempty"`
	Funds    []cosmos.Coin   `json:"funds,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// NewExecuteResult builds the standard not-broadcast result for a
// constructed contract execution.
func NewExecuteResult(contract, sender string, msg json.RawMessage, funds []cosmos.Coin) *OperationResult {
	return &OperationResult{
		Success:  false,
		Contract: contract,
		Sender:   sender,
		Msg:      msg,
		Funds:    funds,
		Note:     "message constructed; broadcast not performed",
	}
}

// Registry holds registered protocols by id.
type Registry struct {
	mu        sync.RWMutex
	protocols map[string]Protocol
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{protocols: make(map[string]Protocol)}
}

// Register adds a protocol. Registering an id twice is an error.
func (r *Registry) Register(p Protocol) error {
	if p == nil {
		return errors.New(errors.CodeInvalidArgument, "protocol is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.protocols[p.Name()]; exists {
		return errors.Newf(errors.CodeInvalidArgument, "protocol %s already registered", p.Name())
	}
	r.protocols[p.Name()] = p
	return nil
}

// Get returns a protocol by id. The not-found error lists what is
// registered to make typos obvious.
func (r *Registry) Get(name string) (Protocol, error) {
	r.mu.RLock()
	p, ok := r.protocols[name]
	r.mu.RUnlock()
	if !ok {
		available := r.List()
		return nil, errors.Newf(errors.CodeNotFound,
			"protocol %q not registered (available: %s)", name, strings.Join(available, ", "))
	}
	return p, nil
}

// List returns registered protocol ids in stable order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.protocols))
	for name := range r.protocols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckConnectivity probes availability of every registered protocol.
func (r *Registry) CheckConnectivity(ctx context.Context) map[string]bool {
	r.mu.RLock()
	snapshot := make(map[string]Protocol, len(r.protocols))
	for name, p := range r.protocols {
		snapshot[name] = p
	}
	r.mu.RUnlock()

	result := make(map[string]bool, len(snapshot))
	for name, p := range snapshot {
		result[name] = p.IsAvailable(ctx)
	}
	return result
}

// InitializeAll initializes every registered protocol, collecting errors.
func (r *Registry) InitializeAll(ctx context.Context) error {
	r.mu.RLock()
	snapshot := make([]Protocol, 0, len(r.protocols))
	for _, p := range r.protocols {
		snapshot = append(snapshot, p)
	}
	r.mu.RUnlock()

	var errs []string
	for _, p := range snapshot {
		if err := p.Initialize(ctx); err != nil {
			errs = append(errs, p.Name()+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.Newf(errors.CodeConfig, "protocol initialization failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
