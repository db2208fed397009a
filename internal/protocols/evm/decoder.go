package evm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"mantra-sdk/internal/errors"
)

// DecodedCall is a calldata breakdown: the matched method and its
// arguments by name.
type DecodedCall struct {
	Contract string         `json:"contract,omitempty"`
	Method   string         `json:"method"`
	Selector string         `json:"selector"`
	Args     map[string]any `json:"args"`
}

// Decoder maps 4-byte selectors to known ABI methods. The ERC-20 and
// ERC-721 ABIs are registered up front; callers add more with AddABI.
type Decoder struct {
	mu        sync.RWMutex
	selectors map[[4]byte]decoderEntry
}

type decoderEntry struct {
	contract string
	method   abi.Method
}

// NewDecoder builds a decoder seeded with the standard token ABIs.
func NewDecoder() (*Decoder, error) {
	d := &Decoder{selectors: make(map[[4]byte]decoderEntry)}

	erc20, err := erc20ABI()
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "parse erc20 abi")
	}
	d.register("erc20", erc20)

	erc721, err := erc721ABI()
	if err != nil {
		return nil, errors.Wrap(errors.CodeEVM, err, "parse erc721 abi")
	}
	d.register("erc721", erc721)

	return d, nil
}

// AddABI registers every method of a parsed ABI under a contract label.
// Later registrations win on selector collisions.
func (d *Decoder) AddABI(contract, abiJSON string) error {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return errors.Wrap(errors.CodeInvalidArgument, err, "parse abi")
	}
	d.register(contract, parsed)
	return nil
}

func (d *Decoder) register(contract string, parsed abi.ABI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, method := range parsed.Methods {
		var sel [4]byte
		copy(sel[:], method.ID)
		d.selectors[sel] = decoderEntry{contract: contract, method: method}
	}
}

// Decode resolves calldata against the registered ABIs.
func (d *Decoder) Decode(data []byte) (*DecodedCall, error) {
	if len(data) < 4 {
		return nil, errors.New(errors.CodeInvalidArgument, "calldata shorter than a selector")
	}
	var sel [4]byte
	copy(sel[:], data[:4])

	d.mu.RLock()
	entry, ok := d.selectors[sel]
	d.mu.RUnlock()
	if !ok {
		return nil, errors.Newf(errors.CodeNotFound, "unknown selector 0x%s", hex.EncodeToString(sel[:]))
	}

	values, err := entry.method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, errors.Wrap(errors.CodeSerialization, err, "unpack "+entry.method.Name)
	}

	args := make(map[string]any, len(values))
	for i, input := range entry.method.Inputs {
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		args[name] = values[i]
	}
	return &DecodedCall{
		Contract: entry.contract,
		Method:   entry.method.Name,
		Selector: "0x" + hex.EncodeToString(sel[:]),
		Args:     args,
	}, nil
}

// Methods lists the registered method signatures, sorted.
func (d *Decoder) Methods() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.selectors))
	for _, entry := range d.selectors {
		out = append(out, entry.method.Sig)
	}
	sort.Strings(out)
	return out
}

func argAddress(args map[string]any, name string) (common.Address, bool) {
	v, ok := args[name].(common.Address)
	return v, ok
}

func argBig(args map[string]any, name string) (*big.Int, bool) {
	v, ok := args[name].(*big.Int)
	return v, ok
}
