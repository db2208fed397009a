package evm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Narrate turns a transaction into a one-line human summary. Calldata
// the decoder recognizes is spelled out; the rest falls back to a raw
// description.
func Narrate(d *Decoder, tx *types.Transaction) string {
	to := tx.To()
	if to == nil {
		return fmt.Sprintf("deploy contract (%d bytes of code)", len(tx.Data()))
	}
	if len(tx.Data()) == 0 {
		return fmt.Sprintf("send %s wei to %s", weiString(tx.Value()), to.Hex())
	}

	call, err := d.Decode(tx.Data())
	if err != nil {
		return fmt.Sprintf("call %s with %d bytes of calldata", to.Hex(), len(tx.Data()))
	}
	return NarrateCall(call, *to, tx.Value())
}

// NarrateCall renders a decoded call. Token methods get tailored
// phrasing; everything else lists the method and argument count.
func NarrateCall(call *DecodedCall, to common.Address, value *big.Int) string {
	switch call.Method {
	case "transfer":
		if dest, ok := argAddress(call.Args, "to"); ok {
			if amount, ok := argBig(call.Args, "amount"); ok {
				return fmt.Sprintf("transfer %s token units to %s via %s",
					amount.String(), dest.Hex(), to.Hex())
			}
		}
	case "transferFrom":
		from, okFrom := argAddress(call.Args, "from")
		dest, okTo := argAddress(call.Args, "to")
		if okFrom && okTo {
			return fmt.Sprintf("move tokens from %s to %s via %s",
				from.Hex(), dest.Hex(), to.Hex())
		}
	case "approve":
		if spender, ok := argAddress(call.Args, "spender"); ok {
			if amount, ok := argBig(call.Args, "amount"); ok {
				return fmt.Sprintf("approve %s to spend %s token units of %s",
					spender.Hex(), amount.String(), to.Hex())
			}
			if tokenID, ok := argBig(call.Args, "tokenId"); ok {
				return fmt.Sprintf("approve %s for token #%s of %s",
					spender.Hex(), tokenID.String(), to.Hex())
			}
		}
		if operator, ok := argAddress(call.Args, "to"); ok {
			if tokenID, ok := argBig(call.Args, "tokenId"); ok {
				return fmt.Sprintf("approve %s for token #%s of %s",
					operator.Hex(), tokenID.String(), to.Hex())
			}
		}
	case "safeTransferFrom":
		dest, okTo := argAddress(call.Args, "to")
		tokenID, okID := argBig(call.Args, "tokenId")
		if okTo && okID {
			return fmt.Sprintf("transfer token #%s of %s to %s",
				tokenID.String(), to.Hex(), dest.Hex())
		}
	}

	suffix := ""
	if value != nil && value.Sign() > 0 {
		suffix = fmt.Sprintf(" sending %s wei", weiString(value))
	}
	return fmt.Sprintf("call %s.%s with %d args%s", to.Hex(), call.Method, len(call.Args), suffix)
}

func weiString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
