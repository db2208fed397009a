package evm

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"mantra-sdk/internal/errors"
)

var (
	testToken     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testRecipient = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func packTransfer(t *testing.T, to common.Address, amount *big.Int) []byte {
	t.Helper()
	parsed, err := erc20ABI()
	if err != nil {
		t.Fatal(err)
	}
	data, err := parsed.Pack("transfer", to, amount)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDecodeTransfer(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatal(err)
	}

	data := packTransfer(t, testRecipient, big.NewInt(5_000_000))
	call, err := d.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if call.Method != "transfer" || call.Contract != "erc20" {
		t.Fatalf("decoded %s.%s", call.Contract, call.Method)
	}
	if call.Selector != "0xa9059cbb" {
		t.Fatalf("selector = %s", call.Selector)
	}
	to, ok := argAddress(call.Args, "to")
	if !ok || to != testRecipient {
		t.Fatalf("to = %v", call.Args["to"])
	}
	amount, ok := argBig(call.Args, "amount")
	if !ok || amount.Int64() != 5_000_000 {
		t.Fatalf("amount = %v", call.Args["amount"])
	}
}

func TestDecodeUnknownSelector(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatal(err)
	}
	_, err = d.Decode([]byte{0xde, 0xad, 0xbe, 0xef})
	if errors.CodeOf(err) != errors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	_, err = d.Decode([]byte{0x01})
	if errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT for short calldata, got %v", err)
	}
}

func TestDecodeSafeTransferFrom(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := erc721ABI()
	if err != nil {
		t.Fatal(err)
	}
	data, err := parsed.Pack("safeTransferFrom", testToken, testRecipient, big.NewInt(42))
	if err != nil {
		t.Fatal(err)
	}

	call, err := d.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if call.Method != "safeTransferFrom" || call.Contract != "erc721" {
		t.Fatalf("decoded %s.%s", call.Contract, call.Method)
	}
	tokenID, ok := argBig(call.Args, "tokenId")
	if !ok || tokenID.Int64() != 42 {
		t.Fatalf("tokenId = %v", call.Args["tokenId"])
	}
}

func TestAddABI(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatal(err)
	}

	const stakingABI = `[{"name":"stake","type":"function","stateMutability":"nonpayable",
	  "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}]`
	if err := d.AddABI("staking", stakingABI); err != nil {
		t.Fatalf("AddABI: %v", err)
	}
	found := false
	for _, sig := range d.Methods() {
		if sig == "stake(uint256)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("stake not registered: %v", d.Methods())
	}

	if err := d.AddABI("bad", "not json"); errors.CodeOf(err) != errors.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT for bad abi, got %v", err)
	}
}

func TestNarrate(t *testing.T) {
	d, err := NewDecoder()
	if err != nil {
		t.Fatal(err)
	}

	transfer := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(5887),
		To:        &testToken,
		Data:      packTransfer(t, testRecipient, big.NewInt(1000)),
		Gas:       60000,
		GasFeeCap: big.NewInt(1),
		GasTipCap: big.NewInt(1),
	})
	got := Narrate(d, transfer)
	if !strings.Contains(got, "transfer 1000 token units") || !strings.Contains(got, testRecipient.Hex()) {
		t.Fatalf("narrative = %q", got)
	}

	native := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(5887),
		To:        &testRecipient,
		Value:     big.NewInt(7),
		Gas:       21000,
		GasFeeCap: big.NewInt(1),
		GasTipCap: big.NewInt(1),
	})
	got = Narrate(d, native)
	if !strings.Contains(got, "send 7 wei") {
		t.Fatalf("narrative = %q", got)
	}

	deploy := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(5887),
		Data:      []byte{0x60, 0x80, 0x60, 0x40},
		Gas:       500000,
		GasFeeCap: big.NewInt(1),
		GasTipCap: big.NewInt(1),
	})
	got = Narrate(d, deploy)
	if !strings.Contains(got, "deploy contract") {
		t.Fatalf("narrative = %q", got)
	}
}
