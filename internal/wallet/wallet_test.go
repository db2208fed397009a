package wallet

import (
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"mantra-sdk/internal/config"
	"mantra-sdk/internal/cosmos"
)

// Reference BIP-39 mnemonic with known derivation results.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

const (
	wantCosmosAddr0 = "mantra19rl4cm2hmr8afy4kldpxz3fka4jguq0aht8eu0"
	wantCosmosAddr1 = "mantra1jrkmdcwgq94uaamx6zax2luewlhf7u4khnv44c"
	wantPubKey0     = "024f4e2ad99c34d60b9ba6283c9431a8418af8673212961f97a77b6377fcd05b62"
	wantEVMAddr0    = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"
)

func testNetwork(t *testing.T) config.NetworkConstants {
	t.Helper()
	net, err := config.NetworkByName(config.NetworkDukong)
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestDeterministicDerivation(t *testing.T) {
	net := testNetwork(t)

	tests := []struct {
		index    uint32
		wantAddr string
	}{
		{0, wantCosmosAddr0},
		{1, wantCosmosAddr1},
	}
	for _, tt := range tests {
		w, err := NewFromMnemonic(testMnemonic, tt.index, net)
		if err != nil {
			t.Fatalf("index %d: %v", tt.index, err)
		}
		if w.Address() != tt.wantAddr {
			t.Errorf("index %d: address = %s, want %s", tt.index, w.Address(), tt.wantAddr)
		}
	}

	w, _ := NewFromMnemonic(testMnemonic, 0, net)
	if got := hex.EncodeToString(w.PublicKey()); got != wantPubKey0 {
		t.Fatalf("pubkey = %s, want %s", got, wantPubKey0)
	}
	info := w.Info()
	if info.Address != wantCosmosAddr0 || info.PublicKey != wantPubKey0 || info.AccountIndex != 0 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestInvalidMnemonicRejected(t *testing.T) {
	net := testNetwork(t)
	if _, err := NewFromMnemonic("definitely not a mnemonic", 0, net); err == nil {
		t.Fatal("expected error for invalid mnemonic")
	}
	if _, err := NewFromMnemonic("", 0, net); err == nil {
		t.Fatal("expected error for empty mnemonic")
	}
}

func TestGenerateProducesValidWallet(t *testing.T) {
	net := testNetwork(t)
	w, err := Generate(net)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(strings.Fields(w.Mnemonic())) != 12 {
		t.Fatalf("expected 12-word mnemonic, got %q", w.Mnemonic())
	}
	if !strings.HasPrefix(w.Address(), "mantra1") {
		t.Fatalf("unexpected address %s", w.Address())
	}

	// re-deriving from the generated mnemonic must be stable
	again, err := NewFromMnemonic(w.Mnemonic(), 0, net)
	if err != nil {
		t.Fatal(err)
	}
	if again.Address() != w.Address() {
		t.Fatal("regenerated address differs")
	}
}

func TestSignIsDeterministicAndCompact(t *testing.T) {
	net := testNetwork(t)
	w, err := NewFromMnemonic(testMnemonic, 0, net)
	if err != nil {
		t.Fatal(err)
	}

	doc := []byte(`{"chain_id":"mantra-dukong-1","msgs":[]}`)
	sig1, err := w.Sign(doc)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig1) != 64 {
		t.Fatalf("signature length = %d, want 64", len(sig1))
	}
	sig2, _ := w.Sign(doc)
	if hex.EncodeToString(sig1) != hex.EncodeToString(sig2) {
		t.Fatal("signatures over the same doc differ")
	}
}

func TestFee(t *testing.T) {
	net := testNetwork(t)
	w, _ := NewFromMnemonic(testMnemonic, 0, net)

	fee := w.Fee(200000)
	if fee.Gas != "300000" {
		t.Fatalf("gas = %s, want 300000", fee.Gas)
	}
	if len(fee.Amount) != 1 || fee.Amount[0].Denom != "uom" || fee.Amount[0].Amount != "3000" {
		t.Fatalf("unexpected fee amount: %+v", fee.Amount)
	}
}

func TestEthereumAddressFromCosmosKey(t *testing.T) {
	net := testNetwork(t)
	w, _ := NewFromMnemonic(testMnemonic, 0, net)
	addr, err := w.EthereumAddress()
	if err != nil {
		t.Fatalf("EthereumAddress: %v", err)
	}
	// same mnemonic, cosmos coin type: address differs from the 60' path
	if addr == common.HexToAddress(wantEVMAddr0) {
		t.Fatal("coin type 118 key should not yield the 60' address")
	}
	if addr == (common.Address{}) {
		t.Fatal("empty address")
	}
}

func TestSignEVMTransaction(t *testing.T) {
	net := testNetwork(t)
	w, _ := NewFromMnemonic(testMnemonic, 0, net)

	to := common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	chainID := big.NewInt(int64(net.EVMChainID))
	signed, err := w.SignEVMTransaction(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     1,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(20_000_000_000),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(1),
	})
	if err != nil {
		t.Fatalf("SignEVMTransaction: %v", err)
	}
	if signed.Type() != types.DynamicFeeTxType {
		t.Fatalf("tx type = %d", signed.Type())
	}

	signer := types.LatestSignerForChainID(chainID)
	sender, err := types.Sender(signer, signed)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	wantSender, _ := w.EthereumAddress()
	if sender != wantSender {
		t.Fatalf("sender = %s, want %s", sender, wantSender)
	}

	if _, err := w.SignEVMTransaction(&types.DynamicFeeTx{}); err == nil {
		t.Fatal("expected error for missing chain id")
	}
}

func TestSignEIP712(t *testing.T) {
	net := testNetwork(t)
	w, _ := NewFromMnemonic(testMnemonic, 0, net)

	var domain, structHash [32]byte
	domain[0], structHash[0] = 0xAA, 0xBB
	sig, err := w.SignEIP712(domain, structHash)
	if err != nil {
		t.Fatalf("SignEIP712: %v", err)
	}
	if len(sig) != 65 {
		t.Fatalf("signature length = %d, want 65", len(sig))
	}
}

func TestStdSignDocBytes(t *testing.T) {
	fee := StdFee{
		Amount: []cosmos.Coin{{Denom: "uom", Amount: "3000"}},
		Gas:    "300000",
	}
	msg := json.RawMessage(`{"type":"wasm/MsgExecuteContract"}`)
	doc, err := StdSignDocBytes("mantra-dukong-1", 7, 42, fee, []json.RawMessage{msg}, "")
	if err != nil {
		t.Fatalf("StdSignDocBytes: %v", err)
	}

	// canonical amino JSON orders keys alphabetically
	want := `{"account_number":"7","chain_id":"mantra-dukong-1","fee":{"amount":[{"denom":"uom","amount":"3000"}],"gas":"300000"},"memo":"","msgs":[{"type":"wasm/MsgExecuteContract"}],"sequence":"42"}`
	if string(doc) != want {
		t.Fatalf("sign doc mismatch:\n got %s\nwant %s", doc, want)
	}
}
