package wallet

import (
	"crypto/ecdsa"
	"crypto/sha256"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/ripemd160"

	"mantra-sdk/internal/errors"
)

// BIP-44 coin types used by the two VMs.
const (
	CosmosCoinType   uint32 = 118
	EthereumCoinType uint32 = 60
)

// MnemonicEntropyBits yields 12-word mnemonics.
const MnemonicEntropyBits = 128

// NewMnemonic generates a fresh BIP-39 mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", errors.Wrap(errors.CodeWallet, err, "generate entropy")
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(errors.CodeWallet, err, "generate mnemonic")
	}
	return mnemonic, nil
}

// ValidateMnemonic checks BIP-39 word list and checksum.
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return errors.New(errors.CodeWallet, "invalid mnemonic")
	}
	return nil
}

// derivePrivateKey walks m/44'/coinType'/0'/0/accountIndex from the
// mnemonic's seed.
func derivePrivateKey(mnemonic string, coinType, accountIndex uint32) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(errors.CodeWallet, err, "derive seed")
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, errors.Wrap(errors.CodeWallet, err, "derive master key")
	}
	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + coinType,
		bip32.FirstHardenedChild,
		0,
		accountIndex,
	}
	for _, index := range path {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, errors.Wrap(errors.CodeWallet, err, "derive child key")
		}
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return nil, errors.Wrap(errors.CodeWallet, err, "parse derived key")
	}
	return priv, nil
}

// cosmosAddress computes bech32(hrp, ripemd160(sha256(compressed pubkey))).
func cosmosAddress(pub *ecdsa.PublicKey, hrp string) (string, error) {
	compressed := crypto.CompressPubkey(pub)
	sha := sha256.Sum256(compressed)
	hasher := ripemd160.New()
	hasher.Write(sha[:])
	raw := hasher.Sum(nil)

	converted, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.CodeWallet, err, "convert address bits")
	}
	encoded, err := bech32.Encode(hrp, converted)
	if err != nil {
		return "", errors.Wrap(errors.CodeWallet, err, "encode bech32 address")
	}
	return encoded, nil
}

// ethereumAddress computes Keccak-256 over the uncompressed public key
// body and keeps the last 20 bytes. The key must be 65 bytes with the
// 0x04 uncompressed prefix.
func ethereumAddress(pub *ecdsa.PublicKey) (common.Address, error) {
	uncompressed := crypto.FromECDSAPub(pub)
	if len(uncompressed) != 65 || uncompressed[0] != 0x04 {
		return common.Address{}, errors.Newf(errors.CodeWallet,
			"unexpected public key encoding: %d bytes", len(uncompressed))
	}
	hash := crypto.Keccak256(uncompressed[1:])
	return common.BytesToAddress(hash[12:]), nil
}
