package crypto

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// PublicKeyToAddress is keccak256 of the uncompressed key, last 20 bytes
func PublicKeyToAddress(publicKey *ecdsa.PublicKey) common.Address {
	return ethcrypto.PubkeyToAddress(*publicKey)
}

// Add 0x prefix to address, EIP-55 checksummed
func AddressTo0xPrefixString(address common.Address) string {
	return address.Hex()
}

// IsAddress reports whether s is a 0x-prefixed 20-byte hex string.
func IsAddress(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "0x") && common.IsHexAddress(s)
}

// SameAddress compares two hex addresses ignoring checksum casing.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
