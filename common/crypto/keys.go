package crypto

import (
	"crypto/ecdsa"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GenerateKeyPair creates a random secp256k1 key pair
func GenerateKeyPair() (*ecdsa.PrivateKey, *ecdsa.PublicKey, error) {
	privateKey, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return privateKey, &privateKey.PublicKey, nil
}

// Helper function to convert private key to bytes (32-byte scalar)
func PrivateKeyToBytes(privateKey *ecdsa.PrivateKey) []byte {
	if privateKey == nil {
		return nil
	}
	return ethcrypto.FromECDSA(privateKey)
}

// Helper function to convert bytes to private key
func BytesToPrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("private key bytes is empty")
	}
	return ethcrypto.ToECDSA(data)
}

// PublicKeyToBytes returns the 65-byte uncompressed encoding
func PublicKeyToBytes(publicKey *ecdsa.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("public key is nil")
	}
	return ethcrypto.FromECDSAPub(publicKey), nil
}

func BytesToPublicKey(data []byte) (*ecdsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key bytes is empty")
	}
	return ethcrypto.UnmarshalPubkey(data)
}

// Zero wipes key material held in a byte slice.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
