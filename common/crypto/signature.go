package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const SignatureLength = ethcrypto.SignatureLength

// SignMessage produces a personal_sign (EIP-191) signature with V in {27,28}
func SignMessage(privateKey *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("private key is nil")
	}

	sig, err := ethcrypto.Sign(accounts.TextHash(msg), privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	sig[ethcrypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverSigner returns the address that produced a personal_sign signature
func RecoverSigner(msg, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}

	s := make([]byte, SignatureLength)
	copy(s, sig)
	if s[ethcrypto.RecoveryIDOffset] >= 27 {
		s[ethcrypto.RecoveryIDOffset] -= 27
	}

	pub, err := ethcrypto.SigToPub(accounts.TextHash(msg), s)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}

// VerifyMessage checks that sig over msg was made by address
func VerifyMessage(address common.Address, msg, sig []byte) bool {
	signer, err := RecoverSigner(msg, sig)
	if err != nil {
		return false
	}
	return signer == address
}

// DecodeMessage interprets a personal_sign payload: valid 0x-hex is
// decoded to bytes, anything else is taken as UTF-8 text.
func DecodeMessage(s string) []byte {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if b, err := hexutil.Decode("0x" + s[2:]); err == nil {
			return b
		}
	}
	return []byte(s)
}
