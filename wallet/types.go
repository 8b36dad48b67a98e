package wallet

import (
	"crypto/ecdsa"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/common"
)

// Keystore envelope around the encrypted mnemonic
type CipherParams struct {
	IV string `json:"iv"` // Initialization vector
}

type KDFParams struct {
	DkLen int    `json:"dklen"` // Derived key length
	N     int    `json:"n"`     // CPU/Memory cost
	P     int    `json:"p"`     // Parallelization parameter
	R     int    `json:"r"`     // Block size
	Salt  string `json:"salt"`  // Salt
}

type Crypto struct {
	Cipher       string       `json:"cipher"`     // "aes-128-ctr"
	CipherText   string       `json:"ciphertext"` // Encrypted mnemonic
	CipherParams CipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"` // "scrypt"
	KDFParams    KDFParams    `json:"kdfparams"`
	MAC          string       `json:"mac"` // keccak256(dk[16:32] || ciphertext)
}

// Persisted records
type MnemonicRecord struct {
	EncryptedMnemonic string `json:"encryptedMnemonic"`
}

type IndexRecord struct {
	CurrentIndex uint32 `json:"currentIndex"`
	WalletName   string `json:"walletName,omitempty"`
}

// Account is recomputed from (mnemonic, index) and never persisted.
type Account struct {
	Index   uint32         `json:"index"`   // Account index (0, 1, 2...)
	Address common.Address `json:"address"` // 20-byte address
	Path    string         `json:"path"`    // BIP-44 path (m/44'/60'/0'/0/0)

	key *ecdsa.PrivateKey
}

// PrivateKey returns the signing key, nil for accounts built without one.
func (a *Account) PrivateKey() *ecdsa.PrivateKey {
	return a.key
}

// Hex returns the checksummed address
func (a *Account) Hex() string {
	return a.Address.Hex()
}

// BIP-44 path constants
const (
	BIP44Purpose  = 44
	BIP44CoinType = 60 // Ethereum
	BIP44Account  = 0
	BIP44Change   = 0 // External
)

// MaxAccountIndex is the last non-hardened child index.
const MaxAccountIndex = hdkeychain.HardenedKeyStart - 1
