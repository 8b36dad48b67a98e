package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/storage"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/tyler-smith/go-bip39"
)

const DefaultEntropyBits = 128

// Vault generates mnemonics and keeps them encrypted in the store.
type Vault struct {
	store        storage.Store
	scrypt       ScryptParams
	entropyBits  int
	restoreLimit uint32
}

type VaultOption func(*Vault)

func WithScrypt(p ScryptParams) VaultOption {
	return func(v *Vault) { v.scrypt = p }
}

func WithEntropyBits(bits int) VaultOption {
	return func(v *Vault) { v.entropyBits = bits }
}

// WithRestoreLimit caps how many accounts a single restore may derive
func WithRestoreLimit(n uint32) VaultOption {
	return func(v *Vault) { v.restoreLimit = n }
}

// WithWalletConfig applies the [Wallet] section of the config file
func WithWalletConfig(cfg config.Wallet) VaultOption {
	return func(v *Vault) {
		if cfg.EntropyBits > 0 {
			v.entropyBits = cfg.EntropyBits
		}
		if cfg.ScryptN > 0 && cfg.ScryptR > 0 && cfg.ScryptP > 0 {
			v.scrypt = ScryptParams{N: cfg.ScryptN, R: cfg.ScryptR, P: cfg.ScryptP}
		}
		if cfg.MaxRestoreAccounts > 0 {
			v.restoreLimit = cfg.MaxRestoreAccounts
		}
	}
}

func NewVault(store storage.Store, opts ...VaultOption) *Vault {
	v := &Vault{
		store:  store,
		scrypt: ScryptParams{
			N: config.StandardScryptN,
			R: config.StandardScryptR,
			P: config.StandardScryptP,
		},
		entropyBits:  DefaultEntropyBits,
		restoreLimit: config.DefaultMaxRestoreAccounts,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Generate returns a fresh English BIP-39 mnemonic. Nothing is persisted.
func (v *Vault) Generate() (string, error) {
	return NewMnemonic(v.entropyBits)
}

func (v *Vault) Encrypt(mnemonic, password string) (string, error) {
	return Encrypt(EncryptOpts{PlainText: mnemonic, Password: password, Scrypt: v.scrypt})
}

func (v *Vault) Decrypt(cipherText, password string) (string, error) {
	return Decrypt(DecryptOpts{CipherText: cipherText, Password: password})
}

// Save persists the cipher text, replacing any previous record
func (v *Vault) Save(cipherText string) error {
	raw, err := utils.SerializeData(MnemonicRecord{EncryptedMnemonic: cipherText}, utils.SerializationFormatJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", prt.ErrPersistence, err)
	}
	if err := v.store.Put(prt.KeyWalletData, raw); err != nil {
		return fmt.Errorf("%w: failed to save mnemonic: %v", prt.ErrPersistence, err)
	}
	return nil
}

// clear blanks the stored record. Load reports a blank record as absent.
func (v *Vault) clear() error {
	return v.Save("")
}

// Load returns the stored cipher text. ok is false when no wallet was saved.
func (v *Vault) Load() (cipherText string, ok bool, err error) {
	raw, err := v.store.Get(prt.KeyWalletData)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: failed to load mnemonic: %v", prt.ErrPersistence, err)
	}
	if len(raw) == 0 {
		return "", false, nil
	}

	var rec MnemonicRecord
	if err := utils.DeserializeData(raw, &rec, utils.SerializationFormatJSON); err != nil {
		return "", false, fmt.Errorf("%w: wallet record: %v", ErrInvalidCipherText, err)
	}
	if rec.EncryptedMnemonic == "" {
		return "", false, nil
	}
	return rec.EncryptedMnemonic, true, nil
}

// Exists reports whether an encrypted mnemonic is stored
func (v *Vault) Exists() (bool, error) {
	_, ok, err := v.Load()
	return ok, err
}

// NewMnemonic draws CSPRNG entropy of the given size and encodes it.
func NewMnemonic(bits int) (string, error) {
	if bits < 128 || bits > 256 || bits%32 != 0 {
		return "", ErrInvalidEntropy
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEntropy, err)
	}
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic collapses whitespace and validates the checksum
func NormalizeMnemonic(mnemonic string) (string, error) {
	words := strings.Fields(strings.ToLower(mnemonic))
	if len(words) == 0 {
		return "", ErrEmptyMnemonic
	}
	m := strings.Join(words, " ")
	if !bip39.IsMnemonicValid(m) {
		return "", ErrInvalidMnemonic
	}
	return m, nil
}
