package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/crypto/sha3"
)

const (
	cipherAES128CTR = "aes-128-ctr"
	kdfScrypt       = "scrypt"
	scryptDKLen     = 32
	saltLen         = 32
	ivLen           = aes.BlockSize
)

// ScryptParams controls the cost of the key derivation
type ScryptParams struct {
	N int
	R int
	P int
}

func (p ScryptParams) validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return fmt.Errorf("scrypt N must be a power of two > 1, got %d", p.N)
	}
	if p.R <= 0 || p.P <= 0 {
		return fmt.Errorf("scrypt r and p must be positive, got r=%d p=%d", p.R, p.P)
	}
	return nil
}

// EncryptOpts is the struct given to Encrypt
type EncryptOpts struct {
	PlainText string
	Password  string
	Scrypt    ScryptParams
}

func (o EncryptOpts) validate() error {
	if len(o.PlainText) <= 0 {
		return ErrEmptyMnemonic
	}
	return o.Scrypt.validate()
}

// Encrypt seals the plaintext into a base64 keystore envelope.
// An empty password is accepted.
func Encrypt(opts EncryptOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to read salt: %w", err)
	}
	iv := make([]byte, ivLen)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to read iv: %w", err)
	}

	dk, err := scrypt.Key([]byte(opts.Password), salt, opts.Scrypt.N, opts.Scrypt.R, opts.Scrypt.P, scryptDKLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	cipherText, err := aesCTR(dk[:16], iv, []byte(opts.PlainText))
	if err != nil {
		return "", err
	}

	env := Crypto{
		Cipher:       cipherAES128CTR,
		CipherText:   hex.EncodeToString(cipherText),
		CipherParams: CipherParams{IV: hex.EncodeToString(iv)},
		KDF:          kdfScrypt,
		KDFParams: KDFParams{
			DkLen: scryptDKLen,
			N:     opts.Scrypt.N,
			P:     opts.Scrypt.P,
			R:     opts.Scrypt.R,
			Salt:  hex.EncodeToString(salt),
		},
		MAC: hex.EncodeToString(keystoreMAC(dk[16:32], cipherText)),
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("failed to marshal keystore: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecryptOpts is the struct given to Decrypt
type DecryptOpts struct {
	CipherText string
	Password   string
}

// Decrypt opens an envelope produced by Encrypt. The MAC is checked before
// any plaintext is produced, so a wrong password yields ErrInvalidPassword.
func Decrypt(opts DecryptOpts) (string, error) {
	env, err := parseEnvelope(opts.CipherText)
	if err != nil {
		return "", err
	}

	salt, err := hex.DecodeString(env.KDFParams.Salt)
	if err != nil {
		return "", fmt.Errorf("%w: salt: %v", ErrInvalidCipherText, err)
	}
	iv, err := hex.DecodeString(env.CipherParams.IV)
	if err != nil || len(iv) != ivLen {
		return "", fmt.Errorf("%w: iv", ErrInvalidCipherText)
	}
	cipherText, err := hex.DecodeString(env.CipherText)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext: %v", ErrInvalidCipherText, err)
	}
	mac, err := hex.DecodeString(env.MAC)
	if err != nil {
		return "", fmt.Errorf("%w: mac: %v", ErrInvalidCipherText, err)
	}

	dk, err := scrypt.Key([]byte(opts.Password), salt, env.KDFParams.N, env.KDFParams.R, env.KDFParams.P, env.KDFParams.DkLen)
	if err != nil {
		return "", fmt.Errorf("%w: kdf: %v", ErrInvalidCipherText, err)
	}

	if subtle.ConstantTimeCompare(keystoreMAC(dk[16:32], cipherText), mac) != 1 {
		return "", ErrInvalidPassword
	}

	plain, err := aesCTR(dk[:16], iv, cipherText)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// InspectEnvelope decodes and checks the envelope layout without a password.
func InspectEnvelope(cipherText string) (*Crypto, error) {
	return parseEnvelope(cipherText)
}

func parseEnvelope(cipherText string) (*Crypto, error) {
	if len(cipherText) <= 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCipherText)
	}
	raw, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCipherText, err)
	}

	env := new(Crypto)
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCipherText, err)
	}
	if env.Cipher != cipherAES128CTR {
		return nil, fmt.Errorf("%w: unsupported cipher %q", ErrInvalidCipherText, env.Cipher)
	}
	if env.KDF != kdfScrypt {
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrInvalidCipherText, env.KDF)
	}
	if env.KDFParams.DkLen != scryptDKLen {
		return nil, fmt.Errorf("%w: dklen %d", ErrInvalidCipherText, env.KDFParams.DkLen)
	}
	return env, nil
}

func aesCTR(key, iv, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)
	return out, nil
}

func keystoreMAC(macKey, cipherText []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(macKey)
	h.Write(cipherText)
	return h.Sum(nil)
}
