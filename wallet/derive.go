package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"github.com/abcfe/abcfe-wallet/common/crypto"
)

// DerivationPath is the binary form of a BIP-32 path
type DerivationPath []uint32

// DefaultBasePath is m/44'/60'/0'/0, the parent of every account key
var DefaultBasePath = DerivationPath{
	hdkeychain.HardenedKeyStart + BIP44Purpose,
	hdkeychain.HardenedKeyStart + BIP44CoinType,
	hdkeychain.HardenedKeyStart + BIP44Account,
	BIP44Change,
}

// AccountPath returns m/44'/60'/0'/0/{index}
func AccountPath(index uint32) DerivationPath {
	p := make(DerivationPath, 0, len(DefaultBasePath)+1)
	p = append(p, DefaultBasePath...)
	return append(p, index)
}

// ParseDerivationPath converts "m/44'/60'/0'/0/0" to its binary form
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	for _, e := range elems {
		if strings.TrimSpace(e) == "" {
			return nil, ErrMalformedDerivationPath
		}
	}
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}
	if len(elems) == 0 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var value uint32

		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		bigval, ok := new(big.Int).SetString(elem, 10)
		if !ok {
			return nil, fmt.Errorf("%w: invalid elem '%s' in path", ErrMalformedDerivationPath, elem)
		}

		limit := int64(math.MaxUint32 - value)
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(limit)) > 0 {
			return nil, fmt.Errorf("%w: elem %v out of range [0, %d]", ErrMalformedDerivationPath, bigval, limit)
		}
		path = append(path, value+uint32(bigval.Uint64()))
	}
	return path, nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		hardened := component >= hdkeychain.HardenedKeyStart
		if hardened {
			component -= hdkeychain.HardenedKeyStart
		}
		fmt.Fprintf(&b, "/%d", component)
		if hardened {
			b.WriteString("'")
		}
	}
	return b.String()
}

// Derive computes the account at index. Same inputs, same account.
func Derive(mnemonic string, index uint32) (*Account, error) {
	parent, err := accountParent(mnemonic)
	if err != nil {
		return nil, err
	}
	return deriveChild(parent, index)
}

// DeriveRange returns accounts 0..count-1 in ascending order
func DeriveRange(mnemonic string, count uint32) ([]*Account, error) {
	if count == 0 {
		return []*Account{}, nil
	}
	if count-1 > MaxAccountIndex {
		return nil, ErrIndexOutOfRange
	}

	parent, err := accountParent(mnemonic)
	if err != nil {
		return nil, err
	}

	accounts := make([]*Account, 0, count)
	for i := uint32(0); i < count; i++ {
		acc, err := deriveChild(parent, i)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// accountParent walks the seed down to m/44'/60'/0'/0
func accountParent(mnemonic string) (*hdkeychain.ExtendedKey, error) {
	m, err := NormalizeMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	seed, err := bip39.NewSeedWithErrorChecking(m, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer crypto.Zero(seed)

	key, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	for _, c := range DefaultBasePath {
		if key, err = key.Derive(c); err != nil {
			return nil, fmt.Errorf("failed to derive %s: %w", DefaultBasePath, err)
		}
	}
	return key, nil
}

func deriveChild(parent *hdkeychain.ExtendedKey, index uint32) (*Account, error) {
	if index > MaxAccountIndex {
		return nil, ErrIndexOutOfRange
	}

	child, err := parent.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("failed to derive child %d: %w", index, err)
	}
	ecKey, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get private key %d: %w", index, err)
	}

	raw := ecKey.Serialize()
	priv, err := crypto.BytesToPrivateKey(raw)
	crypto.Zero(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key %d: %w", index, err)
	}

	return &Account{
		Index:   index,
		Address: crypto.PublicKeyToAddress(&priv.PublicKey),
		Path:    AccountPath(index).String(),
		key:     priv,
	}, nil
}
