package wallet

import (
	"fmt"

	prt "github.com/abcfe/abcfe-wallet/protocol"
)

var (
	ErrInvalidPassword   = fmt.Errorf("%w: invalid password", prt.ErrCrypto)
	ErrInvalidCipherText = fmt.Errorf("%w: invalid cipher text", prt.ErrCrypto)
	ErrInvalidMnemonic   = fmt.Errorf("%w: invalid mnemonic", prt.ErrValidation)
	ErrInvalidEntropy    = fmt.Errorf("%w: entropy must be 128..256 bits, multiple of 32", prt.ErrValidation)
	ErrEmptyMnemonic     = fmt.Errorf("%w: mnemonic must not be empty", prt.ErrValidation)

	ErrNonSequentialIndex = fmt.Errorf("%w: account index must advance by exactly one", prt.ErrValidation)
	ErrIndexOutOfRange    = fmt.Errorf("%w: account index out of range", prt.ErrValidation)

	ErrNullDerivationPath      = fmt.Errorf("%w: derivation path must not be null", prt.ErrValidation)
	ErrMalformedDerivationPath = fmt.Errorf("%w: path must not start or end with a '/'", prt.ErrValidation)

	ErrWalletExists   = fmt.Errorf("%w: wallet already exists", prt.ErrValidation)
	ErrWalletNotFound = fmt.Errorf("%w: wallet not found", prt.ErrValidation)
	ErrWalletLocked   = fmt.Errorf("%w: wallet is locked", prt.ErrValidation)
	ErrInvalidCount   = fmt.Errorf("%w: account count must be at least 1", prt.ErrValidation)
	ErrRestoreLimit   = fmt.Errorf("%w: too many accounts requested", prt.ErrValidation)
)
