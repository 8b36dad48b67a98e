package protocol

import "errors"

// Error kinds. Concrete errors wrap one of these with %w so callers can
// classify failures with errors.Is.
var (
	ErrPersistence       = errors.New("persistence error")
	ErrValidation        = errors.New("validation error")
	ErrCrypto            = errors.New("crypto error")
	ErrUnsupportedMethod = errors.New("unsupported method")
	ErrNetwork           = errors.New("network error")
)
