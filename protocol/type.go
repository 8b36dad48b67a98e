package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ChainID is an EIP-155 chain identifier.
type ChainID uint64

// Hex returns the 0x-prefixed lowercase hex form used on the provider wire.
func (id ChainID) Hex() string {
	return "0x" + strconv.FormatUint(uint64(id), 16)
}

func (id ChainID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseChainID accepts a 0x-prefixed hex quantity ("0x1", "0xaa36a7").
func ParseChainID(s string) (ChainID, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("chain id %q must be a 0x-prefixed hex string", s)
	}
	digits := s[2:]
	if digits == "" {
		return 0, fmt.Errorf("chain id %q has no digits", s)
	}
	v, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	return ChainID(v), nil
}
