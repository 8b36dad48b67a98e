package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChainIDHex(t *testing.T) {
	require.Equal(t, "0x1", ChainIDMainnet.Hex())
	require.Equal(t, "0xaa36a7", ChainIDSepolia.Hex())
	require.Equal(t, "0x539", ChainID(1337).Hex())
}

func TestParseChainID(t *testing.T) {
	tests := []struct {
		in   string
		want ChainID
		ok   bool
	}{
		{"0x1", 1, true},
		{"0xaa36a7", ChainIDSepolia, true},
		{"0XAA36A7", ChainIDSepolia, true},
		{" 0x539 ", 1337, true},
		{"1", 0, false},
		{"0x", 0, false},
		{"0xzz", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseChainID(tt.in)
		if !tt.ok {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got)
	}
}
