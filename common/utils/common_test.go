package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	require.Equal(t, "/home/tester", ExpandHome("~"))
	require.Equal(t, "/home/tester/.abcfe-wallet/log", ExpandHome("~/.abcfe-wallet/log"))
	require.Equal(t, "/var/lib/wallet", ExpandHome("/var/lib/wallet"))
	require.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))

	require.Equal(t, root, FindProjectRoot(nested))
}

func TestSerializeRoundTrip(t *testing.T) {
	type record struct {
		CurrentIndex int    `json:"currentIndex"`
		WalletName   string `json:"walletName"`
	}
	in := record{CurrentIndex: 3, WalletName: "main"}
	data, err := SerializeData(in, SerializationFormatJSON)
	require.NoError(t, err)
	require.JSONEq(t, `{"currentIndex":3,"walletName":"main"}`, string(data))

	var out record
	require.NoError(t, DeserializeData(data, &out, SerializationFormatJSON))
	require.Equal(t, in, out)

	_, err = SerializeData(in, 42)
	require.Error(t, err)
}

func TestShortHex(t *testing.T) {
	require.Equal(t, "0xabc", ShortHex("0xabc"))
	require.Equal(t, "0xf39F...2266", ShortHex("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
}
