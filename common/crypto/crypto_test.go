package crypto

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hardhat account #0
const (
	testKeyHex  = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	return common.FromHex(testKeyHex)
}

func TestKeyRoundTrip(t *testing.T) {
	priv, err := BytesToPrivateKey(testKey(t))
	require.NoError(t, err)
	assert.Equal(t, testKey(t), PrivateKeyToBytes(priv))

	addr := PublicKeyToAddress(&priv.PublicKey)
	assert.Equal(t, testAddress, AddressTo0xPrefixString(addr))

	pubBytes, err := PublicKeyToBytes(&priv.PublicKey)
	require.NoError(t, err)
	require.Len(t, pubBytes, 65)
	pub, err := BytesToPublicKey(pubBytes)
	require.NoError(t, err)
	assert.Equal(t, addr, PublicKeyToAddress(pub))
}

func TestBytesToPrivateKeyRejectsEmpty(t *testing.T) {
	_, err := BytesToPrivateKey(nil)
	require.Error(t, err)
}

func TestSignAndVerifyMessage(t *testing.T) {
	priv, err := BytesToPrivateKey(testKey(t))
	require.NoError(t, err)
	addr := PublicKeyToAddress(&priv.PublicKey)

	msg := []byte("hello wallet")
	sig, err := SignMessage(priv, msg)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[64])

	assert.True(t, VerifyMessage(addr, msg, sig))
	assert.False(t, VerifyMessage(addr, []byte("other"), sig))

	other, _, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.False(t, VerifyMessage(PublicKeyToAddress(&other.PublicKey), msg, sig))
}

func TestSignMessageNilKey(t *testing.T) {
	_, err := SignMessage(nil, []byte("x"))
	require.Error(t, err)
}

func TestDecodeMessage(t *testing.T) {
	assert.Equal(t, []byte{0xde, 0xad}, DecodeMessage("0xdead"))
	assert.Equal(t, []byte("hello"), DecodeMessage("hello"))
	// odd-length hex is not valid hex, so it stays text
	assert.Equal(t, []byte("0xabc"), DecodeMessage("0xabc"))
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress(testAddress, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"))
	assert.False(t, SameAddress(testAddress, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"))
	assert.True(t, IsAddress(testAddress))
	assert.False(t, IsAddress("f39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
	assert.False(t, IsAddress("0x1234"))
}
