package dashboard

import (
	"errors"
	"testing"

	"github.com/abcfe/abcfe-wallet/internal/dashboard/api"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		amount   string
		decimals uint8
		want     string
	}{
		{"0", 18, "0"},
		{"1000000000000000000", 18, "1"},
		{"1500000000000000000", 18, "1.5"},
		{"123", 18, "0"},
		{"1234567890000000000", 18, "1.234567"},
		{"42", 0, "42"},
		{"250", 2, "2.5"},
		{"not-a-number", 18, "not-a-number"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatUnits(c.amount, c.decimals), c.amount)
	}
}

func testModel() Model {
	return initialModel(Config{LogPath: "/nonexistent/wallet"}, api.NewClientWithURL("http://127.0.0.1:1"))
}

func walletMsg(unlocked bool, addrs ...string) walletUpdateMsg {
	w := &api.WalletStatus{Created: true, Unlocked: unlocked, AccountCount: uint32(len(addrs))}
	for i, a := range addrs {
		w.Accounts = append(w.Accounts, api.WalletAccount{Index: uint32(i), Address: a})
	}
	return walletUpdateMsg{
		wallet: w,
		chains: []api.ChainInfo{
			{ID: 1, ChainID: "0x1", Name: "Ethereum", Symbol: "ETH", Decimals: 18, Active: true},
			{ID: 11155111, ChainID: "0xaa36a7", Name: "Sepolia", Symbol: "ETH", Decimals: 18},
		},
	}
}

func TestModelWalletUpdate(t *testing.T) {
	m := testModel()

	next, cmd := m.Update(walletMsg(true, "0xa", "0xb"))
	m = next.(Model)
	assert.True(t, m.online)
	assert.Equal(t, "UNLOCKED", m.walletState())
	require.Len(t, m.accounts, 2)
	assert.NotNil(t, cmd, "balances are fetched for new accounts")

	next, _ = m.Update(balanceMsg{address: "0xb", balance: "2000000000000000000"})
	m = next.(Model)
	assert.Equal(t, "2000000000000000000", m.accounts[1].Balance)
	assert.Empty(t, m.accounts[0].Balance)

	next, _ = m.Update(walletUpdateMsg{err: errors.New("connection refused")})
	m = next.(Model)
	assert.Equal(t, "OFFLINE", m.walletState())
	assert.Equal(t, "connection refused", m.lastErr)
}

func TestModelLockedHasNoBalanceFetch(t *testing.T) {
	m := testModel()
	next, _ := m.Update(walletMsg(false))
	m = next.(Model)
	assert.Equal(t, "LOCKED", m.walletState())
	assert.Nil(t, m.fetchBalances())
}

func TestModelNavigationAndChainCycle(t *testing.T) {
	m := testModel()
	next, _ := m.Update(walletMsg(true, "0xa", "0xb"))
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.selected)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.selected, "selection stops at the last account")

	chain, ok := m.nextChain()
	require.True(t, ok)
	assert.Equal(t, "0xaa36a7", chain.ChainID)

	// selection is clamped when accounts disappear
	next, _ = m.Update(walletMsg(true, "0xa"))
	m = next.(Model)
	assert.Equal(t, 0, m.selected)
}

func TestModelUnlockPrompt(t *testing.T) {
	m := testModel()
	next, _ := m.Update(walletMsg(false))
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("u")})
	m = next.(Model)
	require.True(t, m.unlocking)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pw")})
	m = next.(Model)
	assert.Equal(t, "pw", m.input.Value())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.False(t, m.unlocking)
	assert.Empty(t, m.input.Value())
	assert.NotNil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "ABCFe Wallet")
	assert.Contains(t, view, "Ethereum (0x1)")
}
