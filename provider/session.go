package provider

import (
	"context"

	"github.com/abcfe/abcfe-wallet/chain"
	"github.com/abcfe/abcfe-wallet/wallet"
)

// Session is the state a single request is served against
type Session struct {
	Accounts   []*wallet.Account
	Active     *wallet.Account // first account, nil when there is none
	Chain      chain.Descriptor
	ChainIDHex string
	Clients    *chain.Clients
}

// Snapshotter builds a fresh Session per request
type Snapshotter interface {
	Snapshot(ctx context.Context) (*Session, error)
}

type SnapshotFunc func(ctx context.Context) (*Session, error)

func (f SnapshotFunc) Snapshot(ctx context.Context) (*Session, error) {
	return f(ctx)
}

// AccountSource yields the derived accounts of the unlocked wallet
type AccountSource interface {
	UnlockedAccounts(ctx context.Context) ([]*wallet.Account, error)
}

// ClientSource yields the active chain and a held set of its clients
type ClientSource interface {
	Acquire(ctx context.Context) (*chain.Clients, chain.Descriptor, error)
}

// WalletSnapshotter reads the unlocked accounts and the registry every time.
// Sessions it builds hold their clients until Release.
type WalletSnapshotter struct {
	accounts AccountSource
	chains   ClientSource
}

func NewWalletSnapshotter(accounts AccountSource, chains ClientSource) *WalletSnapshotter {
	return &WalletSnapshotter{accounts: accounts, chains: chains}
}

func (s *WalletSnapshotter) Snapshot(ctx context.Context) (*Session, error) {
	accounts, err := s.accounts.UnlockedAccounts(ctx)
	if err != nil {
		return nil, err
	}
	clients, desc, err := s.chains.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return NewSession(accounts, desc, clients), nil
}

func NewSession(accounts []*wallet.Account, desc chain.Descriptor, clients *chain.Clients) *Session {
	s := &Session{
		Accounts:   accounts,
		Chain:      desc,
		ChainIDHex: desc.ID.Hex(),
		Clients:    clients,
	}
	if len(accounts) > 0 {
		s.Active = accounts[0]
	}
	return s
}

// Release lets a switched-away client set close once this request is done
func (s *Session) Release() {
	if s != nil {
		s.Clients.Release()
	}
}

// Addresses returns the checksummed account list
func (s *Session) Addresses() []string {
	out := make([]string, 0, len(s.Accounts))
	for _, a := range s.Accounts {
		out = append(out, a.Hex())
	}
	return out
}
