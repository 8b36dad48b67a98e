package wallet

import (
	"context"
	"fmt"
	"sync"

	log "github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/storage"
)

// WalletManager ties the vault, the ledger and the keyring together and
// exposes the wallet lifecycle operations.
type WalletManager struct {
	vault   *Vault
	ledger  *Ledger
	keyring *Keyring

	// lifecycle serializes create and restore from the existence check
	// through the last write
	lifecycle sync.Mutex
	// unlocking lets one request decrypt while the others wait for its cache
	unlocking sync.Mutex
}

func NewWalletManager(store storage.Store, opts ...VaultOption) *WalletManager {
	vault := NewVault(store, opts...)
	return &WalletManager{
		vault:   vault,
		ledger:  NewLedger(store),
		keyring: NewKeyring(vault),
	}
}

func (m *WalletManager) Vault() *Vault     { return m.vault }
func (m *WalletManager) Ledger() *Ledger   { return m.ledger }
func (m *WalletManager) Keyring() *Keyring { return m.keyring }

// Status summarizes the stored wallet without needing the password
type Status struct {
	Created      bool   `json:"created"`
	Name         string `json:"name"`
	AccountCount uint32 `json:"accountCount"`
	Unlocked     bool   `json:"unlocked"`
}

func (m *WalletManager) Status(ctx context.Context) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := m.ledger.read()
	if err != nil {
		return nil, err
	}
	return &Status{
		Created:      rec.CurrentIndex > 0,
		Name:         rec.WalletName,
		AccountCount: rec.CurrentIndex,
		Unlocked:     m.keyring.IsUnlocked(),
	}, nil
}

// CreateWallet generates a mnemonic, stores it encrypted and derives the
// first account. The mnemonic is returned once for the user to back up.
func (m *WalletManager) CreateWallet(ctx context.Context, name, password string) (string, *Account, error) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.ensureNoWallet(ctx); err != nil {
		return "", nil, err
	}

	mnemonic, err := m.vault.Generate()
	if err != nil {
		return "", nil, err
	}
	accounts, err := m.install(ctx, mnemonic, name, password, 1)
	if err != nil {
		return "", nil, err
	}

	log.Info("wallet created: ", name, " ", accounts[0].Hex())
	return mnemonic, accounts[0], nil
}

// RestoreWallet imports an existing mnemonic and derives count accounts.
// count must lie within 1 and the configured restore limit.
func (m *WalletManager) RestoreWallet(ctx context.Context, mnemonic, name, password string, count uint32) ([]*Account, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}
	if limit := m.vault.restoreLimit; limit > 0 && count > limit {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", ErrRestoreLimit, count, limit)
	}
	normalized, err := NormalizeMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.ensureNoWallet(ctx); err != nil {
		return nil, err
	}

	accounts, err := m.install(ctx, normalized, name, password, count)
	if err != nil {
		return nil, err
	}

	log.Info("wallet restored: ", name, " accounts=", len(accounts))
	return accounts, nil
}

func (m *WalletManager) ensureNoWallet(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	exists, err := m.vault.Exists()
	if err != nil {
		return err
	}
	created, err := m.ledger.IsWalletCreated()
	if err != nil {
		return err
	}
	if exists || created {
		return ErrWalletExists
	}
	return nil
}

// install derives every account before touching the store, then writes the
// vault and the ledger. A ledger failure blanks the vault again so the
// same call can be retried.
func (m *WalletManager) install(ctx context.Context, mnemonic, name, password string, count uint32) ([]*Account, error) {
	accounts, err := DeriveRange(mnemonic, count)
	if err != nil {
		return nil, err
	}
	cipherText, err := m.vault.Encrypt(mnemonic, password)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := m.vault.Save(cipherText); err != nil {
		return nil, err
	}
	if err := m.ledger.initialize(name, count); err != nil {
		if cerr := m.vault.clear(); cerr != nil {
			log.Error("failed to roll back wallet data: ", cerr)
		}
		return nil, err
	}

	m.keyring.set(password)
	m.keyring.remember(password, accounts)
	return accounts, nil
}

// CreateAccount derives the next account and moves the ledger forward
func (m *WalletManager) CreateAccount(ctx context.Context, password string) (*Account, error) {
	mnemonic, err := m.mnemonic(ctx, password)
	if err != nil {
		return nil, err
	}
	acc, err := m.advance(mnemonic)
	if err != nil {
		return nil, err
	}
	m.keyring.extend(acc)

	log.Info("account created: index=", acc.Index, " ", acc.Hex())
	return acc, nil
}

func (m *WalletManager) advance(mnemonic string) (*Account, error) {
	var acc *Account
	_, err := m.ledger.Advance(func(index uint32) error {
		var derr error
		acc, derr = Derive(mnemonic, index)
		return derr
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Accounts re-derives every account created so far. An absent wallet
// yields an empty list.
func (m *WalletManager) Accounts(ctx context.Context, password string) ([]*Account, string, error) {
	rec, err := m.ledger.read()
	if err != nil {
		return nil, "", err
	}
	if rec.CurrentIndex == 0 {
		return []*Account{}, rec.WalletName, nil
	}

	mnemonic, err := m.mnemonic(ctx, password)
	if err != nil {
		return nil, "", err
	}
	accounts, err := DeriveRange(mnemonic, rec.CurrentIndex)
	if err != nil {
		return nil, "", err
	}
	return accounts, rec.WalletName, nil
}

// UnlockedAccounts uses the keyring password. Accounts derived since the
// last unlock are served from the keyring, so only the first call after an
// unlock pays for decryption.
func (m *WalletManager) UnlockedAccounts(ctx context.Context) ([]*Account, error) {
	count, err := m.ledger.CurrentIndex()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []*Account{}, nil
	}
	if accounts, ok := m.keyring.cached(count); ok {
		return accounts, nil
	}

	m.unlocking.Lock()
	defer m.unlocking.Unlock()

	if accounts, ok := m.keyring.cached(count); ok {
		return accounts, nil
	}
	password, ok := m.keyring.Password()
	if !ok {
		return nil, ErrWalletLocked
	}
	accounts, _, err := m.Accounts(ctx, password)
	if err != nil {
		return nil, err
	}
	m.keyring.remember(password, accounts)
	return accounts, nil
}

func (m *WalletManager) ExportMnemonic(ctx context.Context, password string) (string, error) {
	return m.mnemonic(ctx, password)
}

func (m *WalletManager) Rename(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.ledger.SetWalletName(name)
}

func (m *WalletManager) mnemonic(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cipherText, ok, err := m.vault.Load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrWalletNotFound
	}
	mnemonic, err := m.vault.Decrypt(cipherText, password)
	if err != nil {
		return "", fmt.Errorf("failed to open wallet: %w", err)
	}
	return mnemonic, nil
}
