package wallet

import (
	"context"
	"sync"
)

// Keyring holds the wallet password in memory after a successful unlock,
// so request handlers can re-derive accounts without prompting. Derived
// accounts are kept alongside until the next lock.
type Keyring struct {
	vault *Vault

	mu       sync.RWMutex
	password string
	unlocked bool
	accounts []*Account
}

func NewKeyring(vault *Vault) *Keyring {
	return &Keyring{vault: vault}
}

// Unlock verifies the password against the stored mnemonic
func (k *Keyring) Unlock(ctx context.Context, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cipherText, ok, err := k.vault.Load()
	if err != nil {
		return err
	}
	if !ok {
		return ErrWalletNotFound
	}
	if _, err := k.vault.Decrypt(cipherText, password); err != nil {
		return err
	}

	k.set(password)
	return nil
}

func (k *Keyring) set(password string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.password = password
	k.unlocked = true
	k.accounts = nil
}

func (k *Keyring) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.password = ""
	k.unlocked = false
	k.accounts = nil
}

// Password returns the cached password, ok=false when locked
func (k *Keyring) Password() (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.password, k.unlocked
}

func (k *Keyring) IsUnlocked() bool {
	_, ok := k.Password()
	return ok
}

// cached returns the remembered accounts when exactly n of them are held
func (k *Keyring) cached(n uint32) ([]*Account, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if !k.unlocked || uint32(len(k.accounts)) != n {
		return nil, false
	}
	return append([]*Account(nil), k.accounts...), true
}

// remember stores accounts derived with password. A lock or a different
// unlock since the derivation discards them.
func (k *Keyring) remember(password string, accounts []*Account) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.unlocked || k.password != password {
		return
	}
	k.accounts = append([]*Account(nil), accounts...)
}

// extend appends a freshly derived account when it directly follows the
// remembered ones.
func (k *Keyring) extend(acc *Account) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.unlocked || k.accounts == nil || uint32(len(k.accounts)) != acc.Index {
		return
	}
	k.accounts = append(k.accounts, acc)
}
