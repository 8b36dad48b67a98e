package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/storage"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "test test test test test test test test test test test junk"

var testAddresses = []string{
	"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
}

var lightScrypt = ScryptParams{N: config.LightScryptN, R: 8, P: config.LightScryptP}

func newTestManager(t *testing.T) (*WalletManager, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewWalletManager(store, WithScrypt(lightScrypt)), store
}

// failingStore errors on every call
type failingStore struct{}

var errDisk = errors.New("disk on fire")

func (failingStore) Get(string) ([]byte, error) { return nil, errDisk }
func (failingStore) Put(string, []byte) error   { return errDisk }
func (failingStore) Close() error               { return nil }

// countingStore counts reads per key and fails the next failPuts writes
// to a key
type countingStore struct {
	*storage.MemoryStore

	mu       sync.Mutex
	reads    map[string]int
	failPuts map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{
		MemoryStore: storage.NewMemoryStore(),
		reads:       make(map[string]int),
		failPuts:    make(map[string]int),
	}
}

func (s *countingStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	s.reads[key]++
	s.mu.Unlock()
	return s.MemoryStore.Get(key)
}

func (s *countingStore) Put(key string, value []byte) error {
	s.mu.Lock()
	if s.failPuts[key] > 0 {
		s.failPuts[key]--
		s.mu.Unlock()
		return errDisk
	}
	s.mu.Unlock()
	return s.MemoryStore.Put(key, value)
}

func (s *countingStore) readCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[key]
}

func TestDeriveKnownVector(t *testing.T) {
	for i, want := range testAddresses {
		acc, err := Derive(testMnemonic, uint32(i))
		require.NoError(t, err)
		assert.Equal(t, want, acc.Hex())
		assert.Equal(t, uint32(i), acc.Index)
		assert.NotNil(t, acc.PrivateKey())
	}

	acc, err := Derive(testMnemonic, 0)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/60'/0'/0/0", acc.Path)
}

func TestDeriveIsDeterministic(t *testing.T) {
	mnemonic, err := NewMnemonic(DefaultEntropyBits)
	require.NoError(t, err)

	a, err := Derive(mnemonic, 7)
	require.NoError(t, err)
	b, err := Derive(mnemonic, 7)
	require.NoError(t, err)
	assert.Equal(t, a.Address, b.Address)

	c, err := Derive(mnemonic, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, c.Address)
}

func TestDeriveRangeMatchesDerive(t *testing.T) {
	accounts, err := DeriveRange(testMnemonic, 3)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	for i, acc := range accounts {
		assert.Equal(t, testAddresses[i], acc.Hex())
	}

	empty, err := DeriveRange(testMnemonic, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeriveRejectsBadInput(t *testing.T) {
	_, err := Derive("not a real mnemonic at all", 0)
	require.ErrorIs(t, err, ErrInvalidMnemonic)
	require.ErrorIs(t, err, prt.ErrValidation)

	_, err = Derive("", 0)
	require.ErrorIs(t, err, ErrEmptyMnemonic)

	_, err = Derive(testMnemonic, MaxAccountIndex+1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDeriveNormalizesWhitespace(t *testing.T) {
	acc, err := Derive("  TEST test\ttest test test test test test test test test   junk ", 0)
	require.NoError(t, err)
	assert.Equal(t, testAddresses[0], acc.Hex())
}

func TestDerivationPath(t *testing.T) {
	p, err := ParseDerivationPath("m/44'/60'/0'/0/5")
	require.NoError(t, err)
	assert.Equal(t, AccountPath(5), p)
	assert.Equal(t, "m/44'/60'/0'/0/5", p.String())

	_, err = ParseDerivationPath("")
	require.ErrorIs(t, err, ErrNullDerivationPath)
	_, err = ParseDerivationPath("m/44'//0")
	require.ErrorIs(t, err, ErrMalformedDerivationPath)
	_, err = ParseDerivationPath("m/x")
	require.ErrorIs(t, err, ErrMalformedDerivationPath)
	_, err = ParseDerivationPath("m/2147483648'")
	require.ErrorIs(t, err, ErrMalformedDerivationPath)
}

func TestNewMnemonic(t *testing.T) {
	for bits, words := range map[int]int{128: 12, 160: 15, 192: 18, 224: 21, 256: 24} {
		m, err := NewMnemonic(bits)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(m), words)
		_, err = NormalizeMnemonic(m)
		require.NoError(t, err)
	}

	_, err := NewMnemonic(100)
	require.ErrorIs(t, err, ErrInvalidEntropy)
	_, err = NewMnemonic(288)
	require.ErrorIs(t, err, ErrInvalidEntropy)
}

func TestEncryptDecrypt(t *testing.T) {
	ct, err := Encrypt(EncryptOpts{PlainText: testMnemonic, Password: "pw", Scrypt: lightScrypt})
	require.NoError(t, err)
	assert.NotContains(t, ct, "test")

	plain, err := Decrypt(DecryptOpts{CipherText: ct, Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, plain)

	// fresh salt and iv each time
	ct2, err := Encrypt(EncryptOpts{PlainText: testMnemonic, Password: "pw", Scrypt: lightScrypt})
	require.NoError(t, err)
	assert.NotEqual(t, ct, ct2)
}

func TestEncryptEmptyPassword(t *testing.T) {
	ct, err := Encrypt(EncryptOpts{PlainText: testMnemonic, Scrypt: lightScrypt})
	require.NoError(t, err)

	plain, err := Decrypt(DecryptOpts{CipherText: ct})
	require.NoError(t, err)
	assert.Equal(t, testMnemonic, plain)
}

func TestDecryptWrongPassword(t *testing.T) {
	ct, err := Encrypt(EncryptOpts{PlainText: testMnemonic, Password: "right", Scrypt: lightScrypt})
	require.NoError(t, err)

	_, err = Decrypt(DecryptOpts{CipherText: ct, Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidPassword)
	require.ErrorIs(t, err, prt.ErrCrypto)
}

func TestDecryptMalformed(t *testing.T) {
	for _, ct := range []string{"", "%%%", "bm90IGpzb24=", "e30="} {
		_, err := Decrypt(DecryptOpts{CipherText: ct, Password: "pw"})
		require.ErrorIs(t, err, ErrInvalidCipherText, ct)
	}
}

func TestInspectEnvelope(t *testing.T) {
	ct, err := Encrypt(EncryptOpts{PlainText: testMnemonic, Password: "pw", Scrypt: lightScrypt})
	require.NoError(t, err)

	env, err := InspectEnvelope(ct)
	require.NoError(t, err)
	assert.Equal(t, "aes-128-ctr", env.Cipher)
	assert.Equal(t, "scrypt", env.KDF)
	assert.Equal(t, lightScrypt.N, env.KDFParams.N)
	assert.Len(t, env.MAC, 64)

	_, err = InspectEnvelope("e30=")
	require.ErrorIs(t, err, ErrInvalidCipherText)
}

func TestEncryptValidatesParams(t *testing.T) {
	_, err := Encrypt(EncryptOpts{PlainText: "", Password: "pw", Scrypt: lightScrypt})
	require.ErrorIs(t, err, ErrEmptyMnemonic)

	_, err = Encrypt(EncryptOpts{PlainText: testMnemonic, Scrypt: ScryptParams{N: 1000, R: 8, P: 1}})
	require.Error(t, err)
}

func TestVaultSaveLoad(t *testing.T) {
	store := storage.NewMemoryStore()
	v := NewVault(store, WithScrypt(lightScrypt))

	_, ok, err := v.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	ct, err := v.Encrypt(testMnemonic, "pw")
	require.NoError(t, err)
	require.NoError(t, v.Save(ct))

	loaded, ok, err := v.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ct, loaded)

	raw, err := store.Get(prt.KeyWalletData)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"encryptedMnemonic"`)
	assert.NotContains(t, string(raw), "junk")
}

func TestVaultPersistenceErrors(t *testing.T) {
	v := NewVault(failingStore{}, WithScrypt(lightScrypt))
	require.ErrorIs(t, v.Save("x"), prt.ErrPersistence)
	_, _, err := v.Load()
	require.ErrorIs(t, err, prt.ErrPersistence)
}

func TestVaultWalletConfig(t *testing.T) {
	v := NewVault(storage.NewMemoryStore(), WithWalletConfig(config.Wallet{
		EntropyBits: 256, ScryptN: config.LightScryptN, ScryptR: 8, ScryptP: config.LightScryptP,
	}))
	m, err := v.Generate()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m), 24)
	assert.Equal(t, lightScrypt, v.scrypt)
	assert.Equal(t, uint32(config.DefaultMaxRestoreAccounts), v.restoreLimit)

	v = NewVault(storage.NewMemoryStore(), WithWalletConfig(config.Wallet{MaxRestoreAccounts: 5}))
	assert.Equal(t, uint32(5), v.restoreLimit)
}

func TestEmptyRecordsReadAsAbsent(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(prt.KeyWalletData, []byte{}))
	require.NoError(t, store.Put(prt.KeyCurrentIndex, []byte{}))

	exists, err := NewVault(store).Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := NewLedger(store).IsWalletCreated()
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLedgerMonotonic(t *testing.T) {
	l := NewLedger(storage.NewMemoryStore())

	idx, err := l.CurrentIndex()
	require.NoError(t, err)
	assert.Zero(t, idx)
	created, err := l.IsWalletCreated()
	require.NoError(t, err)
	assert.False(t, created)

	require.ErrorIs(t, l.SetCurrentIndex(0), ErrNonSequentialIndex)
	require.ErrorIs(t, l.SetCurrentIndex(2), ErrNonSequentialIndex)
	require.NoError(t, l.SetCurrentIndex(1))
	require.ErrorIs(t, l.SetCurrentIndex(1), ErrNonSequentialIndex)

	created, err = l.IsWalletCreated()
	require.NoError(t, err)
	assert.True(t, created)
}

func TestLedgerNamePreservesIndex(t *testing.T) {
	l := NewLedger(storage.NewMemoryStore())
	require.NoError(t, l.SetCurrentIndex(1))
	require.NoError(t, l.SetWalletName("main"))

	idx, err := l.CurrentIndex()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)

	require.NoError(t, l.SetCurrentIndex(2))
	name, err := l.WalletName()
	require.NoError(t, err)
	assert.Equal(t, "main", name)
}

func TestLedgerAdvanceFailureKeepsIndex(t *testing.T) {
	l := NewLedger(storage.NewMemoryStore())
	boom := errors.New("boom")

	_, err := l.Advance(func(uint32) error { return boom })
	require.ErrorIs(t, err, boom)

	idx, err := l.CurrentIndex()
	require.NoError(t, err)
	assert.Zero(t, idx)
}

func TestLedgerAdvanceConcurrent(t *testing.T) {
	l := NewLedger(storage.NewMemoryStore())

	const n = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[uint32]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Advance(func(index uint32) error {
				mu.Lock()
				defer mu.Unlock()
				seen[index] = true
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	idx, err := l.CurrentIndex()
	require.NoError(t, err)
	assert.Equal(t, uint32(n), idx)
	assert.Len(t, seen, n)
}

func TestLedgerPersistenceError(t *testing.T) {
	l := NewLedger(failingStore{})
	_, err := l.CurrentIndex()
	require.ErrorIs(t, err, prt.ErrPersistence)
}

func TestCreateWalletFlow(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	idx, err := m.Ledger().CurrentIndex()
	require.NoError(t, err)
	assert.Zero(t, idx)

	mnemonic, first, err := m.CreateWallet(ctx, "main", "pw")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 12)
	assert.Equal(t, uint32(0), first.Index)
	assert.True(t, m.Keyring().IsUnlocked())

	idx, err = m.Ledger().CurrentIndex()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)

	accounts, name, err := m.Accounts(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, "main", name)
	require.Len(t, accounts, 1)
	assert.Equal(t, first.Address, accounts[0].Address)

	_, _, err = m.CreateWallet(ctx, "again", "pw")
	require.ErrorIs(t, err, ErrWalletExists)

	exported, err := m.ExportMnemonic(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, mnemonic, exported)

	_, err = m.ExportMnemonic(ctx, "nope")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestRestoreWalletRecoversAccounts(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	accounts, err := m.RestoreWallet(ctx, testMnemonic, "restored", "pw", 3)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	for i, acc := range accounts {
		assert.Equal(t, testAddresses[i], acc.Hex())
	}

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Status{Created: true, Name: "restored", AccountCount: 3, Unlocked: true}, status)

	next, err := m.CreateAccount(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), next.Index)
}

func TestRestoreWalletValidation(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	_, err := m.RestoreWallet(ctx, testMnemonic, "x", "pw", 0)
	require.ErrorIs(t, err, ErrInvalidCount)
	_, err = m.RestoreWallet(ctx, "abandon abandon", "x", "pw", 1)
	require.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestCreateWalletConcurrent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		mnemonics []string
		existing  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mnemonic, _, err := m.CreateWallet(ctx, "main", "pw")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, ErrWalletExists)
				existing++
				return
			}
			mnemonics = append(mnemonics, mnemonic)
		}()
	}
	wg.Wait()

	require.Len(t, mnemonics, 1)
	assert.Equal(t, n-1, existing)

	stored, err := m.ExportMnemonic(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, mnemonics[0], stored)

	idx, err := m.Ledger().CurrentIndex()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), idx)
}

func TestRestoreWalletLimit(t *testing.T) {
	ctx := context.Background()
	m := NewWalletManager(storage.NewMemoryStore(), WithScrypt(lightScrypt), WithRestoreLimit(3))

	_, err := m.RestoreWallet(ctx, testMnemonic, "x", "pw", 4)
	require.ErrorIs(t, err, ErrRestoreLimit)
	require.ErrorIs(t, err, prt.ErrValidation)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Created)

	accounts, err := m.RestoreWallet(ctx, testMnemonic, "x", "pw", 3)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
}

func TestRestoreWalletRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	store.failPuts[prt.KeyCurrentIndex] = 1
	m := NewWalletManager(store, WithScrypt(lightScrypt))

	_, err := m.RestoreWallet(ctx, testMnemonic, "restored", "pw", 3)
	require.ErrorIs(t, err, prt.ErrPersistence)

	exists, err := m.Vault().Exists()
	require.NoError(t, err)
	assert.False(t, exists)
	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Status{}, status)

	accounts, err := m.RestoreWallet(ctx, testMnemonic, "restored", "pw", 3)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	for i, acc := range accounts {
		assert.Equal(t, testAddresses[i], acc.Hex())
	}

	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Status{Created: true, Name: "restored", AccountCount: 3, Unlocked: true}, status)
}

func TestUnlockedAccountsSkipDecryptWhenCached(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	m := NewWalletManager(store, WithScrypt(lightScrypt))

	_, err := m.RestoreWallet(ctx, testMnemonic, "main", "pw", 2)
	require.NoError(t, err)
	base := store.readCount(prt.KeyWalletData)

	for i := 0; i < 3; i++ {
		accounts, err := m.UnlockedAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, testAddresses[1], accounts[1].Hex())
	}
	assert.Equal(t, base, store.readCount(prt.KeyWalletData))

	// a new account extends the cache
	_, err = m.CreateAccount(ctx, "pw")
	require.NoError(t, err)
	base = store.readCount(prt.KeyWalletData)
	accounts, err := m.UnlockedAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, testAddresses[2], accounts[2].Hex())
	assert.Equal(t, base, store.readCount(prt.KeyWalletData))

	// lock drops the cache, the next unlock decrypts once
	m.Keyring().Lock()
	_, err = m.UnlockedAccounts(ctx)
	require.ErrorIs(t, err, ErrWalletLocked)
	require.NoError(t, m.Keyring().Unlock(ctx, "pw"))
	base = store.readCount(prt.KeyWalletData)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accounts, err := m.UnlockedAccounts(ctx)
			assert.NoError(t, err)
			assert.Len(t, accounts, 3)
		}()
	}
	wg.Wait()
	assert.Equal(t, base+1, store.readCount(prt.KeyWalletData))
}

func TestAccountsWithoutWallet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	accounts, name, err := m.Accounts(ctx, "whatever")
	require.NoError(t, err)
	assert.Empty(t, accounts)
	assert.Empty(t, name)

	accounts, err = m.UnlockedAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	_, err = m.CreateAccount(ctx, "pw")
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestKeyring(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	require.ErrorIs(t, m.Keyring().Unlock(ctx, "pw"), ErrWalletNotFound)

	_, err := m.RestoreWallet(ctx, testMnemonic, "", "pw", 1)
	require.NoError(t, err)

	m.Keyring().Lock()
	_, err = m.UnlockedAccounts(ctx)
	require.ErrorIs(t, err, ErrWalletLocked)

	require.ErrorIs(t, m.Keyring().Unlock(ctx, "bad"), ErrInvalidPassword)
	assert.False(t, m.Keyring().IsUnlocked())

	require.NoError(t, m.Keyring().Unlock(ctx, "pw"))
	accounts, err := m.UnlockedAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, testAddresses[0], accounts[0].Hex())
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)
	_, err := m.RestoreWallet(ctx, testMnemonic, "old", "pw", 2)
	require.NoError(t, err)

	require.NoError(t, m.Rename(ctx, "new"))
	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", status.Name)
	assert.Equal(t, uint32(2), status.AccountCount)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m, _ := newTestManager(t)

	_, _, err := m.CreateWallet(ctx, "x", "pw")
	require.ErrorIs(t, err, context.Canceled)
}
