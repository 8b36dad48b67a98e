package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/storage"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// Ledger owns the derivation counter. The index equals the number of
// accounts ever derived and only moves forward by one.
type Ledger struct {
	store storage.Store
	mu    sync.Mutex
}

func NewLedger(store storage.Store) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) read() (IndexRecord, error) {
	var rec IndexRecord
	raw, err := l.store.Get(prt.KeyCurrentIndex)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return rec, nil
		}
		return rec, fmt.Errorf("%w: failed to read index: %v", prt.ErrPersistence, err)
	}
	if len(raw) == 0 {
		return rec, nil
	}
	if err := utils.DeserializeData(raw, &rec, utils.SerializationFormatJSON); err != nil {
		return rec, fmt.Errorf("%w: corrupt index record: %v", prt.ErrPersistence, err)
	}
	return rec, nil
}

func (l *Ledger) write(rec IndexRecord) error {
	raw, err := utils.SerializeData(rec, utils.SerializationFormatJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", prt.ErrPersistence, err)
	}
	if err := l.store.Put(prt.KeyCurrentIndex, raw); err != nil {
		return fmt.Errorf("%w: failed to write index: %v", prt.ErrPersistence, err)
	}
	return nil
}

// CurrentIndex is 0 when nothing was ever written
func (l *Ledger) CurrentIndex() (uint32, error) {
	rec, err := l.read()
	return rec.CurrentIndex, err
}

// SetCurrentIndex accepts only current+1
func (l *Ledger) SetCurrentIndex(n uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setLocked(n)
}

func (l *Ledger) setLocked(n uint32) error {
	rec, err := l.read()
	if err != nil {
		return err
	}
	if n != rec.CurrentIndex+1 {
		return fmt.Errorf("%w: current %d, got %d", ErrNonSequentialIndex, rec.CurrentIndex, n)
	}
	if n > MaxAccountIndex+1 {
		return ErrIndexOutOfRange
	}
	rec.CurrentIndex = n
	return l.write(rec)
}

func (l *Ledger) WalletName() (string, error) {
	rec, err := l.read()
	return rec.WalletName, err
}

// SetWalletName leaves the index untouched
func (l *Ledger) SetWalletName(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.read()
	if err != nil {
		return err
	}
	rec.WalletName = name
	return l.write(rec)
}

// initialize writes the name and the first count accounts in one record.
// It only applies to a ledger that never derived anything.
func (l *Ledger) initialize(name string, count uint32) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.read()
	if err != nil {
		return err
	}
	if rec.CurrentIndex != 0 {
		return ErrWalletExists
	}
	if count == 0 || count-1 > MaxAccountIndex {
		return ErrIndexOutOfRange
	}
	return l.write(IndexRecord{CurrentIndex: count, WalletName: name})
}

func (l *Ledger) IsWalletCreated() (bool, error) {
	idx, err := l.CurrentIndex()
	if err != nil {
		return false, err
	}
	return idx > 0, nil
}

// Advance runs fn with the next free index and persists index+1 once fn
// succeeds. Concurrent callers are serialized. The new counter is returned.
func (l *Ledger) Advance(fn func(index uint32) error) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, err := l.read()
	if err != nil {
		return 0, err
	}
	if rec.CurrentIndex > MaxAccountIndex {
		return rec.CurrentIndex, ErrIndexOutOfRange
	}
	if err := fn(rec.CurrentIndex); err != nil {
		return rec.CurrentIndex, err
	}
	if err := l.setLocked(rec.CurrentIndex + 1); err != nil {
		return rec.CurrentIndex, err
	}
	return rec.CurrentIndex + 1, nil
}
