package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
)

type DB struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the wallet database under dir
func OpenLevelDB(dir string) (*DB, error) {
	dbPath := filepath.Join(dir, "wallet.leveldb")

	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", dbPath, err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Get(key string) ([]byte, error) {
	data, err := d.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, leveldb.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (d *DB) Put(key string, value []byte) error {
	if err := d.db.Put([]byte(key), value, nil); err != nil {
		if errors.Is(err, leveldb.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// Raw exposes the underlying handle for inspection tools
func (d *DB) Raw() *leveldb.DB {
	return d.db
}

func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
