package storage

import (
	"errors"
	"fmt"

	log "github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/abcfe/abcfe-wallet/config"
)

var (
	// ErrNotFound is returned by Get when the key was never written.
	// It is a normal state, not a failure.
	ErrNotFound = errors.New("key not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// Store is the persistence adapter: opaque blobs under path-like keys.
// Put is last-write-wins.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Close() error
}

// InitDB opens the backend selected in the config
func InitDB(cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.DB.Backend {
	case "leveldb":
		s, err = OpenLevelDB(cfg.DB.Path)
	case "file":
		s, err = OpenFileStore(cfg.DB.Path)
	case "memory":
		s = NewMemoryStore()
	default:
		err = fmt.Errorf("unknown db backend %q", cfg.DB.Backend)
	}
	if err != nil {
		log.Error("Failed to open db: ", err)
		return nil, err
	}

	log.Info("Successfully opened db: ", cfg.DB.Backend, " ", cfg.DB.Path)
	return s, nil
}
