package storage

import (
	"fmt"

	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Open opens the storage backend at path. For sqlite path is the database file;
// for badger it is the data directory.
func Open(backend, path string, logger *zap.Logger) (Storage, error) {
	switch backend {
	case BackendSQLite, "":
		s, err := NewSQLiteStorage(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendBadger:
		s, err := NewBadgerStorage(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, badger)", backend)
	}
}
