package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/models"
)

var (
	itemPrefix    = []byte("item/")
	ordinalPrefix = []byte("ord/")
)

// badgerRecord is the msgpack value stored under an item key.
type badgerRecord struct {
	ID        string    `msgpack:"id"`
	Ordinal   int       `msgpack:"ordinal"`
	Label     string    `msgpack:"label,omitempty"`
	Vector    []float64 `msgpack:"vector"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// BadgerStorage implements Storage on BadgerDB. Items live under item/<id>;
// ord/<big-endian ordinal> keys point back at IDs so iteration follows ordinal order.
type BadgerStorage struct {
	db  *badger.DB
	dir string
}

// NewBadgerStorage opens or creates a BadgerDB directory. An empty dir runs in memory.
func NewBadgerStorage(dir string, logger *zap.Logger) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.WithLogger(badgerLogger{logger.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &BadgerStorage{db: db, dir: dir}, nil
}

func itemKey(id string) []byte {
	return append(append([]byte(nil), itemPrefix...), id...)
}

func ordinalKey(ordinal int) []byte {
	k := make([]byte, len(ordinalPrefix)+8)
	copy(k, ordinalPrefix)
	binary.BigEndian.PutUint64(k[len(ordinalPrefix):], uint64(ordinal))
	return k
}

// CreateItem inserts an item. IDs and ordinals must be unique.
func (s *BadgerStorage) CreateItem(_ context.Context, item *models.Item) error {
	if item.Ordinal < 0 {
		return fmt.Errorf("item %s: negative ordinal %d", item.ID, item.Ordinal)
	}
	item.CreatedAt = time.Now()
	value, err := msgpack.Marshal(&badgerRecord{
		ID:        item.ID,
		Ordinal:   item.Ordinal,
		Label:     item.Label,
		Vector:    item.Vector,
		CreatedAt: item.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.ID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		ik, ordKey := itemKey(item.ID), ordinalKey(item.Ordinal)
		if _, err := txn.Get(ik); err == nil {
			return fmt.Errorf("failed to insert item %s: id already exists", item.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if _, err := txn.Get(ordKey); err == nil {
			return fmt.Errorf("failed to insert item %s: ordinal %d already exists", item.ID, item.Ordinal)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(ik, value); err != nil {
			return err
		}
		return txn.Set(ordKey, []byte(item.ID))
	})
}

// GetItem returns an item by ID.
func (s *BadgerStorage) GetItem(_ context.Context, id string) (*models.Item, error) {
	var item *models.Item
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		item, err = getItem(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, err
}

func getItem(txn *badger.Txn, id string) (*models.Item, error) {
	entry, err := txn.Get(itemKey(id))
	if err != nil {
		return nil, err
	}
	var rec badgerRecord
	err = entry.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}
	return &models.Item{
		ID:        rec.ID,
		Ordinal:   rec.Ordinal,
		Label:     rec.Label,
		Vector:    rec.Vector,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// ListItems streams all items in ordinal order.
func (s *BadgerStorage) ListItems(ctx context.Context, fn func(*models.Item) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = ordinalPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(ordinalPrefix); it.ValidForPrefix(ordinalPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			item, err := getItem(txn, string(id))
			if err != nil {
				return fmt.Errorf("item %s: %w", id, err)
			}
			if err := fn(item); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountItems returns the total number of items.
func (s *BadgerStorage) CountItems(_ context.Context) (int64, error) {
	var count int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = ordinalPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(ordinalPrefix); it.ValidForPrefix(ordinalPrefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Path returns the database directory.
func (s *BadgerStorage) Path() string {
	return s.dir
}

// Close closes the database.
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's log output through zap, dropping info and debug chatter.
type badgerLogger struct {
	l *zap.SugaredLogger
}

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Errorf("badger: "+f, v...) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warnf("badger: "+f, v...) }
func (badgerLogger) Infof(string, ...interface{})          {}
func (badgerLogger) Debugf(string, ...interface{})         {}
