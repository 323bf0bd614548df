package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/models"
)

func newTestBadger(t *testing.T, dir string) *BadgerStorage {
	t.Helper()
	store, err := NewBadgerStorage(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStorage_CreateGet(t *testing.T) {
	store := newTestBadger(t, "")
	ctx := context.Background()

	item := &models.Item{ID: "a", Ordinal: 0, Label: "first", Vector: []float64{1.5, -2}}
	if err := store.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetItem(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Label != "first" || len(got.Vector) != 2 || got.Vector[1] != -2 {
		t.Errorf("got %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should round trip")
	}
	if _, err := store.GetItem(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBadgerStorage_Duplicates(t *testing.T) {
	store := newTestBadger(t, "")
	ctx := context.Background()
	if err := store.CreateItem(ctx, &models.Item{ID: "a", Ordinal: 0, Vector: []float64{1}}); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateItem(ctx, &models.Item{ID: "a", Ordinal: 1, Vector: []float64{1}}); err == nil {
		t.Error("expected error for duplicate id")
	}
	if err := store.CreateItem(ctx, &models.Item{ID: "b", Ordinal: 0, Vector: []float64{1}}); err == nil {
		t.Error("expected error for duplicate ordinal")
	}
	if err := store.CreateItem(ctx, &models.Item{ID: "c", Ordinal: -1, Vector: []float64{1}}); err == nil {
		t.Error("expected error for negative ordinal")
	}
	n, err := store.CountItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("CountItems = %d, want 1", n)
	}
}

func TestBadgerStorage_ListItemsInOrdinalOrder(t *testing.T) {
	store := newTestBadger(t, "")
	ctx := context.Background()
	// 256 sorts before 3 as a string; big-endian keys keep numeric order.
	for _, item := range []*models.Item{
		{ID: "x", Ordinal: 256, Vector: []float64{3}},
		{ID: "y", Ordinal: 3, Vector: []float64{1}},
		{ID: "z", Ordinal: 17, Vector: []float64{2}},
	} {
		if err := store.CreateItem(ctx, item); err != nil {
			t.Fatal(err)
		}
	}
	var ordinals []int
	err := store.ListItems(ctx, func(item *models.Item) error {
		ordinals = append(ordinals, item.Ordinal)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ordinals) != 3 || ordinals[0] != 3 || ordinals[1] != 17 || ordinals[2] != 256 {
		t.Errorf("ListItems order: got %v", ordinals)
	}
}

func TestBadgerStorage_Reopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	store, err := NewBadgerStorage(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateItem(ctx, &models.Item{ID: "p", Ordinal: 0, Vector: []float64{0.5}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := newTestBadger(t, dir)
	n, err := reopened.CountItems(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || reopened.Path() != dir {
		t.Errorf("after reopen: count=%d path=%s", n, reopened.Path())
	}
	if usage, err := DiskUsageBytes(dir); err != nil || usage == 0 {
		t.Errorf("badger directory usage = %d, %v", usage, err)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(BackendSQLite, filepath.Join(dir, "v.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*SQLiteStorage); !ok {
		t.Errorf("sqlite backend returned %T", s)
	}
	_ = s.Close()

	s, err = Open(BackendBadger, filepath.Join(dir, "badger"), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*BadgerStorage); !ok {
		t.Errorf("badger backend returned %T", s)
	}
	_ = s.Close()

	if _, err := Open("leveldb", dir, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}
