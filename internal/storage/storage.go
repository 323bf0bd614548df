// Package storage defines the persistence interface for indexed items.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/knn/internal/models"
)

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("item not found")

// Storage defines item persistence operations.
// The index itself keeps nothing on disk; items are replayed into it on startup.
type Storage interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	// ListItems calls fn for every item in ordinal order and stops at the first error.
	ListItems(ctx context.Context, fn func(*models.Item) error) error
	CountItems(ctx context.Context) (int64, error)
	Close() error
}
