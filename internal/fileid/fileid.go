// Package fileid derives stable item IDs for dataset rows that carry none.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/hyperjump/knn/internal/models"
)

const prefix = "file:"

// FileKey returns a short stable key for the given path.
func FileKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return prefix + hex.EncodeToString(hash[:8])
}

// ItemID returns the ID for the row-th item (0-based) of the dataset at path.
func ItemID(path string, row int) string {
	return fmt.Sprintf("%s:%d", FileKey(path), row)
}

// AssignItemIDs fills empty IDs from the file path and row position,
// so ingesting the same file twice yields the same IDs.
func AssignItemIDs(path string, items []models.ItemInput) {
	key := FileKey(path)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = fmt.Sprintf("%s:%d", key, i)
		}
	}
}
