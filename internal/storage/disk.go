package storage

import (
	"os"
	"path/filepath"
)

// DatabaseFiles returns the SQLite database file and its WAL sidecars.
func DatabaseFiles(dbPath string) []string {
	return []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
}

// DiskUsageBytes returns the on-disk size of a storage path. A directory (badger)
// is summed recursively; a file (sqlite) is counted with its WAL sidecars.
// Missing files contribute 0.
func DiskUsageBytes(path string) (int64, error) {
	if path == "" {
		return 0, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return dirSize(path)
	}
	var total int64
	for _, p := range DatabaseFiles(path) {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
		}
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
