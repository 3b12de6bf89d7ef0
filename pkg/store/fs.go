package store

import (
	"os"
	"path/filepath"
)

// FS is the local-filesystem Store; keys are plain paths. Put creates parent
// directories as needed.
type FS struct{}

func (FS) Get(key string) ([]byte, error) {
	return os.ReadFile(key)
}

func (FS) Put(key string, data []byte) error {
	if dir := filepath.Dir(key); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(key, data, 0o644)
}
