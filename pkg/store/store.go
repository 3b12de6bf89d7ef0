// Package store abstracts where datasets live: an S3 bucket or the local
// filesystem, selected by the shape of the data location URI.
package store

import (
	"fmt"
	"strings"
)

// Store is a flat byte-blob store keyed by path-like strings.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

// Resolve maps a data location to a Store and the key (or key prefix) inside
// it. "s3://bucket/prefix" resolves to an S3 store; anything else is treated
// as a local filesystem path.
func Resolve(location string) (Store, string, error) {
	if strings.HasPrefix(location, "s3://") {
		bucket, key, _ := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
		if bucket == "" {
			return nil, "", fmt.Errorf("store: no bucket in %q", location)
		}
		return NewS3(bucket), key, nil
	}
	return FS{}, location, nil
}

// Join builds a key under a prefix, preserving the store's path separator.
func Join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimSuffix(prefix, "/") + "/" + name
}
