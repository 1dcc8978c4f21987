package db

import (
	"errors"
	"io"
)

// ErrNotFound key 不存在
var ErrNotFound = errors.New("db: key not found")

type Reader interface {
	// Has retrieves if a key is present in the key-value data store.
	Has(key string) (bool, error)

	// Get retrieves the given key if it's present in the key-value data store.
	// Returns ErrNotFound when it is absent.
	Get(key string) (string, error)

	// List returns every value whose key starts with prefix, keyed by the full key.
	List(prefix string) (map[string]string, error)
}

type Writer interface {
	// Put inserts the given value into the key-value data store.
	Put(key string, value string) error

	// Delete removes the key from the key-value data store.
	Delete(key string) error
}

type Database interface {
	Reader
	Writer
	io.Closer
}
