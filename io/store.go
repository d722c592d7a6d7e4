package io

import (
	"errors"
	"io"
	"io/fs"
	"strings"
)

// Store is persistent program file storage.
type Store interface {
	// Open opens a named file for reading.
	// A missing file returns an error matching ErrNotFound and fs.ErrNotExist.
	Open(name string) (file io.ReadCloser, err error)
	// Create opens a named file for writing, replacing any prior content.
	Create(name string) (file io.WriteCloser, err error)
	// List returns all file names in the store.
	List() (names []string, err error)
}

// Is matches fs.ErrNotExist, so callers can test with errors.Is.
func (err ErrNotFound) Is(target error) bool {
	return target == fs.ErrNotExist
}

// ReadFile reads an entire named file from a store.
func ReadFile(store Store, name string) (data []byte, err error) {
	file, err := store.Open(name)
	if err != nil {
		return
	}
	defer file.Close()

	return io.ReadAll(file)
}

// WriteFile writes an entire named file to a store.
func WriteFile(store Store, name string, data []byte) (err error) {
	file, err := store.Create(name)
	if err != nil {
		return
	}

	_, err = file.Write(data)
	err = errors.Join(err, file.Close())

	return
}

// OpenStore opens a store by driver name: "dir" for a host directory, or
// "sqlite" for a database file.
func OpenStore(driver string, path string) (store Store, err error) {
	switch strings.ToLower(driver) {
	case "", "dir":
		store = NewDirStore(path)
	case "sqlite":
		store, err = OpenSQLStore(path)
	default:
		err = ErrDriver
	}
	return
}
