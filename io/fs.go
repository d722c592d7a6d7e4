package io

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// CreateFS defines a file system interface that supports creating files and directories.
// It extends basic file system operations with write capabilities for saving
// programs and bytecode images.
type CreateFS interface {
	// Sub returns a filesystem for a subdirectory.
	Sub(name string) (sub CreateFS, err error)
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
	// Mkdir creates a new directory with the specified permissions.
	Mkdir(name string, filemode fs.FileMode) (err error)
}

// OsDir is a CreateFS rooted at a host directory.
type OsDir string

var _ CreateFS = OsDir("")

// Sub returns the CreateFS of an existing subdirectory.
func (dir OsDir) Sub(name string) (sub CreateFS, err error) {
	full := filepath.Join(string(dir), filepath.FromSlash(name))
	info, err := os.Stat(full)
	if err != nil {
		return
	}
	if !info.IsDir() {
		err = &fs.PathError{Op: "sub", Path: name, Err: fs.ErrInvalid}
		return
	}
	sub = OsDir(full)
	return
}

// Create creates or truncates a file.
func (dir OsDir) Create(name string) (file io.WriteCloser, err error) {
	return os.Create(filepath.Join(string(dir), filepath.FromSlash(name)))
}

// Mkdir creates a directory.
func (dir OsDir) Mkdir(name string, filemode fs.FileMode) (err error) {
	return os.Mkdir(filepath.Join(string(dir), filepath.FromSlash(name)), filemode)
}

// DirStore is a Store backed by a read-only fs.FS, and an optional
// CreateFS for writes.
type DirStore struct {
	FS     fs.FS
	Writer CreateFS
}

var _ Store = (*DirStore)(nil)

// NewDirStore creates a store over a host directory.
func NewDirStore(dir string) *DirStore {
	return &DirStore{
		FS:     os.DirFS(dir),
		Writer: OsDir(dir),
	}
}

// fsName converts a store path into an fs.FS name.
func fsName(name string) (fsname string, err error) {
	p, err := Path(name)
	if err != nil {
		return
	}
	fsname = strings.TrimPrefix(p, "/")
	return
}

// Open opens a file for reading.
func (ds *DirStore) Open(name string) (file io.ReadCloser, err error) {
	fsname, err := fsName(name)
	if err != nil {
		return
	}

	file, err = ds.FS.Open(fsname)
	if errors.Is(err, fs.ErrNotExist) {
		err = ErrNotFound(name)
	}
	return
}

// Create opens a file for writing, creating parent directories as needed.
func (ds *DirStore) Create(name string) (file io.WriteCloser, err error) {
	fsname, err := fsName(name)
	if err != nil {
		return
	}

	if ds.Writer == nil {
		err = &fs.PathError{Op: "create", Path: name, Err: fs.ErrPermission}
		return
	}

	dir := ds.Writer
	parts := strings.Split(fsname, "/")
	for _, part := range parts[:len(parts)-1] {
		var sub CreateFS
		sub, err = dir.Sub(part)
		if errors.Is(err, fs.ErrNotExist) {
			err = dir.Mkdir(part, 0755)
			if err != nil {
				return
			}
			sub, err = dir.Sub(part)
		}
		if err != nil {
			return
		}
		dir = sub
	}

	return dir.Create(parts[len(parts)-1])
}

// List returns the names of all regular files, sorted.
func (ds *DirStore) List() (names []string, err error) {
	err = fs.WalkDir(ds.FS, ".", func(p string, d fs.DirEntry, err_in error) (err error) {
		if err_in != nil {
			return err_in
		}
		if d.Type().IsRegular() {
			names = append(names, p)
		}
		return
	})
	slices.Sort(names)
	return
}

// Path maps a program name onto the storage path convention: the name
// prefixed with a path separator, cleaned so it cannot escape the root.
func Path(name string) (p string, err error) {
	name = strings.TrimSpace(name)
	p = path.Clean("/" + name)
	if p == "/" {
		p = ""
		err = ErrNameInvalid
	}
	return
}
