package io

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore is a Store held in an SQLite database.
type SQLStore struct {
	DB *sql.DB
}

var _ Store = (*SQLStore)(nil)

// OpenSQLStore opens (or creates) an SQLite database file and ensures the
// file table exists.
func OpenSQLStore(dbPath string) (store *SQLStore, err error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		err = fmt.Errorf("failed to open database: %w", err)
		return
	}

	if err = db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to connect to database: %w", err)
		return
	}

	store, err = NewSQLStore(db)
	if err != nil {
		db.Close()
	}
	return
}

// NewSQLStore wraps an existing database connection.
func NewSQLStore(db *sql.DB) (store *SQLStore, err error) {
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS virtual_files (
		path TEXT PRIMARY KEY,
		content BLOB,
		mod_time INTEGER NOT NULL
	)`)
	if err != nil {
		err = fmt.Errorf("failed to create table: %w", err)
		return
	}

	store = &SQLStore{DB: db}
	return
}

// Close closes the database.
func (ss *SQLStore) Close() error {
	return ss.DB.Close()
}

// Open reads a file's content.
func (ss *SQLStore) Open(name string) (file io.ReadCloser, err error) {
	p, err := Path(name)
	if err != nil {
		return
	}

	var content []byte
	err = ss.DB.QueryRow(`SELECT content FROM virtual_files WHERE path = ?`, p).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound(name)
		return
	}
	if err != nil {
		return
	}

	file = io.NopCloser(bytes.NewReader(content))
	return
}

// sqlFile buffers writes until Close.
type sqlFile struct {
	bytes.Buffer
	store  *SQLStore
	path   string
	closed bool
}

// Close stores the buffered content.
func (sf *sqlFile) Close() (err error) {
	if sf.closed {
		return
	}
	sf.closed = true

	_, err = sf.store.DB.Exec(`INSERT INTO virtual_files (path, content, mod_time) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content = excluded.content, mod_time = excluded.mod_time`,
		sf.path, sf.Bytes(), time.Now().Unix())
	return
}

// Create returns a writer; the content is committed on Close.
func (ss *SQLStore) Create(name string) (file io.WriteCloser, err error) {
	p, err := Path(name)
	if err != nil {
		return
	}

	file = &sqlFile{store: ss, path: p}
	return
}

// List returns the names of all files, sorted.
func (ss *SQLStore) List() (names []string, err error) {
	rows, err := ss.DB.Query(`SELECT path FROM virtual_files ORDER BY path`)
	if err != nil {
		return
	}
	defer rows.Close()

	for rows.Next() {
		var p string
		err = rows.Scan(&p)
		if err != nil {
			return
		}
		names = append(names, strings.TrimPrefix(p, "/"))
	}

	err = rows.Err()
	return
}
