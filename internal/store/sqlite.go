// Package store provides SQLite-backed persistence for uiforge documents.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"uiforge/cas"
	"uiforge/element"
	"uiforge/history"
)

//go:embed schema.sql
var schemaSQL string

//go:embed pragmas.sql
var pragmasSQL string

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrObjectNotFound   = errors.New("object not found")
)

// DB wraps a SQLite connection for document storage.
type DB struct {
	conn *sql.DB
	path string
}

// DocumentInfo describes a stored document.
type DocumentInfo struct {
	Name      string    `json:"name"`
	Head      []byte    `json:"head"`
	Cursor    int       `json:"cursor"`
	Revision  uint64    `json:"revision"`
	Entries   int       `json:"entries"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Open opens or creates a database at the given path.
func Open(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// Pragmas are per connection.
	conn.SetMaxOpenConns(1)

	for _, pragma := range strings.Split(pragmasSQL, "\n") {
		pragma = strings.TrimSpace(pragma)
		if pragma == "" || strings.HasPrefix(pragma, "--") {
			continue
		}
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// SaveSnapshot stores f as the head of the named document, creating the
// document if needed. The stored history becomes the single entry f. It
// returns the digest of the stored forest.
func (db *DB) SaveSnapshot(ctx context.Context, name string, f element.Forest, revision uint64) ([]byte, error) {
	entries := []history.Snapshot{{Forest: f, CreatedAt: time.Now()}}
	if err := db.SaveHistory(ctx, name, entries, 0, revision); err != nil {
		return nil, err
	}
	return cas.ForestDigest(f)
}

// LoadSnapshot returns the head forest of the named document.
func (db *DB) LoadSnapshot(ctx context.Context, name string) (element.Forest, error) {
	var head []byte
	err := db.conn.QueryRowContext(ctx, `SELECT head FROM documents WHERE name = ?`, name).Scan(&head)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return db.getObject(ctx, head)
}

// SaveHistory replaces the stored undo log of the named document and sets
// its head to the entry at cursor. Entries are written in one transaction.
func (db *DB) SaveHistory(ctx context.Context, name string, entries []history.Snapshot, cursor int, revision uint64) error {
	if len(entries) == 0 {
		return errors.New("saving history: no entries")
	}
	if cursor < 0 || cursor >= len(entries) {
		return fmt.Errorf("saving history: cursor %d out of range [0,%d)", cursor, len(entries))
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	digests := make([][]byte, len(entries))
	for i, s := range entries {
		d, err := putObject(ctx, tx, s.Forest)
		if err != nil {
			return err
		}
		digests[i] = d
	}

	now := time.Now().UnixMilli()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (name, head, cursor, revision, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET head = excluded.head, cursor = excluded.cursor,
		   revision = excluded.revision, updated_at = excluded.updated_at`,
		name, digests[cursor], cursor, int64(revision), now,
	)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE document = ?`, name); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	for i, s := range entries {
		created := s.CreatedAt.UnixMilli()
		if s.CreatedAt.IsZero() {
			created = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO history (document, seq, digest, created_at) VALUES (?, ?, ?, ?)`,
			name, i, digests[i], created,
		)
		if err != nil {
			return fmt.Errorf("inserting history entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history: %w", err)
	}
	return nil
}

// LoadHistory returns the stored undo log of the named document and its
// cursor. A document saved only through SaveSnapshot yields its head as a
// single entry.
func (db *DB) LoadHistory(ctx context.Context, name string) ([]history.Snapshot, int, error) {
	info, err := db.document(ctx, name)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT digest, created_at FROM history WHERE document = ? ORDER BY seq`, name)
	if err != nil {
		return nil, 0, fmt.Errorf("querying history: %w", err)
	}
	type row struct {
		digest  []byte
		created int64
	}
	var list []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.digest, &r.created); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scanning history: %w", err)
		}
		list = append(list, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading history: %w", err)
	}

	if len(list) == 0 {
		f, err := db.getObject(ctx, info.Head)
		if err != nil {
			return nil, 0, err
		}
		return []history.Snapshot{{Forest: f, CreatedAt: info.UpdatedAt}}, 0, nil
	}

	cache := make(map[string]element.Forest)
	entries := make([]history.Snapshot, len(list))
	for i, r := range list {
		f, ok := cache[string(r.digest)]
		if !ok {
			f, err = db.getObject(ctx, r.digest)
			if err != nil {
				return nil, 0, err
			}
			cache[string(r.digest)] = f
		}
		entries[i] = history.Snapshot{Forest: element.Clone(f), CreatedAt: time.UnixMilli(r.created)}
	}

	cursor := info.Cursor
	if cursor >= len(entries) {
		cursor = len(entries) - 1
	}
	return entries, cursor, nil
}

func (db *DB) document(ctx context.Context, name string) (*DocumentInfo, error) {
	info := &DocumentInfo{Name: name}
	var revision, updated int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT d.head, d.cursor, d.revision, d.updated_at,
		        (SELECT COUNT(*) FROM history h WHERE h.document = d.name)
		 FROM documents d WHERE d.name = ?`, name,
	).Scan(&info.Head, &info.Cursor, &revision, &updated, &info.Entries)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	info.Revision = uint64(revision)
	info.UpdatedAt = time.UnixMilli(updated)
	return info, nil
}

// GetDocument returns metadata for one document.
func (db *DB) GetDocument(ctx context.Context, name string) (*DocumentInfo, error) {
	return db.document(ctx, name)
}

// ListDocuments returns every stored document ordered by name.
func (db *DB) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT d.name, d.head, d.cursor, d.revision, d.updated_at,
		        (SELECT COUNT(*) FROM history h WHERE h.document = d.name)
		 FROM documents d ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var info DocumentInfo
		var revision, updated int64
		if err := rows.Scan(&info.Name, &info.Head, &info.Cursor, &revision, &updated, &info.Entries); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		info.Revision = uint64(revision)
		info.UpdatedAt = time.UnixMilli(updated)
		docs = append(docs, info)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document with its history and drops snapshot
// objects no other document references.
func (db *DB) DeleteDocument(ctx context.Context, name string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE document = ?`, name); err != nil {
		return fmt.Errorf("deleting history: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM objects
		 WHERE digest NOT IN (SELECT head FROM documents)
		   AND digest NOT IN (SELECT digest FROM history)`)
	if err != nil {
		return fmt.Errorf("collecting objects: %w", err)
	}
	return tx.Commit()
}

// ObjectCount returns the number of stored snapshot objects.
func (db *DB) ObjectCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting objects: %w", err)
	}
	return n, nil
}
