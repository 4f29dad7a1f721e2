// Package sqlite stores node payloads in a SQLite database with two tables:
// nodes (level, node_id, node_data) and metadata (name, value).
//
// Note: User must register the sqlite3 driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
)

// Reader implements store.Reader and store.Visitor for SQLite node stores.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader opens the database at filePath read-only.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT node_data FROM nodes WHERE node_id = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

func (r *Reader) ReadPayload(id octree.ID) ([]byte, error) {
	var data []byte
	if err := r.stmt.QueryRow(int64(id)).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make([]byte, 0), nil
		}
		return nil, err
	}
	if data == nil {
		return make([]byte, 0), nil
	}
	return data, nil
}

// VisitPayloads visits nodes in id order, which is also level order.
func (r *Reader) VisitPayloads(visitor func(octree.ID, []byte) error) error {
	rows, err := r.db.Query("SELECT level, node_id, node_data FROM nodes ORDER BY node_id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var level int
		var id int64
		var data []byte

		if err := rows.Scan(&level, &id, &data); err != nil {
			return err
		}
		if nodeID := octree.ID(id); nodeID.Level() != level {
			return fmt.Errorf("%w: node %d stored at level %d", ErrLevelMismatch, id, level)
		}

		if err := visitor(octree.ID(id), data); err != nil {
			return err
		}
	}

	return rows.Err()
}

var (
	_ store.Reader  = (*Reader)(nil)
	_ store.Visitor = (*Reader)(nil)
)
