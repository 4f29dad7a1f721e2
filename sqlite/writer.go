package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-octiles/octree"
	"github.com/eak1mov/go-octiles/store"
)

var (
	ErrInvalidNodeID = errors.New("octiles: invalid node id")
	ErrLevelMismatch = errors.New("octiles: node level mismatch")
)

// Writer implements store.Writer for SQLite node stores.
//
// All payloads are inserted in a single transaction committed by Finalize.
type Writer struct {
	db     *sql.DB
	tx     *sql.Tx
	stmt   *sql.Stmt
	logger *slog.Logger
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new database at filePath and prepares it for writing
// payloads.
func NewWriter(filePath string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	var err error
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE nodes (
			level INTEGER,
			node_id INTEGER,
			node_data BLOB
		);
	`)
	if err != nil {
		return nil, err
	}

	for k, v := range config.Metadata {
		_, err = db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	stmt, err := tx.Prepare("INSERT INTO nodes (level, node_id, node_data) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	return &Writer{db, tx, stmt, config.Logger}, nil
}

func (w *Writer) Close() error {
	if w.tx == nil {
		return w.db.Close()
	}
	return errors.Join(w.stmt.Close(), w.tx.Rollback(), w.db.Close())
}

func (w *Writer) WritePayload(id octree.ID, data []byte) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidNodeID, id)
	}
	_, err := w.stmt.Exec(id.Level(), int64(id), data)
	return err
}

func (w *Writer) Finalize() error {
	if w.tx == nil {
		panic("octiles: finalize called twice")
	}

	w.logger.Debug("octiles: commit")
	err := errors.Join(w.stmt.Close(), w.tx.Commit())
	w.tx = nil
	if err != nil {
		return err
	}

	w.logger.Debug("octiles: creating index")
	_, err = w.db.Exec("CREATE UNIQUE INDEX node_index ON nodes (node_id)")

	w.logger.Debug("octiles: done!")
	return err
}

var _ store.Writer = (*Writer)(nil)
