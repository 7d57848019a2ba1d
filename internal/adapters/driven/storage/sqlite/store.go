// Package sqlite provides a SQLite-backed implementation of the storage
// ports. Rows and signal outputs are stored as JSON; vectors as packed
// little-endian float32 blobs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/TaoKevinKK/lilac/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/TaoKevinKK/lilac/internal/core/domain"
	"github.com/TaoKevinKK/lilac/internal/core/ports/driven"
)

// Ensure Store implements the storage interfaces.
var (
	_ driven.RowStore    = (*Store)(nil)
	_ driven.VectorStore = (*Store)(nil)
)

const schemaMetaKey = "schema"

// Store is a SQLite-backed row and vector store. Values round-trip
// through JSON, so numbers read back as float64.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.lilac/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lilac", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "dataset.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		script, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(script)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
	}
	return nil
}

// IngestRows stores row Items in order, assigning UUIDs to rows lacking
// the reserved row-id key, and persists the schema (inferred from the
// first row when none is given).
func (s *Store) IngestRows(ctx context.Context, rows []domain.Item, schema *domain.Schema) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ingest: %w", err)
	}
	defer tx.Rollback()

	var inferred *domain.Schema
	for _, row := range rows {
		item := domain.CopyItem(row)
		m, ok := item.(map[string]any)
		if !ok {
			return fmt.Errorf("row is %T, not a mapping: %w", row, domain.ErrInvalidInput)
		}
		if _, has := m[domain.RowIDKey]; !has {
			m[domain.RowIDKey] = uuid.NewString()
		}
		if inferred == nil {
			sch := domain.InferSchema(item)
			inferred = &sch
		}
		encoded, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
		rowID, _ := m[domain.RowIDKey].(string)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rows (row_id, item) VALUES (?, ?)`, rowID, string(encoded)); err != nil {
			return fmt.Errorf("inserting row %q: %w", rowID, err)
		}
	}

	if schema == nil {
		schema = inferred
	}
	if schema != nil {
		encoded, err := json.Marshal(schema)
		if err != nil {
			return fmt.Errorf("encoding schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			schemaMetaKey, string(encoded)); err != nil {
			return fmt.Errorf("persisting schema: %w", err)
		}
	}
	return tx.Commit()
}

// Schema returns the persisted schema, or an empty schema when none was
// ingested yet.
func (s *Store) Schema() domain.Schema {
	var encoded string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, schemaMetaKey).Scan(&encoded)
	if err != nil {
		return domain.Schema{Fields: map[string]domain.Field{}}
	}
	var schema domain.Schema
	if err := json.Unmarshal([]byte(encoded), &schema); err != nil {
		return domain.Schema{Fields: map[string]domain.Field{}}
	}
	return schema
}

// Scan streams rows in ingestion order.
func (s *Store) Scan(ctx context.Context) (driven.RowCursor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT item FROM rows ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	return &rowCursor{rows: rows}, nil
}

// SignalOutput fetches one row's materialized output tree.
func (s *Store) SignalOutput(ctx context.Context, rowID, signalName string, path domain.Path) (domain.Item, bool, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT output FROM signal_outputs WHERE signal = ? AND path = ? AND row_id = ?`,
		signalName, path.String(), rowID).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying output of %q: %w", signalName, err)
	}
	var tree domain.Item
	if err := json.Unmarshal([]byte(encoded), &tree); err != nil {
		return nil, false, fmt.Errorf("decoding output of %q: %w", signalName, err)
	}
	return tree, true, nil
}

// PutSignalOutput persists one row's output tree.
func (s *Store) PutSignalOutput(ctx context.Context, rowID, signalName string, path domain.Path, output domain.Item) error {
	encoded, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("encoding output of %q: %w", signalName, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO signal_outputs (signal, path, row_id, output) VALUES (?, ?, ?, ?)
		 ON CONFLICT (signal, path, row_id) DO UPDATE SET output = excluded.output`,
		signalName, path.String(), rowID, string(encoded))
	if err != nil {
		return fmt.Errorf("persisting output of %q: %w", signalName, err)
	}
	return nil
}

// HasSignal reports whether any output is materialized for the signal at
// the path.
func (s *Store) HasSignal(signalName string, path domain.Path) bool {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM signal_outputs WHERE signal = ? AND path = ?`,
		signalName, path.String()).Scan(&n)
	return err == nil && n > 0
}

// Signals enumerates materialized signal outputs.
func (s *Store) Signals() []driven.SignalRef {
	rows, err := s.db.Query(`SELECT DISTINCT signal, path FROM signal_outputs ORDER BY signal, path`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var refs []driven.SignalRef
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return refs
		}
		refs = append(refs, driven.SignalRef{Name: name, Path: domain.ParsePath(path)})
	}
	return refs
}

// Get retrieves one vector per key, same order and length as keys.
func (s *Store) Get(ctx context.Context, signalName string, keys []domain.VectorKey) ([][]float32, error) {
	out := make([][]float32, len(keys))
	for i, key := range keys {
		var blob []byte
		err := s.db.QueryRowContext(ctx,
			`SELECT vector FROM vectors WHERE signal = ? AND row_id = ? AND path = ?`,
			signalName, key.RowID, key.Path.String()).Scan(&blob)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("vector %s for signal %q: %w", key.String(), signalName, domain.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("querying vector %s: %w", key.String(), err)
		}
		out[i] = decodeVector(blob)
	}
	return out, nil
}

// Has reports whether the signal has any vector stored under a concrete
// path the (possibly wildcarded) path addresses.
func (s *Store) Has(signalName string, path domain.Path) bool {
	rows, err := s.db.Query(`SELECT DISTINCT path FROM vectors WHERE signal = ?`, signalName)
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var concrete string
		if err := rows.Scan(&concrete); err != nil {
			return false
		}
		if path.Matches(domain.ParsePath(concrete)) {
			return true
		}
	}
	return false
}

// Put stores one vector.
func (s *Store) Put(ctx context.Context, signalName string, key domain.VectorKey, vector []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO vectors (signal, row_id, path, vector) VALUES (?, ?, ?, ?)
		 ON CONFLICT (signal, row_id, path) DO UPDATE SET vector = excluded.vector`,
		signalName, key.RowID, key.Path.String(), encodeVector(vector))
	if err != nil {
		return fmt.Errorf("persisting vector %s: %w", key.String(), err)
	}
	return nil
}

// encodeVector packs a vector as little-endian float32 bytes.
func encodeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// decodeVector unpacks little-endian float32 bytes.
func decodeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector
}

// rowCursor adapts sql.Rows to the RowCursor port, decoding each row's
// JSON item on demand.
type rowCursor struct {
	rows    *sql.Rows
	current domain.Item
	err     error
}

func (c *rowCursor) Next() bool {
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	var encoded string
	if err := c.rows.Scan(&encoded); err != nil {
		c.err = fmt.Errorf("scanning row: %w", err)
		return false
	}
	var item domain.Item
	if err := json.Unmarshal([]byte(encoded), &item); err != nil {
		c.err = fmt.Errorf("decoding row: %w", err)
		return false
	}
	c.current = item
	return true
}

func (c *rowCursor) Row() domain.Item { return c.current }

func (c *rowCursor) Err() error { return c.err }

func (c *rowCursor) Close() error { return c.rows.Close() }
