package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/julienmp/visualfeat/pkg/util"
)

// FileName is the keyed container created in the output directory
const FileName = "visual_features.db"

// FeatureStore maps clip names to fixed-shape feature vectors
type FeatureStore interface {
	Put(ctx context.Context, name string, vec []float32, shape []int) error
	Close() error
}

// Store is a single-file keyed feature container backed by SQLite
type Store struct {
	db   *sql.DB
	path string
}

// Create opens a fresh container at path, discarding any previous run's file
func Create(path string) (*Store, error) {
	// The container is rebuilt from scratch on every run
	util.CleanupFiles(path, path+"-wal", path+"-shm", path+"-journal")
	return open(path)
}

// Open connects to an existing container for reading
func Open(path string) (*Store, error) {
	if !util.FileExists(path) {
		return nil, fmt.Errorf("feature container not found: %s", path)
	}
	return open(path)
}

func open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open feature container: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS features (
        name TEXT PRIMARY KEY,
        dims TEXT NOT NULL,
        data BLOB NOT NULL
    )`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create features table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the container file location
func (s *Store) Path() string {
	return s.path
}

// Put stores a vector under the given clip name; an existing entry with the
// same name is replaced
func (s *Store) Put(ctx context.Context, name string, vec []float32, shape []int) error {
	dims, err := json.Marshal(shape)
	if err != nil {
		return fmt.Errorf("encode dims: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO features (name, dims, data) VALUES (?, ?, ?)`,
		name, string(dims), encodeVector(vec))
	if err != nil {
		return fmt.Errorf("store features for %s: %w", name, err)
	}
	return nil
}

// Get retrieves the vector and shape stored under name
func (s *Store) Get(ctx context.Context, name string) ([]float32, []int, error) {
	var dims string
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT dims, data FROM features WHERE name = ?`, name).Scan(&dims, &blob)
	if err != nil {
		return nil, nil, fmt.Errorf("load features for %s: %w", name, err)
	}

	var shape []int
	if err := json.Unmarshal([]byte(dims), &shape); err != nil {
		return nil, nil, fmt.Errorf("decode dims for %s: %w", name, err)
	}
	return decodeVector(blob), shape, nil
}

// Names lists all stored clip names
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM features ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of stored entries
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM features`).Scan(&n)
	return n, err
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Vectors are stored as little-endian float32 blobs
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec
}
