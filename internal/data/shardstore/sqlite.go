// Package shardstore persists shards to a local SQLite database, the
// concrete backend behind ports.ShardStore. The specification treats
// shard storage and its serialization format as external collaborators
// it deliberately leaves unspecified; this package is the reference
// implementation this repo plugs in, grounded on the teacher's
// versioned-schema SQLite pattern (PRAGMA user_version, prepared
// statements, a single writer connection).
package shardstore

import (
	"bytes"
	"database/sql"
	"encoding/gob"
	"fmt"
	"sync"

	cerrors "codeindex/internal/core/errors"
	"codeindex/internal/core/index"
	"codeindex/internal/shared/observability"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// Store is a SQLite-backed ports.ShardStore, keyed by AbsolutePath.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the shard database at path and runs
// any pending schema migration.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.CodeInternal, "open shard database")
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY
	// under our own locking instead of relying on busy_timeout races.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return cerrors.Wrap(err, cerrors.CodeInternal, "read schema version")
	}
	if version >= schemaVersion {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shards (
			path TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (unixepoch())
		)`,
		fmt.Sprintf("PRAGMA user_version = %d", schemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return cerrors.Wrap(err, cerrors.CodeInternal, "apply schema migration")
		}
	}
	return nil
}

// LoadShard returns the most recently stored shard for path, or
// (nil, nil) if none exists.
func (s *Store) LoadShard(path index.AbsolutePath) (*index.ShardOnDisk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	err := s.db.QueryRow("SELECT payload FROM shards WHERE path = ?", string(path)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		observability.ShardStoreErrorsTotal.WithLabelValues("load").Inc()
		return nil, cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeInternal, "load shard"), cerrors.CtxPath, string(path))
	}

	var shard index.ShardOnDisk
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&shard); err != nil {
		return nil, cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeInternal, "decode shard"), cerrors.CtxPath, string(path))
	}
	return &shard, nil
}

// StoreShard persists shard as the current version for path,
// overwriting whatever was stored before.
func (s *Store) StoreShard(path index.AbsolutePath, shard index.ShardOnDisk) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(shard); err != nil {
		return cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeStoreWrite, "encode shard"), cerrors.CtxPath, string(path))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO shards (path, payload, updated_at) VALUES (?, ?, unixepoch())
		 ON CONFLICT(path) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(path), buf.Bytes(),
	)
	if err != nil {
		observability.ShardStoreErrorsTotal.WithLabelValues("store").Inc()
		return cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeStoreWrite, "store shard"), cerrors.CtxPath, string(path))
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
