package snapshotstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deylin/studio/internal/typeid"
)

// SQLite stores snapshots in a local database file.
type SQLite struct {
	conn *sql.DB
	keep int
}

// OpenSQLite opens (or creates) the database at path. ":memory:" gives a
// throwaway store.
func OpenSQLite(path string, keep int) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn, keep: max(keep, 1)}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			document BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (session_id, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session_id, version DESC)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) Save(ctx context.Context, sessionID string, doc []byte) (Snapshot, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM snapshots WHERE session_id = ?`, sessionID,
	).Scan(&current)
	if err != nil {
		return Snapshot{}, fmt.Errorf("current version: %w", err)
	}

	snap := Snapshot{
		ID:        typeid.NewSnapshotID(),
		SessionID: sessionID,
		Version:   current + 1,
		Document:  doc,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, session_id, version, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.SessionID, snap.Version, snap.Document, snap.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM snapshots WHERE session_id = ? AND version <= ?`,
		sessionID, snap.Version-int64(s.keep),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prune snapshots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}
	return snap, nil
}

func (s *SQLite) Latest(ctx context.Context, sessionID string) (Snapshot, error) {
	snap := Snapshot{SessionID: sessionID}
	var created int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, version, document, created_at FROM snapshots
		 WHERE session_id = ? ORDER BY version DESC LIMIT 1`, sessionID,
	).Scan(&snap.ID, &snap.Version, &snap.Document, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get latest snapshot: %w", err)
	}
	snap.CreatedAt = time.UnixMilli(created).UTC()
	return snap, nil
}

func (s *SQLite) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM snapshots WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
