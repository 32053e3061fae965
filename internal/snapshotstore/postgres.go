package snapshotstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deylin/studio/internal/typeid"
)

// Postgres stores snapshots in a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
	keep int
}

func OpenPostgres(ctx context.Context, dsn string, keep int) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &Postgres{pool: pool, keep: max(keep, 1)}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			version BIGINT NOT NULL,
			document JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (session_id, version)
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_session ON snapshots(session_id, version DESC);
	`)
	return err
}

func (p *Postgres) Save(ctx context.Context, sessionID string, doc []byte) (Snapshot, error) {
	snap := Snapshot{
		ID:        typeid.NewSnapshotID(),
		SessionID: sessionID,
		Document:  doc,
		CreatedAt: time.Now().UTC(),
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		// Serialize writers per session so versions stay dense.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
			return fmt.Errorf("lock session: %w", err)
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO snapshots (id, session_id, version, document, created_at)
			SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4
			FROM snapshots WHERE session_id = $2
			RETURNING version`,
			snap.ID, sessionID, doc, snap.CreatedAt,
		).Scan(&snap.Version)
		if err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}

		_, err = tx.Exec(ctx,
			`DELETE FROM snapshots WHERE session_id = $1 AND version <= $2`,
			sessionID, snap.Version-int64(p.keep),
		)
		if err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (p *Postgres) Latest(ctx context.Context, sessionID string) (Snapshot, error) {
	snap := Snapshot{SessionID: sessionID}
	err := p.pool.QueryRow(ctx, `
		SELECT id, version, document, created_at FROM snapshots
		WHERE session_id = $1 ORDER BY version DESC LIMIT 1`, sessionID,
	).Scan(&snap.ID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

func (p *Postgres) Delete(ctx context.Context, sessionID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM snapshots WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
