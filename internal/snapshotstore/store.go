// Package snapshotstore persists serialized scenes, one version chain per
// editing session.
package snapshotstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("snapshot not found")

// DefaultKeep is how many versions are retained per session.
const DefaultKeep = 10

type Snapshot struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Version   int64     `json:"version"`
	Document  []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store saves and loads snapshots. Implementations are safe for concurrent
// use.
type Store interface {
	// Save appends doc as the next version for sessionID and prunes versions
	// beyond the retention limit.
	Save(ctx context.Context, sessionID string, doc []byte) (Snapshot, error)
	// Latest returns the newest version, or ErrNotFound.
	Latest(ctx context.Context, sessionID string) (Snapshot, error)
	// Delete drops every version of sessionID.
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// Open connects to the store named by dsn:
//
//	postgres://... or postgresql://...   PostgreSQL
//	sqlite://path, file:path or a bare path   SQLite file
//
// keep bounds retained versions per session; zero means DefaultKeep.
func Open(ctx context.Context, dsn string, keep int) (Store, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}
	driver, target, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	switch driver {
	case "postgres":
		return OpenPostgres(ctx, target, keep)
	default:
		return OpenSQLite(target, keep)
	}
}

func parseDSN(dsn string) (driver, target string, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", errors.New("empty snapshot dsn")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		target = strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "file:"):
		target = strings.TrimPrefix(dsn, "file:")
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("unsupported snapshot dsn scheme in %q", dsn)
	default:
		target = dsn
	}
	if target == "" {
		return "", "", fmt.Errorf("missing sqlite path in %q", dsn)
	}
	return "sqlite", target, nil
}
