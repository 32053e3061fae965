package snapshotstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestStore(t *testing.T, keep int) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"), keep)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func versions(t *testing.T, s *SQLite, sessionID string) []int64 {
	t.Helper()
	rows, err := s.conn.Query(`SELECT version FROM snapshots WHERE session_id = ? ORDER BY version DESC`, sessionID)
	if err != nil {
		t.Fatalf("query versions: %v", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, v)
	}
	return out
}

func TestSQLiteSaveAndLatest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)

	if _, err := s.Latest(ctx, "sess_a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest on empty store: err = %v, want ErrNotFound", err)
	}

	first, err := s.Save(ctx, "sess_a", []byte(`{"elements":[]}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := s.Save(ctx, "sess_a", []byte(`{"elements":[],"paperKey":"vintage"}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.Version != 1 || second.Version != 2 {
		t.Errorf("versions = %d, %d; want 1, 2", first.Version, second.Version)
	}

	got, err := s.Latest(ctx, "sess_a")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("Latest mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 0)

	if _, err := s.Save(ctx, "sess_a", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	b, err := s.Save(ctx, "sess_b", []byte(`{"b":1}`))
	if err != nil {
		t.Fatal(err)
	}
	if b.Version != 1 {
		t.Errorf("first version of sess_b = %d, want 1", b.Version)
	}

	if err := s.Delete(ctx, "sess_a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Latest(ctx, "sess_a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("sess_a after delete: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Latest(ctx, "sess_b"); err != nil {
		t.Errorf("sess_b after deleting sess_a: %v", err)
	}
}

func TestSQLitePrunesOldVersions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, 3)

	for range 5 {
		if _, err := s.Save(ctx, "sess_a", []byte(`{}`)); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff([]int64{5, 4, 3}, versions(t, s, "sess_a")); diff != "" {
		t.Errorf("retained versions (-want +got):\n%s", diff)
	}
}

func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "snapshots.db")

	s, err := OpenSQLite(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, "sess_a", []byte(`{"elements":[]}`)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Latest(ctx, "sess_a")
	if err != nil {
		t.Fatalf("Latest after reopen: %v", err)
	}
	if string(got.Document) != `{"elements":[]}` {
		t.Errorf("document = %s", got.Document)
	}
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn        string
		wantDriver string
		wantTarget string
		wantErr    bool
	}{
		{dsn: "postgres://u:p@localhost/studio", wantDriver: "postgres", wantTarget: "postgres://u:p@localhost/studio"},
		{dsn: "postgresql://localhost/studio", wantDriver: "postgres", wantTarget: "postgresql://localhost/studio"},
		{dsn: "sqlite://./data/snapshots.db", wantDriver: "sqlite", wantTarget: "./data/snapshots.db"},
		{dsn: "file:/tmp/s.db", wantDriver: "sqlite", wantTarget: "/tmp/s.db"},
		{dsn: "data/snapshots.db", wantDriver: "sqlite", wantTarget: "data/snapshots.db"},
		{dsn: "", wantErr: true},
		{dsn: "sqlite://", wantErr: true},
		{dsn: "mysql://localhost/studio", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, target, err := parseDSN(tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %s %s", driver, target)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDSN: %v", err)
			}
			if driver != tt.wantDriver || target != tt.wantTarget {
				t.Errorf("got (%s, %s), want (%s, %s)", driver, target, tt.wantDriver, tt.wantTarget)
			}
		})
	}
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "s.db"), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLite); !ok {
		t.Errorf("Open returned %T, want *SQLite", s)
	}
}
