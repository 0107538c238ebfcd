package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func files(m map[string]string) fstest.MapFS {
	out := fstest.MapFS{}
	for name, body := range m {
		out[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return out
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantErr  string
		wantVers []int
	}{
		{
			name: "sorted by version",
			files: map[string]string{
				"010_late.sql":  "SELECT 1;",
				"002_mid.sql":   "SELECT 1;",
				"001_first.sql": "SELECT 1;",
				"README.md":     "ignored",
			},
			wantVers: []int{1, 2, 10},
		},
		{name: "missing underscore", files: map[string]string{"001.sql": ""}, wantErr: "invalid migration filename"},
		{name: "non numeric", files: map[string]string{"abc_x.sql": ""}, wantErr: "invalid version number"},
		{name: "zero version", files: map[string]string{"000_x.sql": ""}, wantErr: "at least 1"},
		{name: "duplicate", files: map[string]string{"001_a.sql": "", "1_b.sql": ""}, wantErr: "duplicate migration version 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewRunner(nil, files(tt.files)).Migrations()
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Migrations() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Migrations() error = %v", err)
			}
			if len(got) != len(tt.wantVers) {
				t.Fatalf("got %d migrations, want %d", len(got), len(tt.wantVers))
			}
			for i, v := range tt.wantVers {
				if got[i].Version != v {
					t.Errorf("migrations[%d].Version = %d, want %d", i, got[i].Version, v)
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	fsys := files(map[string]string{
		"001_init.sql": "CREATE TABLE a (id INTEGER PRIMARY KEY);",
		"002_more.sql": "ALTER TABLE a ADD COLUMN name TEXT;",
	})
	r := NewRunner(db, fsys)

	n, err := r.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if n != 2 {
		t.Errorf("applied %d, want 2", n)
	}
	if v, _ := r.CurrentVersion(ctx); v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
	if _, err := db.Exec("INSERT INTO a (name) VALUES ('x')"); err != nil {
		t.Errorf("schema not applied: %v", err)
	}

	n, err = r.Apply(ctx)
	if err != nil || n != 0 {
		t.Errorf("second Apply() = %d, %v; want 0, nil", n, err)
	}

	fsys["003_idx.sql"] = &fstest.MapFile{Data: []byte("CREATE INDEX a_name ON a(name);")}
	n, err = r.Apply(ctx)
	if err != nil || n != 1 {
		t.Errorf("incremental Apply() = %d, %v; want 1, nil", n, err)
	}
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	r := NewRunner(db, files(map[string]string{
		"001_ok.sql":  "CREATE TABLE a (id INTEGER);",
		"002_bad.sql": "CREATE TABLE b (id INTEGER); THIS IS NOT SQL;",
	}))

	n, err := r.Apply(ctx)
	if err == nil {
		t.Fatal("Apply() succeeded with a broken migration")
	}
	if n != 1 {
		t.Errorf("applied %d before failure, want 1", n)
	}
	if v, _ := r.CurrentVersion(ctx); v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
}

func TestApplyRejectsNewerDatabase(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	r := NewRunner(db, files(map[string]string{"001_init.sql": "SELECT 1;"}))
	if _, err := r.CurrentVersion(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (9)"); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Apply(ctx); err == nil || !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("Apply() error = %v, want newer-than-supported", err)
	}
}
