package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestListMigrations_sortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_indexes.up.sql", "001_accounts.up.sql", "README.md", "010_later.up.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_not_a_file.sql"), 0o700); err != nil {
		t.Fatal(err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("listMigrations: %v", err)
	}
	want := []string{"001_accounts.up.sql", "002_indexes.up.sql", "010_later.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestListMigrations_missingDir(t *testing.T) {
	if _, err := listMigrations(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected an error for a missing migrations dir")
	}
}

func TestMigrationVersion(t *testing.T) {
	ver, err := migrationVersion("001_accounts.up.sql")
	if err != nil {
		t.Fatalf("migrationVersion: %v", err)
	}
	if ver != 1 {
		t.Errorf("expected version 1, got %d", ver)
	}

	if _, err := migrationVersion("accounts.up.sql"); err == nil {
		t.Error("expected an error for a filename without a numeric prefix")
	}
}
