package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUp(t *testing.T) {
	files := fstest.MapFS{
		"migrations/001_create_site.up.sql": {Data: []byte("CREATE TABLE site (name TEXT);")},
		"migrations/002_add_zone.up.sql":    {Data: []byte("ALTER TABLE site ADD COLUMN zone TEXT;")},
		"migrations/002_add_zone.down.sql":  {Data: []byte("-- ignored")},
		"migrations/README":                 {Data: []byte("not a migration")},
	}
	db := openDB(t)
	m := NewMigrator(db, files, "migrations", "")

	all, err := m.Migrations()
	if err != nil {
		t.Fatalf("Migrations: %v", err)
	}
	if len(all) != 2 || all[0].Version != 1 || all[1].Name != "add zone" {
		t.Fatalf("unexpected migrations %+v", all)
	}

	n, err := m.MigrateUp()
	if err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	if n != 2 {
		t.Errorf("applied %d migrations, expected 2", n)
	}
	if v, _ := m.CurrentVersion(); v != 2 {
		t.Errorf("CurrentVersion = %d, expected 2", v)
	}
	if _, err := db.Exec("INSERT INTO site (name, zone) VALUES ('JCMT', 'Pacific/Honolulu')"); err != nil {
		t.Errorf("schema not applied: %v", err)
	}

	n, err = m.MigrateUp()
	if err != nil || n != 0 {
		t.Errorf("second MigrateUp = %d, %v; expected no work", n, err)
	}
}

func TestMigrateFailureRollsBack(t *testing.T) {
	files := fstest.MapFS{
		"001_ok.up.sql":     {Data: []byte("CREATE TABLE a (x INTEGER);")},
		"002_broken.up.sql": {Data: []byte("CREATE TABLE nonsense (")},
	}
	m := NewMigrator(openDB(t), files, ".", "versions")

	n, err := m.MigrateUp()
	if err == nil {
		t.Fatal("expected error from broken migration")
	}
	if n != 1 {
		t.Errorf("applied %d before failure, expected 1", n)
	}
	if v, _ := m.CurrentVersion(); v != 1 {
		t.Errorf("CurrentVersion = %d, expected 1", v)
	}
}

func TestDuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"001_a.up.sql": {Data: []byte("SELECT 1;")},
		"01_b.up.sql":  {Data: []byte("SELECT 1;")},
	}
	if _, err := NewMigrator(openDB(t), files, ".", "").Migrations(); err == nil {
		t.Error("expected duplicate version error")
	}
}
