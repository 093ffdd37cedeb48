package bigquery

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestMigrations_Embedded(t *testing.T) {
	migrations, err := Migrations("my-project", "finance")
	if err != nil {
		t.Fatalf("Migrations() error = %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}

	first := migrations[0]
	if first.Version != 1 || first.Name != "create_prompt_logs" {
		t.Errorf("first migration = %d %s", first.Version, first.Name)
	}
	if !strings.Contains(first.SQL, "`my-project.finance.prompt_logs`") {
		t.Errorf("placeholders not replaced:\n%s", first.SQL)
	}
	if strings.Contains(first.SQL, "{{") {
		t.Error("leftover placeholder")
	}
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version <= migrations[i-1].Version {
			t.Errorf("migrations not sorted: %d after %d", migrations[i].Version, migrations[i-1].Version)
		}
	}

	if _, err := Migrations("bad project", "finance"); err == nil {
		t.Error("expected error for invalid project id")
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_second.sql":  {Data: []byte("SELECT 2")},
		"m/0001_first.sql":   {Data: []byte("SELECT `{{PROJECT_ID}}.{{DATASET_ID}}`")},
		"m/001_invalid.sql":  {Data: []byte("x")},
		"m/0003_missing_ext": {Data: []byte("x")},
		"m/README.md":        {Data: []byte("x")},
	}

	got, err := readMigrations(fsys, "m", "p", "d")
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d migrations, want 2", len(got))
	}
	if got[0].Name != "first" || got[0].SQL != "SELECT `p.d`" {
		t.Errorf("first = %+v", got[0])
	}

	other, _ := readMigrations(fsys, "m", "q", "e")
	if other[0].Checksum != got[0].Checksum {
		t.Error("checksum should not depend on project and dataset")
	}

	dup := fstest.MapFS{
		"m/0001_a.sql": {Data: []byte("a")},
		"m/0001_b.sql": {Data: []byte("b")},
	}
	if _, err := readMigrations(dup, "m", "p", "d"); err == nil {
		t.Error("expected error for duplicate versions")
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2"},
	}

	pending, err := pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "c1"}})
	if err != nil {
		t.Fatalf("pendingMigrations() error = %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Errorf("pending = %+v", pending)
	}

	if _, err := pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "changed"}}); err == nil {
		t.Error("expected error for modified migration")
	}
}
