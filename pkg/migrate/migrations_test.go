package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/multierr"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	if err := ValidateSource(DefaultDir); err != nil {
		t.Fatalf("ValidateSource: %v", err)
	}

	src, err := Source(DefaultDir)
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	names, err := fs.Glob(src, "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 embedded migrations, got %d", len(names))
	}
}

func TestMigrationsCreateMirrorTables(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	var all strings.Builder
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err != nil {
			t.Fatalf("read %s: %v", m, err)
		}
		all.Write(data)
	}
	content := all.String()

	checks := []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CREATE TABLE IF NOT EXISTS prices",
		"CREATE TABLE IF NOT EXISTS subscriptions",
		"CREATE TABLE IF NOT EXISTS posts",
		"cancel_at_period_end boolean",
		"CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id",
		"CREATE INDEX IF NOT EXISTS idx_posts_user_id_created_at",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestScaffoldWritesValidMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 7, 4, 12, 30, 0, 0, time.UTC)

	path, err := Scaffold(dir, "Add Robot Devices!", now)
	if err != nil {
		t.Fatalf("Scaffold: %v", err)
	}
	if filepath.Base(path) != "20250704123000_add_robot_devices.sql" {
		t.Fatalf("unexpected filename %q", path)
	}
	if err := ValidateSource(dir); err != nil {
		t.Fatalf("scaffolded migration should validate: %v", err)
	}

	if _, err := Scaffold(dir, "add robot devices", now); err == nil {
		t.Fatal("expected existing file to be left alone")
	}
	if _, err := Scaffold(dir, "!!!", now); err == nil {
		t.Fatal("expected empty slug to fail")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	fsys := fstest.MapFS{
		"001_bad.sql":                  {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n")},
		"20250101000000_one.sql":       {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n")},
		"20250101000000_two.sql":       {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n")},
		"20250102000000_no_down.sql":   {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		"20250103000000_empty_up.sql":  {Data: []byte("-- +goose Up\n\n-- +goose Down\nSELECT 1;\n")},
		"20251399000000_bad_month.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\n")},
		"README.md":                    {Data: []byte("ignored")},
	}

	err := Validate(fsys)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	problems := multierr.Errors(err)
	if len(problems) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(problems), err)
	}
	for _, want := range []string{"001_bad.sql", "already used", "missing -- +goose Down", "Up section is empty", "not a timestamp"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestSourceResolvesDir(t *testing.T) {
	if _, err := Source(""); err == nil {
		t.Fatal("expected empty dir to fail")
	}
	dir := t.TempDir()
	if _, err := Scaffold(dir, "seed", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Scaffold: %v", err)
	}
	src, err := Source(dir)
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	names, err := fs.Glob(src, "*.sql")
	if err != nil || len(names) != 1 {
		t.Fatalf("expected the scaffolded file on disk, got %v (%v)", names, err)
	}
}

func TestRunnerRequiresDB(t *testing.T) {
	if _, err := NewRunner(nil, DefaultDir, nil); err == nil {
		t.Fatal("expected nil db to fail")
	}
}
