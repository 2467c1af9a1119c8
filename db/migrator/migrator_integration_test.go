//go:build integration

package migrator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/freshmart/orderflow/db/migrator"
	"github.com/freshmart/orderflow/internal/testutil"
)

func TestMigrator_ApplyAll(t *testing.T) {
	ctx := context.Background()

	dsn, cleanup := testutil.StartPostgres(t)
	defer cleanup()
	pool := testutil.ConnectPool(t, dsn)
	defer pool.Close()

	m := migrator.New(pool, "../migrations", nil)
	if err := m.ApplyAll(ctx); err != nil {
		t.Fatalf("ApplyAll() failed: %v", err)
	}

	for _, table := range []string{"migrations", "customers", "products", "orders", "order_items"} {
		var exists bool
		err := pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			t.Fatalf("check table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s was not created", table)
		}
	}

	applied, err := m.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied() failed: %v", err)
	}
	if len(applied) < 2 {
		t.Errorf("applied migrations = %v, want at least 2", applied)
	}

	// Re-running is a no-op.
	if err := m.ApplyAll(ctx); err != nil {
		t.Fatalf("second ApplyAll() failed: %v", err)
	}
}

func TestMigrator_DetectsModifiedMigration(t *testing.T) {
	ctx := context.Background()

	dsn, cleanup := testutil.StartPostgres(t)
	defer cleanup()
	pool := testutil.ConnectPool(t, dsn)
	defer pool.Close()

	// Copy the real migrations into a scratch dir we can tamper with.
	dir := t.TempDir()
	entries, err := os.ReadDir("../migrations")
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("../migrations", e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", e.Name(), err)
		}
	}

	m := migrator.New(pool, dir, nil)
	if err := m.ApplyAll(ctx); err != nil {
		t.Fatalf("ApplyAll() failed: %v", err)
	}

	tampered := filepath.Join(dir, "001_initial_schema.sql")
	if err := os.WriteFile(tampered, []byte("-- tampered\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatalf("tamper migration: %v", err)
	}

	if err := m.ApplyAll(ctx); err == nil {
		t.Fatal("expected checksum verification failure, got nil")
	}
}
