// Package testutil opens throwaway Postgres schemas for database-backed
// tests. Tests skip when TEST_POSTGRES_DSN is unset.
package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"arcade-seats/internal/config"
	"arcade-seats/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var testSchemaNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// OpenTestStore returns a store bound to a fresh schema with the init
// migration applied. The schema is dropped when the test ends.
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil || cfg.TestPostgresDSN == "" {
		t.Skip("skip test db: TEST_POSTGRES_DSN not set")
	}
	dsn := cfg.TestPostgresDSN
	schema := fmt.Sprintf("seats_test_%d", time.Now().UnixNano())
	if err := execOnBase(dsn, "CREATE SCHEMA %s", schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	st, err := store.New(withSearchPath(dsn, schema))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
		_ = execOnBase(dsn, "DROP SCHEMA %s CASCADE", schema)
	})
	if err := applySchema(st); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return st
}

// SeedRoom creates one room with n tables at positions 1..n.
func SeedRoom(t *testing.T, st *store.Store, game string, capacity, n int) (string, []string) {
	t.Helper()
	ctx := context.Background()
	roomID, err := st.CreateRoom(ctx, game, game+"-1", capacity)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	tables := make([]string, 0, n)
	for pos := 1; pos <= n; pos++ {
		id, err := st.CreateTable(ctx, roomID, pos)
		if err != nil {
			t.Fatalf("create table: %v", err)
		}
		tables = append(tables, id)
	}
	return roomID, tables
}

func execOnBase(dsn, format, schema string) error {
	ddl, err := schemaDDL(format, schema)
	if err != nil {
		return err
	}
	base, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return err
	}
	defer base.Close()
	_, err = base.Exec(context.Background(), ddl)
	return err
}

func applySchema(st *store.Store) error {
	path, err := findInitMigrationPath()
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = st.Pool.Exec(context.Background(), string(b))
	return err
}

func findInitMigrationPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		p := filepath.Join(dir, "migrations", "000001_init.up.sql")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("000001_init.up.sql not found from %s", dir)
}

func withSearchPath(dsn, schema string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "search_path=" + url.QueryEscape(schema)
}

func schemaDDL(format, schema string) (string, error) {
	if !testSchemaNamePattern.MatchString(schema) {
		return "", fmt.Errorf("schema %q does not match required pattern", schema)
	}
	return fmt.Sprintf(format, pgx.Identifier{schema}.Sanitize()), nil
}
