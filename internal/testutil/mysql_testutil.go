package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/theLastOfCats/series-browser/internal/db"
)

// SetupMySQLTestDB initializes a MySQL-backed DB for integration tests.
// It skips tests when MYSQL_TEST_DSN is not set.
func SetupMySQLTestDB(t *testing.T) *db.DB {
	t.Helper()

	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set; skipping MySQL integration tests")
	}

	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("failed to init mysql test db: %v", err)
	}

	t.Cleanup(func() {
		_ = database.Close()
	})

	resetMySQLTables(t, database)
	return database
}

func resetMySQLTables(t *testing.T, database *db.DB) {
	t.Helper()

	stmts := []string{
		"SET FOREIGN_KEY_CHECKS=0",
		"TRUNCATE TABLE ratings",
		"TRUNCATE TABLE subtitles",
		"TRUNCATE TABLE episodes",
		"TRUNCATE TABLE series",
		"TRUNCATE TABLE users",
		"SET FOREIGN_KEY_CHECKS=1",
	}

	// FOREIGN_KEY_CHECKS is per session, so every statement runs on one connection
	conn, err := database.Conn(context.Background())
	if err != nil {
		t.Fatalf("mysql reset failed to get a connection: %v", err)
	}
	defer func() { _ = conn.Close() }()

	for _, stmt := range stmts {
		if _, err := conn.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("mysql reset failed on %q: %v", stmt, err)
		}
	}
}
