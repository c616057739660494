package testutil

import (
	"testing"

	"github.com/google/uuid"

	"github.com/theLastOfCats/series-browser/internal/db"
)

// SetupTestDB creates a private in-memory SQLite DB with the schema applied.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	// shared cache so every pooled connection sees the same database
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	database, err := db.New(dsn)
	if err != nil {
		t.Fatalf("Failed to init in-memory db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// SeedSeries inserts catalog rows and returns their ids in order.
func SeedSeries(t *testing.T, database *db.DB, names ...string) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(names))
	for _, name := range names {
		res, err := database.Exec("INSERT INTO series (name) VALUES (?)", name)
		if err != nil {
			t.Fatalf("Failed to seed series %q: %v", name, err)
		}
		id, _ := res.LastInsertId()
		ids = append(ids, id)
	}
	return ids
}

// SeedUser inserts a user with an unusable password hash.
func SeedUser(t *testing.T, database *db.DB, email string) int64 {
	t.Helper()

	res, err := database.Exec("INSERT INTO users (display_name, email, password_hash) VALUES (?, ?, ?)", email, email, "hash")
	if err != nil {
		t.Fatalf("Failed to seed user %q: %v", email, err)
	}
	id, _ := res.LastInsertId()
	return id
}
