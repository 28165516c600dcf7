package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/mindflow/internal/db"
	"github.com/alexanderramin/mindflow/internal/store"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestStore creates an embedded store on a fresh in-memory database.
// Subscriptions end when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s := store.NewSQLiteStore(NewTestDB(t))
	t.Cleanup(func() { s.Close() })
	return s
}
