package sqlite

import (
	"context"
	"testing"
)

// newTestStore creates a Store on a temp-file database with cleanup.
//
// Each test gets its own file under t.TempDir() for isolation; the shared
// ":memory:" database would leak state between tests in the same process.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(context.Background(), t.TempDir()+"/test.db")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			t.Fatalf("Failed to close test database: %v", cerr)
		}
	})

	return store
}
