package services_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"

	"github.com/isdelr/prep-deck-be/internal/database"
	"github.com/isdelr/prep-deck-be/internal/services"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *sql.DB, name, email string) string {
	t.Helper()

	user, err := services.NewUserService(db).CreateUser(context.Background(), name, email, "secret", "")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return user.ID
}

type notification struct {
	userID string
	action string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) NotifyUser(userID, action string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{userID: userID, action: action})
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.sent))
	for i, s := range n.sent {
		out[i] = s.action
	}
	return out
}

func countRows(t *testing.T, db *sql.DB, query string, args ...interface{}) int {
	t.Helper()

	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}
