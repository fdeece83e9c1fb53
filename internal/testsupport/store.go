package testsupport

import (
	"context"
	"testing"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// MustOpenStore opens a session.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *session.Store {
	t.Helper()

	store, err := session.Open(cfg)
	if err != nil {
		t.Fatalf("session.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates a fresh session for tests using the provided store.
func NewSession(t testing.TB, store *session.Store) *session.Session {
	t.Helper()

	sess, err := store.New(context.Background())
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	return sess
}
