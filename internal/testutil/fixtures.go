//go:build integration

package testutil

import (
	"testing"

	"github.com/liscain-net/liscain/pkg/driver/sonicdriver"
)

// ConnectedSession returns a sonicdriver.Session connected to the test
// Redis, with both DBs seeded with a fixed test topology. Registers
// cleanup.
func ConnectedSession(t *testing.T) *sonicdriver.Session {
	t.Helper()
	SkipIfNoRedis(t)
	SetupBothDBs(t)

	s := sonicdriver.NewSession("test-leaf1", RedisIP(), "", "", 0)

	ctx := Context(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connecting session: %v", err)
	}

	t.Cleanup(func() {
		s.Disconnect()
	})

	return s
}

// LockedSession returns a connected and locked sonicdriver.Session.
func LockedSession(t *testing.T) *sonicdriver.Session {
	t.Helper()

	s := ConnectedSession(t)
	ctx := Context(t)
	if err := s.Lock(ctx); err != nil {
		t.Fatalf("locking session: %v", err)
	}

	t.Cleanup(func() {
		s.Unlock()
	})

	return s
}

// ReconnectSession disconnects and reconnects a session, reloading state.
func ReconnectSession(t *testing.T, s *sonicdriver.Session) {
	t.Helper()
	s.Disconnect()
	ctx := Context(t)
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("reconnecting session: %v", err)
	}
}

// WithCleanState ensures both DBs are flushed and re-seeded. Use in
// subtests that modify Redis state.
func WithCleanState(t *testing.T) {
	t.Helper()
	SetupBothDBs(t)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error but got nil", msg)
	}
}

// Must is a generic helper that calls t.Fatal if err is not nil and
// returns the value.
func Must[T any](t *testing.T, val T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return val
}
