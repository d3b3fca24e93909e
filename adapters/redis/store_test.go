package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// needs a reachable server, e.g. MEDASSIST_TEST_REDIS_URI=redis://localhost:6379/15
func testStore(t *testing.T) *TokenStore {
	t.Helper()
	uri := os.Getenv("MEDASSIST_TEST_REDIS_URI")
	if uri == "" {
		t.Skip("MEDASSIST_TEST_REDIS_URI not set")
	}
	client, err := Connect(context.Background(), uri)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })

	s := New(client, "medassist-test:"+uuid.NewString()+":")
	t.Cleanup(func() { _ = s.Clear(context.Background()) })
	return s
}

func TestNew_DefaultPrefix(t *testing.T) {
	s := New(nil, "")
	if s.Key() != "medassist:token" {
		t.Errorf("Key() = %q, want medassist:token", s.Key())
	}
}

func TestTokenStore_Lifecycle(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := testStore(t)

	// Act + Assert
	if got, err := s.Load(ctx); err != nil || got != "" {
		t.Fatalf("Load() on missing key = %q, %v, want \"\", nil", got, err)
	}
	if err := s.Save(ctx, "tok-1"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got, err := s.Load(ctx); err != nil || got != "tok-1" {
		t.Errorf("Load() = %q, %v, want tok-1", got, err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if got, _ := s.Load(ctx); got != "" {
		t.Errorf("Load() after Clear() = %q, want empty", got)
	}
}
