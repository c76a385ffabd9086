package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"giftnest/internal/gift"
	"giftnest/internal/testutil"
)

func testSession() *gift.Session {
	return &gift.Session{
		User:       &gift.User{UUID: "user-1", Email: "alice@example.com"},
		DerivedKey: "ZGVyaXZlZC1rZXktbWF0ZXJpYWwtMzItYnl0ZXM=",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	clock := testutil.FixedClock()
	m := NewTokenManager([]byte("0123456789abcdef0123456789abcdef"), clock)

	token, err := m.Issue(testSession())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.DerivedKey != testSession().DerivedKey {
		t.Errorf("DerivedKey = %q", claims.DerivedKey)
	}
}

func TestTokenExpiry(t *testing.T) {
	clock := testutil.FixedClock()
	m := NewTokenManager([]byte("0123456789abcdef0123456789abcdef"), clock)

	token, err := m.Issue(testSession())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	clock.Advance(6 * 24 * time.Hour)
	if _, err := m.Parse(token); err != nil {
		t.Errorf("Parse() at day 6 error = %v", err)
	}

	clock.Advance(2 * 24 * time.Hour)
	if _, err := m.Parse(token); err == nil {
		t.Error("Parse() accepted an expired token")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	clock := testutil.FixedClock()
	m := NewTokenManager([]byte("0123456789abcdef0123456789abcdef"), clock)
	other := NewTokenManager([]byte("fedcba9876543210fedcba9876543210"), clock)

	token, err := m.Issue(testSession())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Error("Parse() accepted a token signed with a different secret")
	}
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "token.secret")

	first, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("LoadOrCreateSecret() error = %v", err)
	}
	if len(first) != 32 {
		t.Errorf("secret length = %d, want 32", len(first))
	}

	second, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatalf("second LoadOrCreateSecret() error = %v", err)
	}
	if string(first) != string(second) {
		t.Error("secret changed between loads")
	}

	t.Run("short secret rejected", func(t *testing.T) {
		short := filepath.Join(t.TempDir(), "token.secret")
		if err := os.WriteFile(short, []byte("tiny"), 0600); err != nil {
			t.Fatalf("writing file: %v", err)
		}
		if _, err := LoadOrCreateSecret(short); err == nil {
			t.Error("LoadOrCreateSecret() accepted a short secret")
		}
	})
}
