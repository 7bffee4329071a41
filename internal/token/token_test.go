//go:build unit

package token

import (
	"testing"
	"time"

	"go-blog-app/internal/data"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestActivationToken(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	gen := NewGenerator("secret", 72*time.Hour).WithClock(fixedClock(start))
	user := &data.User{ID: 7, Username: "alice", PasswordHash: "h1"}

	tok, err := gen.Make(Activation, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gen.Check(Activation, user, tok) {
		t.Fatal("expected fresh token to validate")
	}

	t.Run("wrong purpose", func(t *testing.T) {
		if gen.Check(PasswordReset, user, tok) {
			t.Error("activation token must not reset a password")
		}
	})
	t.Run("other user", func(t *testing.T) {
		other := &data.User{ID: 8, PasswordHash: "h1"}
		if gen.Check(Activation, other, tok) {
			t.Error("token must be bound to its user")
		}
	})
	t.Run("tampered", func(t *testing.T) {
		if gen.Check(Activation, user, tok+"x") {
			t.Error("tampered token must fail")
		}
	})
	t.Run("other secret", func(t *testing.T) {
		forged := NewGenerator("other", 72*time.Hour).WithClock(fixedClock(start))
		if forged.Check(Activation, user, tok) {
			t.Error("token signed with another secret must fail")
		}
	})
	t.Run("consumed", func(t *testing.T) {
		active := *user
		active.IsActive = true
		if gen.Check(Activation, &active, tok) {
			t.Error("token must fail once the account is active")
		}
	})
	t.Run("profile edits do not matter", func(t *testing.T) {
		edited := *user
		edited.FirstName = "Alice"
		edited.Email = "new@example.com"
		if !gen.Check(Activation, &edited, tok) {
			t.Error("editing profile fields must not invalidate the token")
		}
	})
	t.Run("expired", func(t *testing.T) {
		later := NewGenerator("secret", 72*time.Hour).WithClock(fixedClock(start.Add(73 * time.Hour)))
		if later.Check(Activation, user, tok) {
			t.Error("expired token must fail")
		}
	})
}

func TestResetToken_InvalidatedByStateChange(t *testing.T) {
	gen := NewGenerator("secret", time.Hour)
	user := &data.User{ID: 3, PasswordHash: "old", IsActive: true}

	tok, err := gen.Make(PasswordReset, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gen.Check(PasswordReset, user, tok) {
		t.Fatal("expected fresh token to validate")
	}

	changed := *user
	changed.PasswordHash = "new"
	if gen.Check(PasswordReset, &changed, tok) {
		t.Error("token must fail after the password changes")
	}

	loggedIn := *user
	now := time.Now()
	loggedIn.LastLogin = &now
	if gen.Check(PasswordReset, &loggedIn, tok) {
		t.Error("token must fail after a new login")
	}
}

func TestUID(t *testing.T) {
	uid := EncodeUID(42)
	id, err := DecodeUID(uid)
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	for _, bad := range []string{"", "***", EncodeUID(0), "YWJj"} {
		if _, err := DecodeUID(bad); err != ErrInvalidUID {
			t.Errorf("DecodeUID(%q): expected ErrInvalidUID, got %v", bad, err)
		}
	}
}
