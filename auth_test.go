package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) (*Auth, *DB) {
	t.Helper()
	prev := bcryptCost
	bcryptCost = bcrypt.MinCost
	t.Cleanup(func() { bcryptCost = prev })
	db := openTestDB(t)
	return NewAuth(db, testLogger()), db
}

func TestRegisterAndLogin(t *testing.T) {
	a, _ := newTestAuth(t)

	id, token, err := a.Register("  carol ", "pass1234", "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	pid, user, err := a.ValidateToken(token)
	if err != nil || pid != id || user != "carol" {
		t.Fatalf("ValidateToken = %d %q %v", pid, user, err)
	}

	lid, _, err := a.Login("carol", "pass1234", "1.2.3.4")
	if err != nil || lid != id {
		t.Fatalf("Login = %d, %v", lid, err)
	}
	if _, _, err := a.Login("carol", "nope", "1.2.3.4"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, _, err := a.Login("dave", "pass1234", "1.2.3.4"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	a, _ := newTestAuth(t)
	if _, _, err := a.Register("x", "pass1234", "1.2.3.4"); !errors.Is(err, ErrBadAccount) {
		t.Errorf("short username err = %v", err)
	}
	if _, _, err := a.Register("abcdefghijklmnopq", "pass1234", "1.2.3.4"); !errors.Is(err, ErrBadAccount) {
		t.Errorf("long username err = %v", err)
	}
	if _, _, err := a.Register("erin", "abc", "1.2.3.4"); !errors.Is(err, ErrBadAccount) {
		t.Errorf("short password err = %v", err)
	}
	if _, _, err := a.Register("erin", "abcd", "1.2.3.4"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Register("erin", "abcd", "1.2.3.4"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate err = %v", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	a, _ := newTestAuth(t)
	a.Register("frank", "pass1234", "1.2.3.4")
	for i := 0; i < maxLoginAttempts; i++ {
		if _, _, err := a.Login("frank", "bad", "5.6.7.8"); errors.Is(err, ErrRateLimited) {
			t.Fatalf("rate limited after %d attempts", i)
		}
	}
	if _, _, err := a.Login("frank", "pass1234", "5.6.7.8"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
	if _, _, err := a.Login("frank", "pass1234", "9.9.9.9"); err != nil {
		t.Errorf("other IP blocked: %v", err)
	}
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	a, db := newTestAuth(t)
	_, token, _ := a.Register("gina", "pass1234", "1.2.3.4")

	if _, _, err := a.ValidateToken(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token err = %v", err)
	}

	// the secret is persisted, so a second Auth on the same db agrees
	b := NewAuth(db, testLogger())
	if _, _, err := b.ValidateToken(token); err != nil {
		t.Errorf("token rejected after restart: %v", err)
	}

	other := NewAuth(openTestDB(t), testLogger())
	if _, _, err := other.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token err = %v", err)
	}
}

func TestSignupRateLimit(t *testing.T) {
	a, _ := newTestAuth(t)
	for i := 0; i < maxSignups; i++ {
		if _, _, err := a.Register("x", "pass1234", "7.7.7.7"); errors.Is(err, ErrRateLimited) {
			t.Fatalf("rate limited after %d signups", i)
		}
	}
	if _, _, err := a.Register("henry", "pass1234", "7.7.7.7"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestRateLimiterPrunesExpired(t *testing.T) {
	r := newRateLimiter(1, time.Minute)
	now := time.Now()
	for i := 0; i < rateMaxKeys; i++ {
		r.allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256), now)
	}
	later := now.Add(2 * time.Minute)
	if !r.allow("10.9.9.9", later) {
		t.Fatal("fresh ip rejected")
	}
	if len(r.entries) != 1 {
		t.Errorf("entries = %d after prune, want 1", len(r.entries))
	}
	if !r.allow("10.0.0.0", later) {
		t.Error("expired window still counted")
	}
}

func TestAuthError(t *testing.T) {
	if got := authError(ErrUsernameTaken); got != ErrUsernameTaken.Error() {
		t.Errorf("authError = %q", got)
	}
	if got := authError(errors.New("disk on fire")); got != "internal error" {
		t.Errorf("internal error leaked: %q", got)
	}
}
