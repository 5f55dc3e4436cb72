package auth

import (
	"testing"
	"time"

	"emotlink/pkg/domain"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash equals plaintext")
	}
	if !CheckPassword("correct horse", hash) {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword("wrong horse", hash) {
		t.Fatalf("wrong password verified")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	m, err := NewSessionManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	user := domain.User{
		ID:          "goranipie",
		Name:        "고라니",
		Email:       "gorani@example.com",
		AccountType: domain.AccountLinker,
	}
	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != user.ID || got.Name != user.Name || got.Email != user.Email {
		t.Fatalf("claims mismatch: %+v", got)
	}
	if !got.IsLinker() {
		t.Fatalf("account type lost")
	}
}

func TestSessionRejectsForeignSecret(t *testing.T) {
	a, _ := NewSessionManager("secret-a", time.Hour)
	b, _ := NewSessionManager("secret-b", time.Hour)

	token, err := a.Issue(domain.User{ID: "goranipie"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestSessionRejectsExpired(t *testing.T) {
	m, _ := NewSessionManager("test-secret", time.Nanosecond)
	token, err := m.Issue(domain.User{ID: "goranipie"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := m.Verify(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestSessionManagerRequiresSecret(t *testing.T) {
	if _, err := NewSessionManager("  ", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
