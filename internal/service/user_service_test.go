package service

import (
	"errors"
	"testing"

	"go-session-auth-service/internal/repository"
	"go-session-auth-service/internal/security"
)

func TestRegisterHashesPassword(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)

	u, err := svc.Register("Test User", "a@b.com", "tester", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.PasswordHash == nil || *u.PasswordHash == "secret" {
		t.Fatal("password must be stored hashed")
	}
	if !security.VerifyPassword("secret", *u.PasswordHash) {
		t.Fatal("stored hash must verify the original password")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)

	if _, err := svc.Register("A", "Foo@Example.com", "foo", "pw"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register("B", "foo@example.com", "bar", "pw"); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict for case-insensitive duplicate email, got %v", err)
	}
}

func TestChangeUsername(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users)

	u, err := svc.Register("A", "a@b.com", "old", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	updated, err := svc.ChangeUsername(u.ID, "new")
	if err != nil {
		t.Fatalf("change username: %v", err)
	}
	if updated.Username == nil || *updated.Username != "new" {
		t.Fatalf("unexpected username %+v", updated.Username)
	}
}
