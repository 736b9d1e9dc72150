package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

func TestIssueAndParse(t *testing.T) {
	admins := identity.NewAdminSet([]identity.Account{{Email: "admin@aggregator.local"}})
	svc := NewService("secret", time.Hour, admins)

	token, err := svc.Issue(identity.User{ID: "u1", Email: "admin@aggregator.local"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	session, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if session.UserID != "u1" || session.Email != "admin@aggregator.local" || !session.Admin {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	svc := NewService("secret", time.Minute, identity.AdminSet{})
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(identity.User{ID: "u1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	svc.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := svc.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, err := NewService("one", time.Hour, identity.AdminSet{}).Issue(identity.User{ID: "u1", Email: "a@b.c"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewService("two", time.Hour, identity.AdminSet{}).Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature rejection, got %v", err)
	}
	if _, err := NewService("one", time.Hour, identity.AdminSet{}).Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected malformed token rejection, got %v", err)
	}
}
