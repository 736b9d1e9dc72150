package identity

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/aggregator-demo/aggregator/internal/apperr"
)

func newTestService() *Service {
	admins := NewAdminSet([]Account{{Email: "Admin@Aggregator.local"}, {Email: "ops@aggregator.local"}})
	return NewService(NewMemoryRepository(), BcryptHasher{Cost: bcrypt.MinCost}, admins)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, Credentials{Email: "  Trader@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "trader@example.com" {
		t.Fatalf("expected normalized email, got %s", user.Email)
	}

	authed, err := svc.Authenticate(ctx, Credentials{Email: "TRADER@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, authed.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "a@b.c", Password: "123"}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for short password, got %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Password: "secret1"}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("expected invalid request for missing email, got %v", err)
	}

	if _, err := svc.Register(ctx, Credentials{Email: "a@b.c", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Credentials{Email: "A@B.C", Password: "secret1"}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Email: "a@b.c", Password: "secret1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Email: "a@b.c", Password: "nope123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Email: "ghost@b.c", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, created, err := svc.Ensure(ctx, "admin@aggregator.local", "admin")
	if err != nil || !created {
		t.Fatalf("expected creation, got created=%v err=%v", created, err)
	}
	second, created, err := svc.Ensure(ctx, "ADMIN@aggregator.local", "other")
	if err != nil || created {
		t.Fatalf("expected existing user, got created=%v err=%v", created, err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same user id")
	}

	users, _ := svc.List(ctx)
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}

func TestAdminSet(t *testing.T) {
	svc := newTestService()
	if !svc.IsAdmin(" admin@aggregator.local") {
		t.Fatalf("expected admin match regardless of case and spaces")
	}
	if svc.IsAdmin("trader@example.com") {
		t.Fatalf("expected non-admin")
	}
	if svc.Admins().Primary() != "admin@aggregator.local" {
		t.Fatalf("unexpected primary admin %q", svc.Admins().Primary())
	}
}

func TestGetUnknownUser(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
