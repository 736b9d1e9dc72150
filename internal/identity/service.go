package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aggregator-demo/aggregator/internal/apperr"
)

const minPasswordLength = 6

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Hasher hashes and verifies account passwords.
type Hasher interface {
	Hash(password string) ([]byte, error)
	Verify(hash []byte, password string) error
}

// BcryptHasher implements Hasher with bcrypt at the configured cost.
type BcryptHasher struct {
	Cost int
}

// Hash returns the bcrypt hash of password.
func (h BcryptHasher) Hash(password string) ([]byte, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// Verify compares password against hash.
func (h BcryptHasher) Verify(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

// Service manages identity lifecycle.
type Service struct {
	repo   Repository
	hasher Hasher
	admins AdminSet
	now    func() time.Time
}

// NewService creates a new identity service. A nil hasher defaults to bcrypt.
func NewService(repo Repository, hasher Hasher, admins AdminSet) *Service {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Service{repo: repo, hasher: hasher, admins: admins, now: func() time.Time { return time.Now().UTC() }}
}

// Register creates a user with a hashed password.
func (s *Service) Register(ctx context.Context, creds Credentials) (User, error) {
	email := NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", apperr.ErrInvalidRequest)
	}
	if len(creds.Password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", apperr.ErrInvalidRequest, minPasswordLength)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return User{}, fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, ErrEmailTaken)
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	user, err := s.create(ctx, email, creds.Password)
	if errors.Is(err, ErrEmailTaken) {
		return User{}, fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, err)
	}
	return user, err
}

// Authenticate verifies credentials.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	email := NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", apperr.ErrInvalidRequest)
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := s.hasher.Verify(user.PasswordHash, creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Ensure returns the user for email, creating it with password when absent.
// The boolean reports whether a user was created.
func (s *Service) Ensure(ctx context.Context, email, password string) (User, bool, error) {
	email = NormalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, false, err
	}
	user, err = s.create(ctx, email, password)
	if errors.Is(err, ErrEmailTaken) {
		user, err = s.repo.FindByEmail(ctx, email)
		return user, false, err
	}
	if err != nil {
		return User{}, false, err
	}
	return user, true, nil
}

// Get fetches a user by identifier.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return user, err
}

// List returns all users, oldest first.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// IsAdmin reports whether email belongs to an admin account.
func (s *Service) IsAdmin(email string) bool {
	return s.admins.Contains(email)
}

// Admins returns the configured admin set.
func (s *Service) Admins() AdminSet {
	return s.admins
}

func (s *Service) create(ctx context.Context, email, password string) (User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}
