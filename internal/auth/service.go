package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aggregator-demo/aggregator/internal/identity"
)

const defaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for malformed, forged or expired access tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload of an access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	admins identity.AdminSet
	now    func() time.Time
}

// NewService constructs a token service. A non-positive ttl defaults to 24h.
func NewService(secret string, ttl time.Duration, admins identity.AdminSet) *Service {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl, admins: admins, now: time.Now}
}

// Issue signs an access token for user.
func (s *Service) Issue(user identity.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and resolves it to a session.
func (s *Service) Parse(token string) (identity.Session, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return identity.Session{}, ErrInvalidToken
	}
	return identity.Session{
		UserID: claims.Subject,
		Email:  claims.Email,
		Admin:  s.admins.Contains(claims.Email),
	}, nil
}
