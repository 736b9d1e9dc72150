package identity

import (
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
}

// Account is an email/password pair provisioned by configuration.
type Account struct {
	Email    string
	Password string
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminSet is the set of admin email addresses. The first entry is the primary admin.
type AdminSet struct {
	emails []string
	lookup map[string]struct{}
}

// NewAdminSet builds an AdminSet from the given accounts, preserving order.
func NewAdminSet(accounts []Account) AdminSet {
	set := AdminSet{lookup: make(map[string]struct{}, len(accounts))}
	for _, a := range accounts {
		email := NormalizeEmail(a.Email)
		if email == "" {
			continue
		}
		if _, dup := set.lookup[email]; dup {
			continue
		}
		set.emails = append(set.emails, email)
		set.lookup[email] = struct{}{}
	}
	return set
}

// Contains reports whether email belongs to an admin.
func (s AdminSet) Contains(email string) bool {
	_, ok := s.lookup[NormalizeEmail(email)]
	return ok
}

// Primary returns the first configured admin email, or "" when none.
func (s AdminSet) Primary() string {
	if len(s.emails) == 0 {
		return ""
	}
	return s.emails[0]
}

// Emails returns the admin addresses in configuration order.
func (s AdminSet) Emails() []string {
	return append([]string(nil), s.emails...)
}
