package identity

import "context"

// Session is the authenticated caller resolved from an access token.
type Session struct {
	UserID string
	Email  string
	Admin  bool
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom extracts the session placed by the auth middleware.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s.UserID != ""
}
