// Package session replaces the client-side admin flag with an explicit session:
// established at login, checked by route guards and revoked at logout.
package session

import (
	"context"
	"time"
)

// LoginPath is where guarded routes redirect anonymous visitors
const LoginPath = "/admin"

// Session is the admin state of one client
type Session struct {
	Authenticated bool      `json:"authenticated"`
	Subject       string    `json:"subject,omitempty"`
	TokenID       string    `json:"-"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

func Anonymous() Session {
	return Session{}
}

// Decision is the outcome of a route guard
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}

// Guard allows authenticated sessions and sends everyone else to the login page
func Guard(authenticated bool) Decision {
	if authenticated {
		return Decision{Allow: true}
	}
	return Decision{Allow: false, Redirect: LoginPath}
}

type contextKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or an anonymous one
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(contextKey{}).(Session); ok {
		return s
	}
	return Anonymous()
}
