package identity

import (
	"context"
	"strings"

	"github.com/tiered-events/app/internal/tier"
)

// Caller is the signed-in user as asserted by the identity provider.
type Caller struct {
	UserID    string
	Level     tier.Level
	FirstName string
	LastName  string
	Email     string
}

// DisplayName is the caller's full name, falling back to the email.
func (c Caller) DisplayName() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	return c.Email
}

type callerContextKey struct{}

// WithCaller stores the caller in context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey{}, c)
}

// CallerFromContext returns the caller stored in context, if any.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerContextKey{}).(Caller)
	return c, ok && c.UserID != ""
}
