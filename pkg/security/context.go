package security

import (
	"context"

	"github.com/tessera-data/warden/pkg/contextkeys"
	"github.com/tessera-data/warden/pkg/identity"
)

// WithIdentity attaches the executing identity to the context.
func WithIdentity(ctx context.Context, user *identity.User) context.Context {
	return context.WithValue(ctx, contextkeys.IdentityKey, user)
}

// IdentityFrom returns the identity attached to the context, or nil when the
// execution path has no identity yet.
func IdentityFrom(ctx context.Context) *identity.User {
	if u, ok := ctx.Value(contextkeys.IdentityKey).(*identity.User); ok {
		return u
	}
	return nil
}

// WithOriginatingAction records the action that triggered the current unit of
// work. It is set once at the entry point of a request and never overwritten
// on internal hops, so the whole internal chain sees the same origin.
func WithOriginatingAction(ctx context.Context, action string) context.Context {
	if OriginatingAction(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.OriginatingActionKey, action)
}

// OriginatingAction returns the action that triggered the current unit of
// work, or "" when none was recorded.
func OriginatingAction(ctx context.Context) string {
	if a, ok := ctx.Value(contextkeys.OriginatingActionKey).(string); ok {
		return a
	}
	return ""
}
