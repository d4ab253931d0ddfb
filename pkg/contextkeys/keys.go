// Package contextkeys provides centralized context key definitions.
//
// IMPORTANT: All context keys used across the application must be defined
// here. This prevents typos, documents dependencies, and makes key usage
// discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains the *identity.User currently attached to the
	// request's execution path.
	// Set by: security.WithIdentity (authentication layer, system substitution)
	// Required by: authorization service, audit logging
	IdentityKey Key = "identity"

	// OriginatingActionKey contains the action name (string) that triggered
	// the current unit of work. It is set once when a request enters the node
	// and propagated unchanged to every internal follow-up action.
	// Set by: security.WithOriginatingAction
	// Required by: security.ShouldSubstituteSystemIdentity
	OriginatingActionKey Key = "originating_action"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: request logging, audit trail
	RequestIDKey Key = "request_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
