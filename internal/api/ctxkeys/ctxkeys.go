// Package ctxkeys holds the context keys shared by the API middleware and handlers.
// Kept as a leaf package to avoid import cycles between api, middleware and handlers.
package ctxkeys

import "context"

// Key is the named type for all API context keys.
// Using a named type avoids collisions with string keys from other packages
// at runtime (context.Value compares both type and value).
type Key string

const (
	// ClientIdentity is the rate-limit identity of the caller (an IP address,
	// or "unknown"). Injected by the Identity middleware.
	ClientIdentity Key = "client_identity"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// String returns the string stored under key, or "".
func String(ctx context.Context, key Key) string {
	v, _ := ctx.Value(key).(string)
	return v
}
