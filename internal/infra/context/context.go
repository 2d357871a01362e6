// Package context carries request-scoped values (trace ID, username) through
// context.Context without leaking the key types to callers.
package context

type contextKey string
