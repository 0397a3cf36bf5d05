// Package rate implements the Redis-backed failed-login throttle.
//
// # Window semantics
//
// Each counter is INCRemented in a MULTI together with a PTTL read; the
// window TTL is set only when the counter has none, so later failures
// never extend it. Key prefixes:
//   - "al:" counts failed logins per username
//   - "ali:" counts failed logins per client IP
//
// # What this package must NOT do
//
//   - Decide whether credentials are valid.
//   - Be imported outside the goAdmin module.
package rate
