// Package goAdmin provides the authentication core of an admin backend: signed
// access tokens bound to one server-side session per user, single-use renewal of
// expired tokens, and a uniform error envelope for HTTP responses.
//
// Engine methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Request lifecycle
//
// [Engine.Authenticate] takes a request path and the raw access_token header value.
// Allow-listed paths are skipped. A valid token needs a live session. An expired
// token is renewed exactly once: its id must equal the fingerprint stored in the
// session, after which a new token is issued and its id becomes the fingerprint.
// Presenting the old token again yields [ErrTokenFingerprintMismatch].
//
// # Architecture boundaries
//
// goAdmin is the public surface. It exposes [Engine], [Builder], [Config], the error
// table ([CodeOf]) and the response envelope ([Result]). Flow orchestration, login
// throttling and audit dispatch live under internal/. Session storage is in the
// session package and token handling in the jwt package.
//
// # What this package must NOT do
//
//   - Report a session store fault as an authentication failure.
//   - Write more than one session record per login or renewal.
//   - Import any sub-package that re-imports goAdmin (no import cycles).
package goAdmin
