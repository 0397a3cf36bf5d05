// Package session stores one session record per user and decides, at
// the storage level, which access token id is currently renewable.
//
// # Binary encoding
//
// Sessions are written as a compact versioned binary blob. The
// fingerprint sits directly after the version byte and RenewedAt
// occupies the final eight bytes, which lets the Redis compare-and-set
// script rewrite both without decoding the rest of the record.
//
// # Architecture boundaries
//
// This package owns the [Store] contract and its Redis and in-memory
// implementations. It does NOT parse tokens, check authorities or
// decide authentication outcomes; those belong to the engine.
//
// # What this package must NOT do
//
//   - Import goAdmin, jwt, or permission (no upward imports).
//   - Store password hashes or token strings.
package session
