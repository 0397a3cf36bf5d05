// Package jwt issues and verifies the signed access tokens carried in the
// access_token request header.
//
// Verify never returns an error. It returns a [Result] tagged Valid,
// Expired or Invalid so callers branch on the outcome explicitly; an
// Expired result still exposes the subject and token id because the
// renewal path needs them.
package jwt
