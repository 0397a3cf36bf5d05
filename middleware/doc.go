// Package middleware adapts goAdmin.Engine request authentication to
// net/http and gin.
//
// # Guards
//
//   - [Guard] authenticates net/http requests.
//   - [Gin] authenticates gin requests.
//   - [RequireAuthority], [RequireRole] and [GinRequireAuthority] enforce
//     authorities on the principal a guard attached.
//
// Guards read the configured token header (access_token by default), call
// Engine.Authenticate and, when an expired token was renewed, set the
// renew header (new_access_token) on the response. Failures are written as
// the {code,msg,data} envelope with the status from goAdmin.CodeOf.
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to Engine).
//   - Access the session store.
package middleware
