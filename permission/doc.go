// Package permission evaluates string authorities such as "admin" or
// "ROLE_ADMIN" against an authenticated principal.
//
// Authorities are plain strings resolved once at login. Role names carry
// the [RolePrefix]; permission names do not.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goAdmin, jwt, or session.
package permission
