// Package internal groups the packages that are private to goAdmin.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: process configuration loaded from the environment
//   - flows: pure-function flow orchestrators for every Engine operation
//   - httpapi: gin routes for the admin authentication server
//   - rate: Redis-backed failed-login throttle
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAdmin API.
//   - Be imported by any package outside the goAdmin module.
package internal
