// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunLogin, RunAuthenticate, RunRevoke, RunLogoutByToken)
// accepts a typed dependency struct and returns a classified result. The
// root package maps failure kinds to its public errors, metrics and audit
// events.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store, the token
// manager, the user directory and the login throttle. They do NOT own
// any of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAdmin (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows
