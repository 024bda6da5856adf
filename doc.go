// Package authflow drives the authentication screens of the trading
// platform front end: login, registration, password recovery and the
// token links sent by email.
//
// A [Client] is built once through [Builder] and hands out one controller
// per screen instance. Controllers are safe for concurrent use; each holds a
// tagged [State] and allows at most one gateway call at a time.
//
// # Architecture boundaries
//
// authflow is the public surface. Rule chains and call classification live
// in internal/flows, the HTTP exchange in gateway, cookie persistence in
// session. Navigation is delegated to a caller-supplied [Navigator].
//
// # What this package must NOT do
//
//   - Log or audit passwords and tokens.
//   - Retry a call on its own.
//   - Navigate anywhere the server named off-origin.
package authflow
