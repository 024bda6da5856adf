// Package session persists the cookies the remote API sets when a
// credentialed call establishes or refreshes a session.
//
// # Binary encoding
//
// A [Blob] is stored as a compact binary record (schema v1) so the same bytes
// can live in Redis or in memory. The encoder is append-only: new versions add
// fields but never reinterpret old ones.
//
// # Architecture boundaries
//
// This package owns the [Store] implementations, the [Blob] model and the
// persistent cookie [Jar]. It does NOT interpret cookie values; decoding the
// session token belongs to the jwt package.
//
// # What this package must NOT do
//
//   - Import authflow or gateway (no upward imports).
//   - Keep expired cookies.
package session
