// Package validate holds the syntactic checks flow controllers run before any
// network round trip.
//
// The checks only short-circuit obviously malformed input. The remote service
// remains the source of truth and may reject values these functions accept.
//
// # What this package must NOT do
//
//   - Perform I/O or depend on configuration.
//   - Import authflow or gateway.
package validate
