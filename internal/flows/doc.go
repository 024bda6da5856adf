// Package flows contains the pure orchestration behind every screen
// controller: rule chains, request payloads and the outcome classification
// of a single gateway call.
//
// Each Run function accepts a typed dependency struct. The root package
// builds those structs from its Client and maps the returned Outcome onto
// controller state.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import authflow (to avoid import cycles).
//   - Perform I/O directly. Every call goes through the Call dependency.
package flows
