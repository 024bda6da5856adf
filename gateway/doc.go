// Package gateway performs single outbound calls to the trading platform's
// authentication API and normalizes their outcome.
//
// Every call ends in exactly one of three shapes:
//
//   - a *[TransportError] (network failure, cancelled context, or a body that
//     is not a JSON object, whatever the status code);
//   - a [Result] with Success=false (application failure, 429 included);
//   - a [Result] with Success=true.
//
// The response contract is checked here so callers never see a
// primitive-or-object union: optional fields of the wrong type are dropped,
// a non-boolean "success" is a contract violation.
//
// No retries are performed; each Do is a single attempt.
package gateway
