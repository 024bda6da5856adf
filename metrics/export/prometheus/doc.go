// Package prometheus renders authflow metrics in the Prometheus text
// exposition format.
//
// [NewPrometheusExporter] reads an [authflow.Client] and exposes an
// [http.Handler]. Per-screen counters share one family with screen and
// outcome labels, e.g. authflow_submissions_total{screen="login",outcome="failure"}.
// The only histogram is authflow_gateway_latency_seconds.
//
// # What this package must NOT do
//
//   - Register anything in a global registry. Callers mount the Handler.
//   - Mutate client state.
package prometheus
