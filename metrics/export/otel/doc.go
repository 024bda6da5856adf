// Package otel publishes authflow metrics through OpenTelemetry.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter family,
// observed once per series with screen and outcome attributes, and one
// Int64ObservableGauge per histogram bucket. A single callback reads
// [authflow.Client.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate client state.
package otel
