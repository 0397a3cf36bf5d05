// Package otel publishes goAdmin counters through an OpenTelemetry meter.
//
// [New] registers an Int64ObservableCounter per engine counter and an
// Int64ObservableGauge per latency bucket. One callback reads
// [goAdmin.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
