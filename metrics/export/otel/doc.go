// Package otel bridges sesskit metrics into an OpenTelemetry meter.
//
// [NewExporter] registers observable counters for every sesskit counter
// plus the audit backpressure counter; the meter's reader pulls current
// values from the engine snapshot on each collection.
//
// # What this package must NOT do
//
//   - Own a MeterProvider — callers pass the meter and control export.
//   - Mutate engine state.
package otel
