// Package prometheus provides a Prometheus collector for sesskit metrics.
//
// [NewExporter] accepts a [sesskit.Engine] and exposes an [http.Handler]
// that renders all sesskit counters in Prometheus text exposition format.
// Counter names are prefixed sesskit_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry — the exporter
//     owns a private registry and callers mount the Handler.
//   - Mutate engine state.
package prometheus
