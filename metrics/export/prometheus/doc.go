// Package prometheus renders goAdmin metrics in Prometheus text format.
//
// [New] accepts a [goAdmin.Engine] and exposes an [http.Handler] for a /metrics
// route. Counter names are prefixed goadmin_ and end in _total; the single
// histogram is goadmin_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the Handler.
//   - Mutate engine state.
package prometheus
