// Package telemetry wires OpenTelemetry tracing and metrics plus the Prometheus
// collectors for the enhancement engine.
//
// OpenTelemetry carries per-request signals (spans around each transformation
// state, outcome counters and latency). Prometheus carries the operational
// counters of the shared resources: credential fetches, fallback tiers and
// remote completion calls.
package telemetry
