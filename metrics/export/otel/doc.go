// Package otel mirrors the flow engine's in-process metrics onto an
// OpenTelemetry Meter.
//
// The exporter is pull-only: counters become Int64ObservableCounter
// instruments and each histogram bucket becomes an Int64ObservableGauge, all
// fed from one [authflow.Engine.MetricsSnapshot] read per collection cycle.
// Nothing is recorded on the submit path.
//
// Callers own the MeterProvider and its reader/exporter pipeline; this
// package only registers instruments on a Meter it is handed and never
// touches engine state.
package otel
