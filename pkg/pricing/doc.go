// Package pricing converts resource volumes reported by the execution
// backend into monetary cost.
//
// Pricing is a pure function of configuration: a data-processing rate per
// TiB scanned plus a compute rate per slot-hour. The table is thread-safe
// and supports hot-reload so operators can adjust rates without restarting
// the engine.
package pricing
