// Package metrics defines the observability events emitted by scheduler
// runs and the sink interfaces that record them. Concrete sinks live in
// infra/metrics and register themselves with the factory here.
package metrics
