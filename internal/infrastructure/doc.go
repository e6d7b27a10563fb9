// Package infrastructure provides the logging and telemetry plumbing shared by
// the pipeline commands: a JSON slog logger that tags records with run and
// trace IDs, and OpenTelemetry providers whose metrics can be snapshotted to a
// Prometheus textfile at the end of a run.
package infrastructure
