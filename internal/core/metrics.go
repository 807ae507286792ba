package core

import "time"

// MetricsCollector receives the timing of every collaborator call the
// service makes. collaborator is "vectorstore", "inference" or "artifact".
type MetricsCollector interface {
	RecordCall(collaborator, operation string, duration time.Duration, err error)
}

// NoopMetricsCollector discards everything.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCall(string, string, time.Duration, error) {}
