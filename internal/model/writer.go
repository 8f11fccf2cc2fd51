package model

import "context"

// Sink defines a generic interface for delivering the result of a run to a destination.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Write takes the finished result and delivers it.
	// runID identifies the run and is shared by every sink of that run.
	Write(ctx context.Context, result *Result, runID string) error

	// Close releases any connection the sink holds.
	Close() error
}
