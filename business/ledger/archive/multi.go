package archive

import (
	"context"
	"errors"
)

// Multi fans each event out to a set of archivers. A failure in one
// sink does not stop delivery to the others.
type Multi struct {
	sinks []Archiver
}

// NewMulti constructs a fan-out archiver over the specified sinks.
func NewMulti(sinks ...Archiver) *Multi {
	return &Multi{
		sinks: sinks,
	}
}

// Write delivers the event to every sink, joining any errors.
func (m *Multi) Write(ctx context.Context, evt Event) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink, joining any errors.
func (m *Multi) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
