// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"duck-adapter/internal/domain"
	"duck-adapter/internal/engine"
)

// === Instrumentation Recorder ===

// RecordingInstrumentation implements engine.Instrumentation by collecting
// every event for assertions.
type RecordingInstrumentation struct {
	OnEventFn func(e engine.Event)
	Events    []engine.Event
}

// OnEvent implements the interface method for testing.
func (r *RecordingInstrumentation) OnEvent(e engine.Event) {
	if r.OnEventFn != nil {
		r.OnEventFn(e)
	}
	r.Events = append(r.Events, e)
}

// Kinds returns the kinds of the recorded events in order.
func (r *RecordingInstrumentation) Kinds() []engine.EventKind {
	out := make([]engine.EventKind, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Kind
	}
	return out
}

// Count returns how many events of kind k were recorded.
func (r *RecordingInstrumentation) Count(k engine.EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Reset discards the recorded events.
func (r *RecordingInstrumentation) Reset() { r.Events = nil }

// === Classifier Mock ===

// MockClassifier implements errmap.Classifier for testing.
type MockClassifier struct {
	ClassifyFn func(message string) domain.ErrorKind
	Messages   []string // collected messages for assertions
}

// Classify implements the interface method for testing.
func (m *MockClassifier) Classify(message string) domain.ErrorKind {
	m.Messages = append(m.Messages, message)
	if m.ClassifyFn != nil {
		return m.ClassifyFn(message)
	}
	return domain.Unknown
}
