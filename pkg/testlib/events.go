package testlib

import "sync"

// EventType discriminates events published by the runner.
type EventType int

const (
	// TestsetStarted is published once per run, before requirements are queried.
	TestsetStarted EventType = iota
	// CallStarted is published before a verbose call.
	CallStarted
	// CallSucceeded is published after a verbose call returned without error.
	CallSucceeded
	// CallFailed is published for every failing call, verbose or not.
	CallFailed
	// PreparationFailed is published when no cluster fits the requirements.
	PreparationFailed
	// TestsetFinished is published once per run with the final outcome.
	TestsetFinished
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case TestsetStarted:
		return "TestsetStarted"
	case CallStarted:
		return "CallStarted"
	case CallSucceeded:
		return "CallSucceeded"
	case CallFailed:
		return "CallFailed"
	case PreparationFailed:
		return "PreparationFailed"
	case TestsetFinished:
		return "TestsetFinished"
	default:
		return "Unknown"
	}
}

// Event is a single progress notification.
type Event struct {
	Type EventType
	// Testset is the name of the test-set being run.
	Testset string
	// Name is the qualified call name for call events.
	Name string
	// Verbose is set for calls that report their start and success.
	Verbose bool
	// Err is set for CallFailed and PreparationFailed events.
	Err *TestError
	// Outcome is set for TestsetFinished events.
	Outcome *Outcome
}

// EventSink receives runner events. Publish must not block for long: the
// runner is synchronous.
type EventSink interface {
	Publish(event Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(event Event)

// Publish implements EventSink.
func (f EventSinkFunc) Publish(event Event) {
	f(event)
}

// NopSink discards all events.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(Event) {}

// publish delivers an event, swallowing panics from a faulty sink so that
// reporting can never change the outcome of a run.
func publish(sink EventSink, event Event) {
	if sink == nil {
		return
	}

	defer func() {
		_ = recover()
	}()

	sink.Publish(event)
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish implements EventSink.
func (r *Recorder) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)

	return out
}
