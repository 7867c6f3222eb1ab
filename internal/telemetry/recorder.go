package telemetry

import (
	"sync"
	"time"

	"github.com/mrz1836/transmute/internal/constants"
)

// Event is one recorded telemetry event, for test assertions.
type Event struct {
	Type      string
	JobID     string
	Operation string
	Outcome   string
	Status    constants.JobStatus
	Duration  time.Duration
	Err       error
}

// Recorder is an Emitter that records events in memory. It is safe for
// concurrent use and intended for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Ensure Recorder implements Emitter.
var _ Emitter = (*Recorder)(nil)

// Events returns a copy of all recorded events in emission order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByType returns all recorded events of the given type.
func (r *Recorder) ByType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// JobStarted implements Emitter.
func (r *Recorder) JobStarted(projectPath string) {
	r.record(Event{Type: "job_started", Operation: projectPath})
}

// JobResumed implements Emitter.
func (r *Recorder) JobResumed(jobID, outcome string) {
	r.record(Event{Type: "job_resumed", JobID: jobID, Outcome: outcome})
}

// JobCancelled implements Emitter.
func (r *Recorder) JobCancelled(jobID, reason string) {
	r.record(Event{Type: "job_cancelled", JobID: jobID, Outcome: reason})
}

// RemoteCall implements Emitter.
func (r *Recorder) RemoteCall(operation string, duration time.Duration, err error) {
	r.record(Event{Type: "remote_call", Operation: operation, Duration: duration, Err: err})
}

// HILEntered implements Emitter.
func (r *Recorder) HILEntered(jobID string) {
	r.record(Event{Type: "hil_entered", JobID: jobID})
}

// HILExited implements Emitter.
func (r *Recorder) HILExited(jobID, result string) {
	r.record(Event{Type: "hil_exited", JobID: jobID, Outcome: result})
}

// JobFinished implements Emitter.
func (r *Recorder) JobFinished(jobID string, status constants.JobStatus, total time.Duration) {
	r.record(Event{Type: "job_finished", JobID: jobID, Status: status, Duration: total})
}
