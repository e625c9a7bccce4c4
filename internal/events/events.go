// Package events provides the reporting sink for estimation progress.
//
// The estimator publishes an event for every state change and every finished
// worker. Publishing never blocks and a nil *Bus accepts and drops every
// event, so the presence of subscribers never changes numerical results.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventEstimateStarted is emitted when an estimate call passes validation
	EventEstimateStarted EventType = "estimate_started"
	// EventStateChanged is emitted on every estimator state transition
	EventStateChanged EventType = "state_changed"
	// EventWorkerCompleted is emitted when a worker finishes its partition
	EventWorkerCompleted EventType = "worker_completed"
	// EventWorkerFailed is emitted when a worker's random source fails
	EventWorkerFailed EventType = "worker_failed"
	// EventEstimateCompleted is emitted with the final estimate
	EventEstimateCompleted EventType = "estimate_completed"
	// EventEstimateFailed is emitted when the call ends in the Failed state
	EventEstimateFailed EventType = "estimate_failed"
)

// Event represents one estimation progress notification
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	State     string  `json:"state,omitempty"`
	Partition int     `json:"partition"`
	Samples   int64   `json:"samples,omitempty"`
	Inside    int64   `json:"inside,omitempty"`
	Workers   int     `json:"workers,omitempty"`
	Pi        float64 `json:"pi,omitempty"`
	Elapsed   string  `json:"elapsed,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// NewEstimateStartedEvent creates an estimate started event
func NewEstimateStartedEvent(runID string, samples int64, workers int) Event {
	return Event{
		Type:      EventEstimateStarted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Samples: samples,
			Workers: workers,
		},
	}
}

// NewStateChangedEvent creates a state transition event
func NewStateChangedEvent(runID string, state string) Event {
	return Event{
		Type:      EventStateChanged,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			State: state,
		},
	}
}

// NewWorkerCompletedEvent creates a worker completed event
func NewWorkerCompletedEvent(runID string, partition int, samples, inside int64, elapsed time.Duration) Event {
	return Event{
		Type:      EventWorkerCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Partition: partition,
			Samples:   samples,
			Inside:    inside,
			Elapsed:   elapsed.String(),
		},
	}
}

// NewWorkerFailedEvent creates a worker failed event
func NewWorkerFailedEvent(runID string, partition int, err error) Event {
	return Event{
		Type:      EventWorkerFailed,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Partition: partition,
			Error:     errString(err),
		},
	}
}

// NewEstimateCompletedEvent creates an estimate completed event
func NewEstimateCompletedEvent(runID string, samples, inside int64, pi float64, elapsed time.Duration) Event {
	return Event{
		Type:      EventEstimateCompleted,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Samples: samples,
			Inside:  inside,
			Pi:      pi,
			Elapsed: elapsed.String(),
		},
	}
}

// NewEstimateFailedEvent creates an estimate failed event
func NewEstimateFailedEvent(runID string, err error) Event {
	return Event{
		Type:      EventEstimateFailed,
		Timestamp: time.Now(),
		RunID:     runID,
		Data: EventData{
			Error: errString(err),
		},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
