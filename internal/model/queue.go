package model

import "time"

// ResultPayload travels the persist-results queue from the session service to
// the result worker, which folds it into the candidate's attempt aggregate.
type ResultPayload struct {
	SessionID   string    `json:"session_id"`
	CandidateID string    `json:"candidate_id"`
	Percentage  int       `json:"percentage"`
	Passed      bool      `json:"passed"`
	EndReason   EndReason `json:"end_reason"`
	EndedAt     time.Time `json:"ended_at"`
}

// NotificationPayload travels the notifications queue. Delivery is
// fire-and-forget: a lost notification never blocks or fails the pipeline
// that produced it.
type NotificationPayload struct {
	Kind        string    `json:"kind"`
	SessionID   string    `json:"session_id"`
	CandidateID string    `json:"candidate_id"`
	Percentage  int       `json:"percentage,omitempty"`
	Grade       string    `json:"grade,omitempty"`
	Passed      bool      `json:"passed"`
	EndReason   EndReason `json:"end_reason,omitempty"`
	At          time.Time `json:"at"`
}

// Notification kinds.
const (
	NotificationResultReady = "RESULT_READY"
	NotificationTerminated  = "SESSION_TERMINATED"
)

// MonitorEvent is published on the session's Redis PubSub channel so
// recruiter dashboards can watch an attempt live.
type MonitorEvent struct {
	SessionID        string        `json:"session_id"`
	Event            string        `json:"event"`
	Status           SessionStatus `json:"status"`
	RemainingSeconds int           `json:"remaining_seconds"`
	AnsweredCount    int           `json:"answered_count"`
	TotalViolations  int           `json:"total_violations"`
	Severity         Severity      `json:"severity,omitempty"`
	At               time.Time     `json:"at"`
}

// Monitor event names.
const (
	MonitorEventCreated   = "created"
	MonitorEventBegan     = "began"
	MonitorEventAnswered  = "answered"
	MonitorEventViolation = "violation"
	MonitorEventEnded     = "ended"
)
