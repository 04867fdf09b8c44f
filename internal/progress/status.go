package progress

import (
	"fmt"
	"time"
)

// Status is a learner's position on one module.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// AllStatuses returns every status in display order.
func AllStatuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusFailed}
}

// ParseStatus validates s.
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", &InvalidStatusError{Value: s}
}

// Icon returns a single-character marker for listings.
func (s Status) Icon() string {
	switch s {
	case StatusCompleted:
		return "✓"
	case StatusInProgress:
		return "◐"
	case StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

// Label returns a human-readable name for the status.
func (s Status) Label() string {
	switch s {
	case StatusCompleted:
		return "Completed"
	case StatusInProgress:
		return "In progress"
	case StatusFailed:
		return "Failed"
	default:
		return "Not started"
	}
}

// Record is the stored progress of one module. Absence of a record means
// the module has not been started.
type Record struct {
	ModuleID    string     `json:"moduleId"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Attempts    int        `json:"attempts"`
	Score       *int       `json:"score,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// StatusOf returns rec's status, treating a nil record as not started.
func StatusOf(rec *Record) Status {
	if rec == nil || rec.Status == "" {
		return StatusNotStarted
	}
	return rec.Status
}

// InvalidStatusError is returned for status strings outside the known set.
type InvalidStatusError struct {
	Value string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid status %q (want one of not-started, in-progress, completed, failed)", e.Value)
}

// ScoreRangeError is returned for scores outside 0..100.
type ScoreRangeError struct {
	Score int
}

func (e *ScoreRangeError) Error() string {
	return fmt.Sprintf("score must be between 0 and 100, got %d", e.Score)
}

// NoRecordError is returned by operations that need an existing record.
type NoRecordError struct {
	ModuleCode string
}

func (e *NoRecordError) Error() string {
	return fmt.Sprintf("no progress recorded for module %s", e.ModuleCode)
}
