package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamTimer is the server-authoritative record of a started exam attempt:
// "started at T with duration D" for one (task, student) pair.
// At most one exists per pair; it is never paused or reset.
type ExamTimer struct {
	TaskID          uuid.UUID `json:"task_id"`
	StudentID       uuid.UUID `json:"student_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

// Deadline returns the instant the timer runs out.
func (t *ExamTimer) Deadline() time.Time {
	return t.StartedAt.Add(time.Duration(t.DurationSeconds) * time.Second)
}

// Remaining returns the time left at now, clamped at zero.
func (t *ExamTimer) Remaining(now time.Time) time.Duration {
	remaining := t.Deadline().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TimerState is the wire representation of a running timer.
// Remaining uses the HH:MM:SS format clients parse into seconds.
type TimerState struct {
	TaskID    uuid.UUID `json:"task_id"`
	StudentID uuid.UUID `json:"student_id"`
	Remaining string    `json:"remaining"`
	Expired   bool      `json:"expired"`
}
