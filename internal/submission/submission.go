// Package submission assembles and validates submission payloads for
// both plain assignments and timed exams. Everything here is pure
// computation, so callers can safely re-invoke it on retry.
package submission

import (
	"fmt"
	"strings"
	"time"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
)

// IssueCode identifies one validation failure class.
type IssueCode string

const (
	IssueMissingAnswer IssueCode = "MISSING_ANSWER"
	IssueMissingFile   IssueCode = "MISSING_FILE"
	IssuePastDeadline  IssueCode = "PAST_DEADLINE"
	IssueSessionClosed IssueCode = "SESSION_CLOSED"
)

// Issue is one validation failure. QuestionID is set only for
// MISSING_ANSWER.
type Issue struct {
	Code       IssueCode `json:"code"`
	QuestionID uuid.UUID `json:"question_id,omitempty"`
}

// ValidationError aggregates every issue found in a draft. It is a
// deterministic, user-correctable failure and is never retried.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	codes := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		codes[i] = string(issue.Code)
	}
	return fmt.Sprintf("submission rejected: %s", strings.Join(codes, ", "))
}

// Draft is the student's work-in-progress answer set.
type Draft struct {
	Answers map[uuid.UUID]string
	FileURL *string
}

// Payload is a validated submission ready to be sent to the
// submission service.
type Payload struct {
	TaskID      uuid.UUID              `json:"task_id"`
	StudentID   uuid.UUID              `json:"student_id"`
	Status      model.SubmissionStatus `json:"status"`
	Answers     []model.Answer         `json:"answers,omitempty"`
	FileURL     *string                `json:"file_url,omitempty"`
	SubmittedAt time.Time              `json:"submitted_at"`
}

// Validate checks a draft against the task's rules and returns every
// failure at once, in question order. sessionClosed reflects the timed
// exam's session state and takes precedence over field-level checks: a
// closed session yields a single SESSION_CLOSED issue regardless of
// answer completeness. A nil return means the draft may be built.
func Validate(task *model.Task, sessionClosed bool, draft Draft, now time.Time) []Issue {
	if task.TimedExam() && sessionClosed {
		return []Issue{{Code: IssueSessionClosed}}
	}

	var issues []Issue

	if task.Type == model.TaskTypeAssignment && IsLate(task, now) && !task.AllowLate {
		issues = append(issues, Issue{Code: IssuePastDeadline})
	}

	switch task.AnswerFormat {
	case model.AnswerFormatStructured:
		// Every question is required; aggregate all gaps instead of
		// stopping at the first.
		for _, q := range task.Questions {
			if strings.TrimSpace(draft.Answers[q.ID]) == "" {
				issues = append(issues, Issue{Code: IssueMissingAnswer, QuestionID: q.ID})
			}
		}
	case model.AnswerFormatFile:
		if draft.FileURL == nil || *draft.FileURL == "" {
			issues = append(issues, Issue{Code: IssueMissingFile})
		}
	}

	return issues
}

// Build assembles the submission payload from a validated draft.
// Status is late only when the submission was accepted specifically
// because lateness is tolerated: now past the due date with AllowLate
// set. Answers are mapped in question order; a missing answer becomes
// an empty string, which Validate has already ruled out for drafts
// that reach this point.
func Build(task *model.Task, studentID uuid.UUID, draft Draft, now time.Time) Payload {
	status := model.SubmissionStatusSubmitted
	if IsLate(task, now) && task.AllowLate {
		status = model.SubmissionStatusLate
	}

	p := Payload{
		TaskID:      task.ID,
		StudentID:   studentID,
		Status:      status,
		SubmittedAt: now,
	}

	switch task.AnswerFormat {
	case model.AnswerFormatStructured:
		p.Answers = make([]model.Answer, 0, len(task.Questions))
		for _, q := range task.Questions {
			p.Answers = append(p.Answers, model.Answer{
				QuestionID: q.ID,
				AnswerText: draft.Answers[q.ID],
			})
		}
	case model.AnswerFormatFile:
		p.FileURL = draft.FileURL
	}

	return p
}

// IsLate reports whether now is past the task's due date.
func IsLate(task *model.Task, now time.Time) bool {
	return now.After(task.DueAt)
}
