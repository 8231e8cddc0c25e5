package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus records whether the submission arrived on time.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusLate      SubmissionStatus = "late"
)

// Answer is one (question, answer text) pair inside a structured submission.
type Answer struct {
	QuestionID uuid.UUID `json:"question_id"`
	AnswerText string    `json:"answer_text"`
}

// Submission is the student's finished answer record for a task.
// At most one exists per (task, student); the student cannot mutate it
// after creation; only instructor grading touches grade and feedback.
type Submission struct {
	ID          uuid.UUID        `json:"id"`
	TaskID      uuid.UUID        `json:"task_id"`
	StudentID   uuid.UUID        `json:"student_id"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Status      SubmissionStatus `json:"status"`
	Answers     []Answer         `json:"answers,omitempty"`
	FileURL     *string          `json:"file_url,omitempty"`
	Grade       *float64         `json:"grade,omitempty"`
	Feedback    *string          `json:"feedback,omitempty"`
}

// Graded reports whether an instructor has recorded a grade.
func (s *Submission) Graded() bool {
	return s.Grade != nil
}

// SubmitTaskRequest is the payload for creating a submission.
type SubmitTaskRequest struct {
	Answers []SubmitAnswer `json:"answers" binding:"omitempty,dive"`
	FileURL *string        `json:"file_url" binding:"omitempty,url"`
}

// SubmitAnswer is one answer within a submit payload.
type SubmitAnswer struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	AnswerText string    `json:"answer_text"`
}

// SaveDraftRequest is the payload for autosaving draft answers.
type SaveDraftRequest struct {
	Answers []SubmitAnswer `json:"answers" binding:"required,dive"`
}

// FeedbackRequest is the instructor payload for grading a submission.
type FeedbackRequest struct {
	Grade    float64 `json:"grade" binding:"min=0,max=100"`
	Feedback string  `json:"feedback" binding:"omitempty,max=10000"`
}
