package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TaskType distinguishes plain assignments from exams.
type TaskType string

const (
	TaskTypeAssignment TaskType = "assignment"
	TaskTypeExam       TaskType = "exam"
)

// LatePolicy governs how an assignment submitted after its due date is treated.
// Only meaningful for assignments; exams are gated by the timer instead.
type LatePolicy string

const (
	LatePolicyNone              LatePolicy = "none"
	LatePolicyAcceptWithPenalty LatePolicy = "accept_with_penalty"
	LatePolicyAcceptAlways      LatePolicy = "accept_unconditionally"
)

// AnswerFormat selects how a task is answered.
type AnswerFormat string

const (
	AnswerFormatFile       AnswerFormat = "file"
	AnswerFormatStructured AnswerFormat = "structured_questions"
)

// Task is an assignment or exam definition authored by an instructor.
type Task struct {
	ID               uuid.UUID    `json:"id"`
	CourseID         uuid.UUID    `json:"course_id"`
	Type             TaskType     `json:"type"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	DueAt            time.Time    `json:"due_at"`
	AllowLate        bool         `json:"allow_late"`
	LatePolicy       LatePolicy   `json:"late_policy"`
	HasTimer         bool         `json:"has_timer"`
	TimeLimitMinutes *int         `json:"time_limit_minutes,omitempty"`
	AnswerFormat     AnswerFormat `json:"answer_format"`
	Questions        []Question   `json:"questions,omitempty"`
	AttachmentURL    *string      `json:"attachment_url,omitempty"`
	Published        bool         `json:"published"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Question is one prompt within a structured-answer task.
// Immutable once the task is published.
type Question struct {
	ID       uuid.UUID `json:"id"`
	TaskID   uuid.UUID `json:"task_id"`
	Text     string    `json:"text"`
	OrderNum int       `json:"order_num"`
}

// Invariant violations reported by CheckInvariants.
var (
	ErrTimeLimitOnExamOnly  = errors.New("time limit is only valid on a timed exam")
	ErrTimedExamNeedsLimit  = errors.New("a timed exam requires a time limit")
	ErrLatePolicyOnExam     = errors.New("late policy is only meaningful on assignments")
	ErrQuestionsNeedFormat  = errors.New("questions require the structured answer format")
	ErrStructuredNeedsItems = errors.New("a structured task requires at least one question")
)

// CheckInvariants validates the cross-field rules that binding tags cannot
// express: TimeLimitMinutes is set iff HasTimer is true and the task is an
// exam, and a LatePolicy other than none only appears on assignments.
func (t *Task) CheckInvariants() error {
	timed := t.Type == TaskTypeExam && t.HasTimer
	if timed && (t.TimeLimitMinutes == nil || *t.TimeLimitMinutes <= 0) {
		return ErrTimedExamNeedsLimit
	}
	if !timed && t.TimeLimitMinutes != nil {
		return ErrTimeLimitOnExamOnly
	}
	if t.Type == TaskTypeExam && (t.LatePolicy != "" && t.LatePolicy != LatePolicyNone) {
		return ErrLatePolicyOnExam
	}
	if t.AnswerFormat == AnswerFormatStructured && len(t.Questions) == 0 {
		return ErrStructuredNeedsItems
	}
	if t.AnswerFormat == AnswerFormatFile && len(t.Questions) > 0 {
		return ErrQuestionsNeedFormat
	}
	return nil
}

// TimedExam reports whether the task is an exam gated by a server timer.
func (t *Task) TimedExam() bool {
	return t.Type == TaskTypeExam && t.HasTimer
}

// TimeLimit returns the configured limit as a duration. Zero when untimed.
func (t *Task) TimeLimit() time.Duration {
	if t.TimeLimitMinutes == nil {
		return 0
	}
	return time.Duration(*t.TimeLimitMinutes) * time.Minute
}

// CreateTaskRequest is the payload for creating a new task.
type CreateTaskRequest struct {
	CourseID         uuid.UUID               `json:"course_id" binding:"required"`
	Type             TaskType                `json:"type" binding:"required,oneof=assignment exam"`
	Title            string                  `json:"title" binding:"required,min=3,max=255"`
	Description      string                  `json:"description" binding:"omitempty,max=10000"`
	DueAt            time.Time               `json:"due_at" binding:"required"`
	AllowLate        bool                    `json:"allow_late"`
	LatePolicy       LatePolicy              `json:"late_policy" binding:"omitempty,oneof=none accept_with_penalty accept_unconditionally"`
	HasTimer         bool                    `json:"has_timer"`
	TimeLimitMinutes *int                    `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	AnswerFormat     AnswerFormat            `json:"answer_format" binding:"required,oneof=file structured_questions"`
	Questions        []CreateQuestionRequest `json:"questions" binding:"omitempty,dive"`
	AttachmentURL    *string                 `json:"attachment_url" binding:"omitempty,url"`
}

// CreateQuestionRequest is one question within a task create/update payload.
type CreateQuestionRequest struct {
	Text string `json:"text" binding:"required,min=1,max=5000"`
}

// UpdateTaskRequest is the payload for updating an unpublished task.
type UpdateTaskRequest struct {
	Title            string                  `json:"title" binding:"omitempty,min=3,max=255"`
	Description      *string                 `json:"description" binding:"omitempty,max=10000"`
	DueAt            *time.Time              `json:"due_at" binding:"omitempty"`
	AllowLate        *bool                   `json:"allow_late" binding:"omitempty"`
	LatePolicy       *LatePolicy             `json:"late_policy" binding:"omitempty,oneof=none accept_with_penalty accept_unconditionally"`
	HasTimer         *bool                   `json:"has_timer" binding:"omitempty"`
	TimeLimitMinutes *int                    `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	AnswerFormat     *AnswerFormat           `json:"answer_format" binding:"omitempty,oneof=file structured_questions"`
	Questions        []CreateQuestionRequest `json:"questions" binding:"omitempty,dive"`
	AttachmentURL    *string                 `json:"attachment_url" binding:"omitempty,url"`
}
