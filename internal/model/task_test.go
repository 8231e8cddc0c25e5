package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func baseExam() *Task {
	limit := 60
	return &Task{
		ID:               uuid.New(),
		Type:             TaskTypeExam,
		Title:            "Final",
		DueAt:            time.Now().Add(24 * time.Hour),
		HasTimer:         true,
		TimeLimitMinutes: &limit,
		AnswerFormat:     AnswerFormatFile,
	}
}

func TestCheckInvariantsValidTimedExam(t *testing.T) {
	assert.NoError(t, baseExam().CheckInvariants())
}

func TestCheckInvariantsTimedExamNeedsLimit(t *testing.T) {
	task := baseExam()
	task.TimeLimitMinutes = nil
	assert.ErrorIs(t, task.CheckInvariants(), ErrTimedExamNeedsLimit)

	zero := 0
	task.TimeLimitMinutes = &zero
	assert.ErrorIs(t, task.CheckInvariants(), ErrTimedExamNeedsLimit)
}

func TestCheckInvariantsLimitOnlyOnTimedExam(t *testing.T) {
	limit := 30
	task := &Task{
		Type:             TaskTypeAssignment,
		DueAt:            time.Now(),
		TimeLimitMinutes: &limit,
		AnswerFormat:     AnswerFormatFile,
	}
	assert.ErrorIs(t, task.CheckInvariants(), ErrTimeLimitOnExamOnly)

	task = baseExam()
	task.HasTimer = false
	assert.ErrorIs(t, task.CheckInvariants(), ErrTimeLimitOnExamOnly)
}

func TestCheckInvariantsLatePolicyOnlyOnAssignments(t *testing.T) {
	task := baseExam()
	task.LatePolicy = LatePolicyAcceptWithPenalty
	assert.ErrorIs(t, task.CheckInvariants(), ErrLatePolicyOnExam)

	task.LatePolicy = LatePolicyNone
	assert.NoError(t, task.CheckInvariants())
}

func TestCheckInvariantsStructuredNeedsQuestions(t *testing.T) {
	task := baseExam()
	task.AnswerFormat = AnswerFormatStructured
	assert.ErrorIs(t, task.CheckInvariants(), ErrStructuredNeedsItems)

	task.Questions = []Question{{Text: "Q1", OrderNum: 1}}
	assert.NoError(t, task.CheckInvariants())
}

func TestCheckInvariantsFileFormatRejectsQuestions(t *testing.T) {
	task := baseExam()
	task.Questions = []Question{{Text: "stray", OrderNum: 1}}
	assert.ErrorIs(t, task.CheckInvariants(), ErrQuestionsNeedFormat)
}

func TestTimeLimit(t *testing.T) {
	assert.Equal(t, time.Hour, baseExam().TimeLimit())

	untimed := &Task{Type: TaskTypeAssignment}
	assert.Equal(t, time.Duration(0), untimed.TimeLimit())
}

func TestNotificationSettingsVariant(t *testing.T) {
	assert.NoError(t, DefaultStudentSettings().CheckVariant())
	assert.NoError(t, DefaultTeacherSettings().CheckVariant())

	// Discriminator says student but teacher branch populated.
	bad := &NotificationSettings{
		UserType: UserTypeStudent,
		Teacher:  &TeacherNotificationOptions{NewSubmissions: true},
	}
	assert.ErrorIs(t, bad.CheckVariant(), ErrSettingsVariantMismatch)

	// Both branches populated.
	bad = DefaultStudentSettings()
	bad.Teacher = &TeacherNotificationOptions{}
	assert.ErrorIs(t, bad.CheckVariant(), ErrSettingsVariantMismatch)

	// Unknown discriminator.
	assert.Error(t, (&NotificationSettings{UserType: "admin"}).CheckVariant())
}

func TestExamTimerRemaining(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	timer := &ExamTimer{StartedAt: start, DurationSeconds: 1800}

	assert.Equal(t, start.Add(30*time.Minute), timer.Deadline())
	assert.Equal(t, 10*time.Minute, timer.Remaining(start.Add(20*time.Minute)))
	assert.Equal(t, time.Duration(0), timer.Remaining(start.Add(time.Hour)))
}
