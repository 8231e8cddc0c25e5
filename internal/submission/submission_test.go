package submission

import (
	"testing"
	"time"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var due = time.Date(2024, 1, 10, 23, 59, 0, 0, time.UTC)

func structuredTask(qCount int) *model.Task {
	t := &model.Task{
		ID:           uuid.New(),
		Type:         model.TaskTypeAssignment,
		Title:        "Essay questions",
		DueAt:        due,
		AllowLate:    true,
		LatePolicy:   model.LatePolicyAcceptWithPenalty,
		AnswerFormat: model.AnswerFormatStructured,
	}
	for i := 0; i < qCount; i++ {
		t.Questions = append(t.Questions, model.Question{ID: uuid.New(), TaskID: t.ID, OrderNum: i + 1})
	}
	return t
}

func fileTask() *model.Task {
	return &model.Task{
		ID:           uuid.New(),
		Type:         model.TaskTypeAssignment,
		Title:        "Upload report",
		DueAt:        due,
		AllowLate:    false,
		LatePolicy:   model.LatePolicyNone,
		AnswerFormat: model.AnswerFormatFile,
	}
}

func TestValidateAggregatesMissingAnswersInOrder(t *testing.T) {
	task := structuredTask(3)
	q1, q2, q3 := task.Questions[0].ID, task.Questions[1].ID, task.Questions[2].ID

	draft := Draft{Answers: map[uuid.UUID]string{q1: "x", q3: "y"}}
	issues := Validate(task, false, draft, due.Add(-time.Hour))

	require.Len(t, issues, 1)
	assert.Equal(t, IssueMissingAnswer, issues[0].Code)
	assert.Equal(t, q2, issues[0].QuestionID)

	// K of N answered yields exactly N−K failures, in question order.
	issues = Validate(task, false, Draft{}, due.Add(-time.Hour))
	require.Len(t, issues, 3)
	assert.Equal(t, q1, issues[0].QuestionID)
	assert.Equal(t, q2, issues[1].QuestionID)
	assert.Equal(t, q3, issues[2].QuestionID)
}

func TestValidateWhitespaceAnswerIsMissing(t *testing.T) {
	task := structuredTask(1)
	draft := Draft{Answers: map[uuid.UUID]string{task.Questions[0].ID: "   "}}
	issues := Validate(task, false, draft, due.Add(-time.Hour))
	require.Len(t, issues, 1)
	assert.Equal(t, IssueMissingAnswer, issues[0].Code)
}

func TestValidateFileRequired(t *testing.T) {
	task := fileTask()

	issues := Validate(task, false, Draft{}, due.Add(-time.Hour))
	require.Len(t, issues, 1)
	assert.Equal(t, IssueMissingFile, issues[0].Code)

	empty := ""
	issues = Validate(task, false, Draft{FileURL: &empty}, due.Add(-time.Hour))
	require.Len(t, issues, 1)
	assert.Equal(t, IssueMissingFile, issues[0].Code)

	url := "https://files.example.com/report.pdf"
	issues = Validate(task, false, Draft{FileURL: &url}, due.Add(-time.Hour))
	assert.Empty(t, issues)
}

func TestValidateSessionClosedTakesPrecedence(t *testing.T) {
	limit := 60
	task := structuredTask(2)
	task.Type = model.TaskTypeExam
	task.AllowLate = false
	task.LatePolicy = ""
	task.HasTimer = true
	task.TimeLimitMinutes = &limit

	// Even with every field missing, a closed session yields exactly
	// one SESSION_CLOSED issue.
	issues := Validate(task, true, Draft{}, due.Add(time.Hour))
	require.Len(t, issues, 1)
	assert.Equal(t, IssueSessionClosed, issues[0].Code)
}

func TestValidatePastDeadlineBlocksWhenLateNotAllowed(t *testing.T) {
	task := fileTask()
	url := "https://files.example.com/report.pdf"

	issues := Validate(task, false, Draft{FileURL: &url}, due.Add(time.Minute))
	require.Len(t, issues, 1)
	assert.Equal(t, IssuePastDeadline, issues[0].Code)
}

func TestValidateLateAllowedPasses(t *testing.T) {
	task := structuredTask(1)
	draft := Draft{Answers: map[uuid.UUID]string{task.Questions[0].ID: "late but fine"}}
	issues := Validate(task, false, draft, due.Add(48*time.Hour))
	assert.Empty(t, issues)
}

func TestBuildLateFlag(t *testing.T) {
	task := structuredTask(1)
	student := uuid.New()
	draft := Draft{Answers: map[uuid.UUID]string{task.Questions[0].ID: "answer"}}

	// Submitted on 2024-01-12 against a 2024-01-10 due date with
	// allow_late set.
	p := Build(task, student, draft, time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, model.SubmissionStatusLate, p.Status)

	p = Build(task, student, draft, due.Add(-time.Hour))
	assert.Equal(t, model.SubmissionStatusSubmitted, p.Status)
}

func TestBuildMapsAnswersInQuestionOrder(t *testing.T) {
	task := structuredTask(3)
	draft := Draft{Answers: map[uuid.UUID]string{
		task.Questions[2].ID: "third",
		task.Questions[0].ID: "first",
		task.Questions[1].ID: "second",
	}}

	p := Build(task, uuid.New(), draft, due.Add(-time.Hour))
	require.Len(t, p.Answers, 3)
	assert.Equal(t, "first", p.Answers[0].AnswerText)
	assert.Equal(t, "second", p.Answers[1].AnswerText)
	assert.Equal(t, "third", p.Answers[2].AnswerText)
	for i, a := range p.Answers {
		assert.Equal(t, task.Questions[i].ID, a.QuestionID)
	}
}

func TestBuildFilePayload(t *testing.T) {
	task := fileTask()
	url := "https://files.example.com/report.pdf"

	p := Build(task, uuid.New(), Draft{FileURL: &url}, due.Add(-time.Hour))
	require.NotNil(t, p.FileURL)
	assert.Equal(t, url, *p.FileURL)
	assert.Empty(t, p.Answers)
}

func TestIsLate(t *testing.T) {
	task := fileTask()
	assert.False(t, IsLate(task, due))
	assert.False(t, IsLate(task, due.Add(-time.Second)))
	assert.True(t, IsLate(task, due.Add(time.Second)))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Issues: []Issue{{Code: IssueMissingFile}, {Code: IssuePastDeadline}}}
	assert.Equal(t, "submission rejected: MISSING_FILE, PAST_DEADLINE", err.Error())
}
