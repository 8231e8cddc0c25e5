package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/campora/taskgate-backend/internal/middleware"
	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/response"
	"github.com/campora/taskgate-backend/internal/service"
	"github.com/campora/taskgate-backend/internal/submission"
	"github.com/campora/taskgate-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StudentPortalHandler handles student-facing endpoints: task browsing,
// exam timers, drafts, and submissions.
type StudentPortalHandler struct {
	taskService       *service.TaskService
	timerService      *service.TimerService
	submissionService *service.SubmissionService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	taskService *service.TaskService,
	timerService *service.TimerService,
	submissionService *service.SubmissionService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		taskService:       taskService,
		timerService:      timerService,
		submissionService: submissionService,
	}
}

// ListTasks godoc
// GET /api/v1/student/courses/:course_id/tasks
// Returns the published tasks of a course.
func (h *StudentPortalHandler) ListTasks(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	tasks, err := h.taskService.ListByCourse(c.Request.Context(), courseID, true)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

// GetTask godoc
// GET /api/v1/student/tasks/:task_id
// Returns one published task, questions included.
func (h *StudentPortalHandler) GetTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	task, err := h.taskService.GetPublished(c.Request.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTaskNotPublished):
			response.Fail(c, http.StatusForbidden, response.ErrTaskNotPublished)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// StartTimer godoc
// POST /api/v1/student/tasks/:task_id/timer
// Begins the exam attempt. Starting twice returns 409; the first start
// keeps counting.
func (h *StudentPortalHandler) StartTimer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	timer, err := h.timerService.Start(c.Request.Context(), taskID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTimerAlreadyExists):
			response.Fail(c, http.StatusConflict, response.ErrTimerAlreadyStarted)
		case errors.Is(err, service.ErrTaskNotTimed):
			response.Fail(c, http.StatusBadRequest, response.ErrTaskNotTimed)
		case errors.Is(err, service.ErrTaskNotPublished):
			response.Fail(c, http.StatusForbidden, response.ErrTaskNotPublished)
		case errors.Is(err, service.ErrTimerNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"timer": timer})
}

// GetTimer godoc
// GET /api/v1/student/tasks/:task_id/timer
// Returns the authoritative remaining time in HH:MM:SS. Clients use
// this to seed and resync their local countdown.
func (h *StudentPortalHandler) GetTimer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.timerService.Remaining(c.Request.Context(), taskID, claims.UserID, time.Now())
	if err != nil {
		if errors.Is(err, service.ErrTimerNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrTimerNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetSubmission godoc
// GET /api/v1/student/tasks/:task_id/submission
// Returns the student's submission for the task, grade included once
// the instructor has recorded one.
func (h *StudentPortalHandler) GetSubmission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sub, err := h.submissionService.Get(c.Request.Context(), taskID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSubmissionNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, sub)
}

// CreateSubmission godoc
// POST /api/v1/student/tasks/:task_id/submission
// Validates and records the submission. Validation failures come back
// all at once in the fields map; a repeat submit returns 409 and the
// first submission stands.
func (h *StudentPortalHandler) CreateSubmission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.submissionService.Create(c.Request.Context(), taskID, claims.UserID, &req)
	if err != nil {
		var valErr *submission.ValidationError
		switch {
		case errors.As(err, &valErr):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, issueFields(valErr))
		case errors.Is(err, service.ErrDuplicateSubmission):
			response.Fail(c, http.StatusConflict, response.ErrDuplicateSubmission)
		case errors.Is(err, service.ErrSessionNotStarted):
			response.Fail(c, http.StatusBadRequest, response.ErrTimerNotFound)
		case errors.Is(err, service.ErrTaskNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTaskNotPublished):
			response.Fail(c, http.StatusForbidden, response.ErrTaskNotPublished)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, sub)
}

// SaveDraft godoc
// PUT /api/v1/student/tasks/:task_id/draft
// Autosaves draft answers. Drafts survive session expiry read-only, so
// students keep their work even when time runs out.
func (h *StudentPortalHandler) SaveDraft(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveDraftRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.submissionService.SaveDraft(c.Request.Context(), taskID, claims.UserID, &req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetDraft godoc
// GET /api/v1/student/tasks/:task_id/draft
// Returns the saved draft answers.
func (h *StudentPortalHandler) GetDraft(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.submissionService.GetDraft(c.Request.Context(), taskID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answers": answers})
}

// issueFields flattens validation issues into the envelope's fields
// map: question-scoped issues key on the question id, the rest on
// "submission".
func issueFields(valErr *submission.ValidationError) map[string]string {
	fields := make(map[string]string, len(valErr.Issues))
	for _, issue := range valErr.Issues {
		if issue.QuestionID != uuid.Nil {
			fields[issue.QuestionID.String()] = string(issue.Code)
		} else {
			fields["submission"] = string(issue.Code)
		}
	}
	return fields
}
