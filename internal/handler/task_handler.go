package handler

import (
	"errors"
	"net/http"

	"github.com/campora/taskgate-backend/internal/model"
	"github.com/campora/taskgate-backend/internal/response"
	"github.com/campora/taskgate-backend/internal/service"
	"github.com/campora/taskgate-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TaskHandler handles instructor-side task authoring and grading.
type TaskHandler struct {
	taskService       *service.TaskService
	submissionService *service.SubmissionService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService, submissionService *service.SubmissionService) *TaskHandler {
	return &TaskHandler{taskService: taskService, submissionService: submissionService}
}

// CreateTask godoc
// POST /api/v1/instructor/tasks
// Creates an unpublished task.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req model.CreateTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), &req)
	if err != nil {
		if invariantViolation(err) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"task": err.Error()})
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"task": task})
}

// GetTask godoc
// GET /api/v1/instructor/tasks/:task_id
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// ListTasks godoc
// GET /api/v1/instructor/courses/:course_id/tasks
// Returns all of a course's tasks, drafts included.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	tasks, err := h.taskService.ListByCourse(c.Request.Context(), courseID, false)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	response.Success(c, http.StatusOK, gin.H{"tasks": tasks})
}

// UpdateTask godoc
// PUT /api/v1/instructor/tasks/:task_id
// Updates an unpublished task. Published tasks are immutable.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateTaskRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), taskID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTaskAlreadyPublished):
			response.Fail(c, http.StatusConflict, response.ErrTaskAlreadyPublished)
		case invariantViolation(err):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"task": err.Error()})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// PublishTask godoc
// POST /api/v1/instructor/tasks/:task_id/publish
// Makes the task visible to students. One-way.
func (h *TaskHandler) PublishTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	task, err := h.taskService.Publish(c.Request.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTaskAlreadyPublished):
			response.Fail(c, http.StatusConflict, response.ErrTaskAlreadyPublished)
		case invariantViolation(err):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"task": err.Error()})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"task": task})
}

// DeleteTask godoc
// DELETE /api/v1/instructor/tasks/:task_id
// Removes an unpublished task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), taskID); err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrTaskAlreadyPublished):
			response.Fail(c, http.StatusConflict, response.ErrTaskAlreadyPublished)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ListSubmissions godoc
// GET /api/v1/instructor/tasks/:task_id/submissions
func (h *TaskHandler) ListSubmissions(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	subs, err := h.submissionService.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}

	response.Success(c, http.StatusOK, gin.H{"submissions": subs})
}

// SetFeedback godoc
// PUT /api/v1/instructor/tasks/:task_id/submissions/:student_id/feedback
// Records a grade and feedback on a submission.
func (h *TaskHandler) SetFeedback(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	studentID, err := uuid.Parse(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.FeedbackRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.submissionService.SetFeedback(c.Request.Context(), taskID, studentID, &req); err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSubmissionNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// invariantViolation reports whether err is one of the task cross-field
// rule violations.
func invariantViolation(err error) bool {
	return errors.Is(err, model.ErrTimedExamNeedsLimit) ||
		errors.Is(err, model.ErrTimeLimitOnExamOnly) ||
		errors.Is(err, model.ErrLatePolicyOnExam) ||
		errors.Is(err, model.ErrQuestionsNeedFormat) ||
		errors.Is(err, model.ErrStructuredNeedsItems)
}
