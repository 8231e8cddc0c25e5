package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden            ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly    ErrCode = "STUDENT_ACCESS_ONLY"
	ErrInstructorAccessOnly ErrCode = "INSTRUCTOR_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Task & timer ──────────────────────────────────────────────────
	ErrTaskNotPublished     ErrCode = "TASK_NOT_PUBLISHED"
	ErrTaskAlreadyPublished ErrCode = "TASK_ALREADY_PUBLISHED"
	ErrTaskNotTimed         ErrCode = "TASK_NOT_TIMED"
	ErrTimerAlreadyStarted  ErrCode = "TIMER_ALREADY_STARTED"
	ErrTimerNotFound        ErrCode = "TIMER_NOT_FOUND"
	ErrTimerExpired         ErrCode = "TIMER_EXPIRED"

	// ─── Submission ────────────────────────────────────────────────────
	ErrSubmissionNotFound  ErrCode = "SUBMISSION_NOT_FOUND"
	ErrDuplicateSubmission ErrCode = "DUPLICATE_SUBMISSION"
	ErrMissingAnswer       ErrCode = "MISSING_ANSWER"
	ErrMissingFile         ErrCode = "MISSING_FILE"
	ErrPastDeadline        ErrCode = "PAST_DEADLINE"
	ErrSessionClosed       ErrCode = "SESSION_CLOSED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrInstructorAccessOnly:
		return "This resource is restricted to instructors."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Task & timer ──────────────────────────────────────────────────
	case ErrTaskNotPublished:
		return "This task has not been published."
	case ErrTaskAlreadyPublished:
		return "This task has already been published."
	case ErrTaskNotTimed:
		return "This task does not use a timer."
	case ErrTimerAlreadyStarted:
		return "The exam timer has already been started."
	case ErrTimerNotFound:
		return "No exam timer exists for this task."
	case ErrTimerExpired:
		return "The exam time has expired."

	// ─── Submission ────────────────────────────────────────────────────
	case ErrSubmissionNotFound:
		return "No submission exists for this task."
	case ErrDuplicateSubmission:
		return "A submission already exists for this task."
	case ErrMissingAnswer:
		return "One or more questions are missing an answer."
	case ErrMissingFile:
		return "A file is required for this task."
	case ErrPastDeadline:
		return "The due date has passed and late submissions are not accepted."
	case ErrSessionClosed:
		return "The exam session is closed and can no longer accept a submission."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
