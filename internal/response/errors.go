package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam delivery ─────────────────────────────────────────────────
	ErrExamNotAvailable     ErrCode = "EXAM_NOT_AVAILABLE"
	ErrInvalidEntryPassword ErrCode = "INVALID_ENTRY_PASSWORD"
	ErrNoQuestions          ErrCode = "NO_QUESTIONS"
	ErrNotExamAuthor        ErrCode = "NOT_EXAM_AUTHOR"

	// ─── Attempts ──────────────────────────────────────────────────────
	ErrAttemptActive      ErrCode = "ATTEMPT_ALREADY_ACTIVE"
	ErrNoActiveAttempt    ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrAlreadySubmitted   ErrCode = "ATTEMPT_ALREADY_SUBMITTED"
	ErrConfirmRequired    ErrCode = "CONFIRMATION_REQUIRED"
	ErrPositionOutOfRange ErrCode = "POSITION_OUT_OF_RANGE"
	ErrSubmissionFailed   ErrCode = "SUBMISSION_FAILED"
	ErrProctorUnavailable ErrCode = "PROCTOR_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Username or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
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
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam delivery ─────────────────────────────────────────────────
	case ErrExamNotAvailable:
		return "This exam is not currently available."
	case ErrInvalidEntryPassword:
		return "The exam entry password is incorrect."
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrNotExamAuthor:
		return "You are not the author of this exam."

	// ─── Attempts ──────────────────────────────────────────────────────
	case ErrAttemptActive:
		return "Another exam session is already active."
	case ErrNoActiveAttempt:
		return "You have no active exam session."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrConfirmRequired:
		return "Submission must be confirmed."
	case ErrPositionOutOfRange:
		return "The requested question does not exist."
	case ErrSubmissionFailed:
		return "Submission failed. Please try again."
	case ErrProctorUnavailable:
		return "The proctoring service is unavailable."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
