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

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam / attempt ────────────────────────────────────────────────
	ErrExamPassword    ErrCode = "INVALID_EXAM_PASSWORD"
	ErrDisqualified    ErrCode = "DISQUALIFIED"
	ErrNoQuestions     ErrCode = "NO_QUESTIONS"
	ErrRetakeBlocked   ErrCode = "RETAKE_NOT_ALLOWED"
	ErrAttemptActive   ErrCode = "ATTEMPT_ALREADY_ACTIVE"
	ErrNoActiveAttempt ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrQuestionBounds  ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrRenderFailed    ErrCode = "RENDER_FAILED"

	// ─── Identity ──────────────────────────────────────────────────────
	ErrIdentityFailed      ErrCode = "IDENTITY_VERIFICATION_FAILED"
	ErrIdentityUnavailable ErrCode = "IDENTITY_UNAVAILABLE"

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
		return "Invalid admission ID or password."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam / attempt ────────────────────────────────────────────────
	case ErrExamPassword:
		return "Incorrect exam password."
	case ErrDisqualified:
		return "You have been disqualified from this exam."
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrRetakeBlocked:
		return "This exam has been completed and retakes are not allowed."
	case ErrAttemptActive:
		return "You already have an attempt in progress."
	case ErrNoActiveAttempt:
		return "No attempt is currently in progress."
	case ErrQuestionBounds:
		return "Question number is out of range."
	case ErrRenderFailed:
		return "Failed to generate the question image."

	// ─── Identity ──────────────────────────────────────────────────────
	case ErrIdentityFailed:
		return "Identity verification failed."
	case ErrIdentityUnavailable:
		return "Identity verification is not available on this deployment."

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
