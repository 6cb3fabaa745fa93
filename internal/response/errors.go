package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "LOGIN_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "LOGIN_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrUnauthorized       ErrCode = "UNAUTHORIZED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Quiz session ──────────────────────────────────────────────────
	ErrNoActiveSession       ErrCode = "NO_ACTIVE_SESSION"
	ErrAlreadySubmitted      ErrCode = "ALREADY_SUBMITTED"
	ErrAlreadyFinished       ErrCode = "ALREADY_FINISHED"
	ErrSequenceMismatch      ErrCode = "SEQUENCE_MISMATCH"
	ErrSessionTerminated     ErrCode = "SESSION_TERMINATED"
	ErrQuestionPoolExhausted ErrCode = "QUESTION_POOL_EXHAUSTED"
	ErrStorageConflict       ErrCode = "STORAGE_CONFLICT"
	ErrStorageUnavailable    ErrCode = "STORAGE_UNAVAILABLE"

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
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your login has expired. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrUnauthorized:
		return "Authentication is required."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Quiz session ──────────────────────────────────────────────────
	case ErrNoActiveSession:
		return "You have no quiz session in progress."
	case ErrAlreadySubmitted:
		return "You have already submitted the quiz."
	case ErrAlreadyFinished:
		return "This quiz session has already finished."
	case ErrSequenceMismatch:
		return "This is not the current question. Please reload it."
	case ErrSessionTerminated:
		return "Your quiz session was terminated for proctoring violations."
	case ErrQuestionPoolExhausted:
		return "Not enough questions are available to start a quiz."
	case ErrStorageConflict:
		return "A concurrent update won. Please retry."
	case ErrStorageUnavailable:
		return "Storage is temporarily unavailable. Please retry."

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
