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

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden           ErrCode = "FORBIDDEN"
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Assessment-specific ───────────────────────────────────────────
	ErrNotEligible          ErrCode = "NOT_ELIGIBLE"
	ErrInsufficientPool     ErrCode = "INSUFFICIENT_QUESTION_POOL"
	ErrInvalidSessionState  ErrCode = "INVALID_SESSION_STATE"
	ErrSessionExpired       ErrCode = "SESSION_EXPIRED"
	ErrQuestionOutOfRange   ErrCode = "QUESTION_OUT_OF_RANGE"
	ErrQuestionNotApproved  ErrCode = "QUESTION_NOT_APPROVED"
	ErrAnswerAfterEvaluated ErrCode = "SESSION_ALREADY_EVALUATED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid candidate ID or access code."
	case ErrSessionActive:
		return "You are already logged in on another device."
	case ErrSessionInvalidated:
		return "Your login has been reset. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrCandidateAccessOnly:
		return "This resource is restricted to candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."

	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	case ErrNotEligible:
		return "You are not currently eligible to start a new test."
	case ErrInsufficientPool:
		return "Not enough approved questions are available to build a test."
	case ErrInvalidSessionState:
		return "This operation is not allowed in the session's current state."
	case ErrSessionExpired:
		return "The test time has elapsed. The session has been submitted."
	case ErrQuestionOutOfRange:
		return "The question number does not exist in this session."
	case ErrQuestionNotApproved:
		return "The question is not in an approved state."
	case ErrAnswerAfterEvaluated:
		return "The session has already been evaluated."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
