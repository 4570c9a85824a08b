package exam

import "errors"

// Sentinel errors returned by the session state machine and selector.
// Handlers map these onto response.ErrCode values.
var (
	// ErrInvalidState: the operation is not legal from the session's
	// current status (e.g. answering a CREATED session).
	ErrInvalidState = errors.New("operation not allowed in current session state")

	// ErrAlreadyEvaluated: a second submit on an evaluated session. The
	// stored score block is unchanged.
	ErrAlreadyEvaluated = errors.New("session has already been evaluated")

	// ErrSessionExpired: the server clock discovered the deadline has
	// passed while applying a mutating operation. The triggering request
	// fails with this error, but the session is still force-submitted and
	// scored as a side effect.
	ErrSessionExpired = errors.New("session time has elapsed")

	// ErrQuestionOutOfRange: question number outside 1..N.
	ErrQuestionOutOfRange = errors.New("question number out of range")

	// ErrInsufficientPool: the eligible question pool cannot satisfy the
	// requested total even after the any-difficulty fallback draw. Fatal
	// to session creation.
	ErrInsufficientPool = errors.New("insufficient question pool")
)

// EligibilityError carries the first failing gate check. Non-retriable until
// the underlying condition changes.
type EligibilityError struct {
	Reason string
	// ActiveSessionID is set when the rejection is an already-open session,
	// so the client can resume it instead of creating a duplicate.
	ActiveSessionID string
}

func (e *EligibilityError) Error() string {
	return "not eligible: " + e.Reason
}
