package model

import "time"

// ViolationType enumerates proctoring anomaly kinds reported by the client
// capture layer. Unknown kinds are accepted and classified as minor.
type ViolationType string

const (
	ViolationTabSwitch          ViolationType = "TAB_SWITCH"
	ViolationWindowBlur         ViolationType = "WINDOW_BLUR"
	ViolationFullscreenExit     ViolationType = "FULLSCREEN_EXIT"
	ViolationCopyPaste          ViolationType = "COPY_PASTE"
	ViolationRightClick         ViolationType = "RIGHT_CLICK"
	ViolationKeyboardShortcut   ViolationType = "KEYBOARD_SHORTCUT"
	ViolationMultipleFaces      ViolationType = "MULTIPLE_FACES"
	ViolationNoFaceDetected     ViolationType = "NO_FACE_DETECTED"
	ViolationSuspiciousMovement ViolationType = "SUSPICIOUS_MOVEMENT"
	ViolationDevTools           ViolationType = "DEVELOPER_TOOLS"
)

// Severity grades a violation's weight toward forced termination.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
)

// ViolationEvent is one appended entry in a session's violation log.
// Events are never mutated or deleted once recorded.
type ViolationEvent struct {
	SessionID  string        `json:"session_id"`
	Type       ViolationType `json:"type"`
	Severity   Severity      `json:"severity"`
	Detail     string        `json:"detail,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// ViolationRequest is the client payload reporting a proctoring anomaly.
type ViolationRequest struct {
	Type   string `json:"type" binding:"required,max=50"`
	Detail string `json:"detail" binding:"max=1000"`
}
