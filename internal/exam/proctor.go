package exam

import "github.com/hireflow/assess-backend/internal/model"

// DefaultViolationThreshold is the major-violation count that forces
// termination when a session config does not override it.
const DefaultViolationThreshold = 3

// criticalTerminateCount: two criticals always end the session.
const criticalTerminateCount = 2

// severityByType is the fixed classification table. Detection (camera, DOM
// events, vision service) lives entirely client-side or in external
// services; this package only grades what was reported.
var severityByType = map[model.ViolationType]model.Severity{
	model.ViolationTabSwitch:          model.SeverityMajor,
	model.ViolationWindowBlur:         model.SeverityMinor,
	model.ViolationFullscreenExit:     model.SeverityMajor,
	model.ViolationCopyPaste:          model.SeverityMajor,
	model.ViolationRightClick:         model.SeverityMinor,
	model.ViolationKeyboardShortcut:   model.SeverityMinor,
	model.ViolationMultipleFaces:      model.SeverityCritical,
	model.ViolationNoFaceDetected:     model.SeverityMajor,
	model.ViolationSuspiciousMovement: model.SeverityMajor,
	model.ViolationDevTools:           model.SeverityCritical,
}

// ClassifySeverity maps a violation type to its severity. Unknown kinds
// default to minor rather than erroring, so new client-side detectors can
// ship ahead of the backend.
func ClassifySeverity(t model.ViolationType) model.Severity {
	if sev, ok := severityByType[t]; ok {
		return sev
	}
	return model.SeverityMinor
}

// ProctorDecision is the monitor's verdict after one recorded violation.
// The monitor never mutates session status itself; the session state
// machine enforces the termination.
type ProctorDecision struct {
	Severity        model.Severity `json:"severity"`
	TotalViolations int            `json:"total_violations"`
	ShouldTerminate bool           `json:"should_terminate"`
}

// ShouldTerminate is evaluated after the new event has been counted, so the
// triggering violation itself contributes to the threshold.
func ShouldTerminate(criticalCount, majorCount, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultViolationThreshold
	}
	return criticalCount >= criticalTerminateCount || majorCount >= threshold
}
