package exam

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hireflow/assess-backend/internal/model"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		vtype model.ViolationType
		want  model.Severity
	}{
		{model.ViolationTabSwitch, model.SeverityMajor},
		{model.ViolationWindowBlur, model.SeverityMinor},
		{model.ViolationFullscreenExit, model.SeverityMajor},
		{model.ViolationCopyPaste, model.SeverityMajor},
		{model.ViolationRightClick, model.SeverityMinor},
		{model.ViolationKeyboardShortcut, model.SeverityMinor},
		{model.ViolationMultipleFaces, model.SeverityCritical},
		{model.ViolationNoFaceDetected, model.SeverityMajor},
		{model.ViolationSuspiciousMovement, model.SeverityMajor},
		{model.ViolationDevTools, model.SeverityCritical},
		{model.ViolationType("SOMETHING_NEW"), model.SeverityMinor},
	}

	for _, tc := range tests {
		require.Equal(t, tc.want, ClassifySeverity(tc.vtype), "type %s", tc.vtype)
	}
}

func TestShouldTerminate(t *testing.T) {
	tests := []struct {
		name      string
		critical  int
		major     int
		threshold int
		want      bool
	}{
		{"clean", 0, 0, 3, false},
		{"one critical", 1, 0, 3, false},
		{"two criticals", 2, 0, 3, true},
		{"majors below threshold", 0, 2, 3, false},
		{"majors at threshold", 0, 3, 3, true},
		{"custom threshold", 0, 2, 2, true},
		{"zero threshold falls back to default", 0, 2, 0, false},
		{"zero threshold default reached", 0, 3, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ShouldTerminate(tc.critical, tc.major, tc.threshold))
		})
	}
}
