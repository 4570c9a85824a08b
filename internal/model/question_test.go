package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidStatusChange(t *testing.T) {
	tests := []struct {
		name string
		from QuestionStatus
		to   QuestionStatus
		want bool
	}{
		{name: "draft approved", from: QuestionStatusDraft, to: QuestionStatusApproved, want: true},
		{name: "approved retired", from: QuestionStatusApproved, to: QuestionStatusRetired, want: true},
		{name: "draft retired", from: QuestionStatusDraft, to: QuestionStatusRetired, want: false},
		{name: "approved draft", from: QuestionStatusApproved, to: QuestionStatusDraft, want: true},
		{name: "retired retired", from: QuestionStatusRetired, to: QuestionStatusRetired, want: true},
		{name: "retired approved", from: QuestionStatusRetired, to: QuestionStatusApproved, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ValidStatusChange(tc.from, tc.to))
		})
	}
}
