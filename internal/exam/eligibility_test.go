package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hireflow/assess-backend/internal/model"
)

var gateNow = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

var defaultPolicy = EligibilityPolicy{MaxAttempts: 5, CooldownHours: 24}

func timePtr(t time.Time) *time.Time { return &t }

func TestCheckEligibility(t *testing.T) {
	tests := []struct {
		name      string
		record    model.AttemptRecord
		activeID  string
		wantAllow bool
		wantWords string
	}{
		{
			name:      "fresh candidate",
			record:    model.AttemptRecord{},
			wantAllow: true,
		},
		{
			name:      "blocked",
			record:    model.AttemptRecord{BlockedUntil: timePtr(gateNow.Add(2 * time.Hour))},
			wantWords: ReasonBlocked,
		},
		{
			name:      "block elapsed",
			record:    model.AttemptRecord{BlockedUntil: timePtr(gateNow.Add(-time.Minute))},
			wantAllow: true,
		},
		{
			name:      "already qualified",
			record:    model.AttemptRecord{HasQualified: true},
			wantWords: ReasonQualified,
		},
		{
			name:      "maximum attempts reached",
			record:    model.AttemptRecord{TotalAttempts: 5, LastAttemptAt: timePtr(gateNow.Add(-48 * time.Hour))},
			wantWords: ReasonMaxAttempts,
		},
		{
			name:      "cooldown active",
			record:    model.AttemptRecord{TotalAttempts: 1, LastAttemptAt: timePtr(gateNow.Add(-2 * time.Hour))},
			wantWords: "22 hour(s)",
		},
		{
			name:      "cooldown elapsed",
			record:    model.AttemptRecord{TotalAttempts: 1, LastAttemptAt: timePtr(gateNow.Add(-25 * time.Hour))},
			wantAllow: true,
		},
		{
			name:      "active session exists",
			record:    model.AttemptRecord{TotalAttempts: 1, LastAttemptAt: timePtr(gateNow.Add(-48 * time.Hour))},
			activeID:  "K7PMQ2WXN4RT",
			wantWords: ReasonActiveSession,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckEligibility(tc.record, tc.activeID, defaultPolicy, gateNow)
			if tc.wantAllow {
				require.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			require.Contains(t, err.Reason, tc.wantWords)
		})
	}
}

func TestCheckEligibility_PriorityOrder(t *testing.T) {
	// A record matching every rejection at once: the block wins.
	record := model.AttemptRecord{
		TotalAttempts: 9,
		LastAttemptAt: timePtr(gateNow.Add(-time.Hour)),
		HasQualified:  true,
		BlockedUntil:  timePtr(gateNow.Add(time.Hour)),
	}

	err := CheckEligibility(record, "SOMEACTIVEID", defaultPolicy, gateNow)
	require.NotNil(t, err)
	require.Equal(t, ReasonBlocked, err.Reason)

	// Without the block, qualification wins over the attempt cap.
	record.BlockedUntil = nil
	err = CheckEligibility(record, "SOMEACTIVEID", defaultPolicy, gateNow)
	require.NotNil(t, err)
	require.Equal(t, ReasonQualified, err.Reason)

	// Then the cap, then the cooldown, then the open session.
	record.HasQualified = false
	err = CheckEligibility(record, "SOMEACTIVEID", defaultPolicy, gateNow)
	require.NotNil(t, err)
	require.Equal(t, ReasonMaxAttempts, err.Reason)

	record.TotalAttempts = 1
	err = CheckEligibility(record, "SOMEACTIVEID", defaultPolicy, gateNow)
	require.NotNil(t, err)
	require.Contains(t, err.Reason, "hour(s)")

	record.LastAttemptAt = timePtr(gateNow.Add(-30 * time.Hour))
	err = CheckEligibility(record, "SOMEACTIVEID", defaultPolicy, gateNow)
	require.NotNil(t, err)
	require.Equal(t, ReasonActiveSession, err.Reason)
	require.Equal(t, "SOMEACTIVEID", err.ActiveSessionID)
}

func TestCheckEligibility_CooldownCeiling(t *testing.T) {
	// 23h30m since last attempt with a 24h cooldown: ceil(0.5h) = 1 hour.
	record := model.AttemptRecord{
		TotalAttempts: 2,
		LastAttemptAt: timePtr(gateNow.Add(-23*time.Hour - 30*time.Minute)),
	}

	err := CheckEligibility(record, "", defaultPolicy, gateNow)
	require.NotNil(t, err)
	require.Contains(t, err.Reason, "1 hour(s)")
}
