package exam

import (
	"fmt"
	"math"
	"time"

	"github.com/hireflow/assess-backend/internal/model"
)

// EligibilityPolicy is the config slice the gate needs.
type EligibilityPolicy struct {
	MaxAttempts   int
	CooldownHours int
}

// Rejection reasons, surfaced verbatim to the caller.
const (
	ReasonBlocked       = "temporarily blocked"
	ReasonQualified     = "already qualified"
	ReasonMaxAttempts   = "maximum attempts reached"
	ReasonActiveSession = "active session exists"
)

// CheckEligibility decides whether a candidate may start a new session.
//
// Checks run in fixed priority order; the first failing check's reason is
// returned: block, qualified, attempt cap, cooldown, open session. The
// activeSessionID argument is the id of any session for this candidate in a
// non-terminal state, or empty.
func CheckEligibility(rec model.AttemptRecord, activeSessionID string, pol EligibilityPolicy, now time.Time) *EligibilityError {
	if rec.BlockedUntil != nil && rec.BlockedUntil.After(now) {
		return &EligibilityError{Reason: ReasonBlocked}
	}

	// One qualifying pass ends testing eligibility permanently, even a
	// retake for a better score is rejected.
	if rec.HasQualified {
		return &EligibilityError{Reason: ReasonQualified}
	}

	if rec.TotalAttempts >= pol.MaxAttempts {
		return &EligibilityError{Reason: ReasonMaxAttempts}
	}

	if rec.TotalAttempts > 0 && rec.LastAttemptAt != nil {
		elapsed := now.Sub(*rec.LastAttemptAt)
		cooldown := time.Duration(pol.CooldownHours) * time.Hour
		if elapsed < cooldown {
			waitHours := int(math.Ceil((cooldown - elapsed).Hours()))
			return &EligibilityError{
				Reason: fmt.Sprintf("please wait %d hour(s) before your next attempt", waitHours),
			}
		}
	}

	if activeSessionID != "" {
		return &EligibilityError{
			Reason:          ReasonActiveSession,
			ActiveSessionID: activeSessionID,
		}
	}

	return nil
}
