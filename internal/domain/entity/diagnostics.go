package entity

import "time"

// UI states shown for a subscription
const (
	UIStateActive           = "active"
	UIStateActiveEndingSoon = "active, ending soon"
	UIStateExpired          = "expired"
)

// ExpectedUIState derives the state the dashboard should show for a
// subscription from its cancel flag and period end.
func ExpectedUIState(cancelAtPeriodEnd bool, periodEnd time.Time, now time.Time) string {
	if !cancelAtPeriodEnd {
		return UIStateActive
	}
	if now.Before(periodEnd) {
		return UIStateActiveEndingSoon
	}
	return UIStateExpired
}

// DaysRemaining counts whole or partial days left until periodEnd, never negative
func DaysRemaining(periodEnd time.Time, now time.Time) int {
	left := periodEnd.Sub(now)
	if left <= 0 {
		return 0
	}
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// PeriodState is the derived part of the subscription diagnostics
type PeriodState struct {
	PeriodActive    bool   `json:"periodActive"`
	DaysRemaining   int    `json:"daysRemaining"`
	ExpectedUIState string `json:"expectedUIState"`
}

// DerivePeriodState computes the diagnostic fields for one subscription view
func DerivePeriodState(cancelAtPeriodEnd bool, periodEnd time.Time, now time.Time) PeriodState {
	return PeriodState{
		PeriodActive:    now.Before(periodEnd),
		DaysRemaining:   DaysRemaining(periodEnd, now),
		ExpectedUIState: ExpectedUIState(cancelAtPeriodEnd, periodEnd, now),
	}
}
