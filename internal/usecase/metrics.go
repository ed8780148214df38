package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// PercentChange formats the change from previous to current as a rounded
// percentage. Halves round toward positive infinity. A zero previous value
// yields "+100%" when current grew, "0%" otherwise.
func PercentChange(current, previous int64) string {
	if previous == 0 {
		if current > 0 {
			return "+100%"
		}
		return "0%"
	}
	change := decimal.NewFromInt(current - previous).Mul(hundred).Div(decimal.NewFromInt(previous))
	return fmt.Sprintf("%d%%", change.Add(half).Floor().IntPart())
}

// ThreatRate is threats as a share of analyzed emails with one decimal
func ThreatRate(threats, analyzed int64) string {
	if analyzed == 0 {
		return "0%"
	}
	return decimal.NewFromInt(threats).Mul(hundred).Div(decimal.NewFromInt(analyzed)).StringFixed(1) + "%"
}
