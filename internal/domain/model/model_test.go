package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArray_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want StringArray
	}{
		{name: "simple", src: "{read,write}", want: StringArray{"read", "write"}},
		{name: "bytes", src: []byte("{admin}"), want: StringArray{"admin"}},
		{name: "quoted with comma", src: `{"a,b",c}`, want: StringArray{"a,b", "c"}},
		{name: "escaped quote", src: `{"say \"hi\""}`, want: StringArray{`say "hi"`}},
		{name: "empty", src: "{}", want: StringArray{}},
		{name: "null", src: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringArray
			require.NoError(t, got.Scan(tt.src))
			assert.Equal(t, tt.want, got)
		})
	}

	var bad StringArray
	assert.Error(t, bad.Scan("read,write"))
	assert.Error(t, bad.Scan(42))
}

func TestStringArray_Value(t *testing.T) {
	v, err := StringArray{"read", `x"y`}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"read","x\"y"}`, v)

	v, err = StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestSubscription_SetSeatPricing(t *testing.T) {
	sub := &Subscription{}
	sub.SetSeatPricing(3, decimal.RequireFromString("12.50"))
	assert.Equal(t, 3, sub.Seats)
	assert.True(t, sub.TotalPrice.Equal(decimal.RequireFromString("37.50")))

	sub.SetSeatPricing(0, decimal.RequireFromString("9"))
	assert.Equal(t, 1, sub.Seats)
}

func TestSubscription_ClearScheduledChange(t *testing.T) {
	plan, schedule, when := "Solo", "sub_sched_1", time.Now()
	sub := &Subscription{ScheduledPlanChange: &plan, StripeScheduleID: &schedule, ScheduledChangeDate: &when}

	sub.ClearScheduledChange()
	assert.Nil(t, sub.ScheduledPlanChange)
	assert.Nil(t, sub.ScheduledChangeDate)
	assert.Nil(t, sub.StripeScheduleID)
}

func TestAPIKey_Usable(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	assert.True(t, (&APIKey{IsActive: true}).Usable(now))
	assert.True(t, (&APIKey{IsActive: true, ExpiresAt: &future}).Usable(now))
	assert.False(t, (&APIKey{IsActive: true, ExpiresAt: &past}).Usable(now))
	assert.False(t, (&APIKey{IsActive: false}).Usable(now))
}

func TestSubscriptionStatus_Scan(t *testing.T) {
	var s SubscriptionStatus
	require.NoError(t, s.Scan([]byte("past_due")))
	assert.Equal(t, SubscriptionStatusPastDue, s)
	require.NoError(t, s.Scan(nil))
	assert.Equal(t, SubscriptionStatusExpired, s)
}
