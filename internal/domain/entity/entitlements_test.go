package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitlementsForPlan(t *testing.T) {
	tests := []struct {
		plan      string
		reports   bool
		analytics bool
		api       bool
		free      bool
	}{
		{plan: PlanFree, reports: true, analytics: true, api: true, free: true},
		{plan: PlanSolo},
		{plan: PlanEntrepreneur, analytics: true},
		{plan: PlanTeam, reports: true, analytics: true, api: true},
		{plan: "Enterprise"},
		{plan: ""},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			got := EntitlementsForPlan(tt.plan)
			assert.Equal(t, tt.reports, got.HasReportsAccess)
			assert.Equal(t, tt.analytics, got.HasSecurityAnalyticsAccess)
			assert.Equal(t, tt.api, got.HasAPIAccess)
			assert.Equal(t, tt.free, got.IsFreePlan)
			assert.Equal(t, tt.plan, got.PlanName)
		})
	}
}

func TestMissingSubscriptionPolicy(t *testing.T) {
	allow := AllowAll.Entitlements()
	assert.Equal(t, &Entitlements{
		HasReportsAccess:           true,
		HasSecurityAnalyticsAccess: true,
		HasAPIAccess:               true,
		PlanName:                   PlanFree,
		IsFreePlan:                 true,
	}, allow)

	deny := DenyAll.Entitlements()
	assert.False(t, deny.HasReportsAccess)
	assert.False(t, deny.HasSecurityAnalyticsAccess)
	assert.False(t, deny.HasAPIAccess)
	assert.True(t, deny.IsFreePlan)

	assert.Equal(t, AllowAll, NoSubscriptionPolicy)
}

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{"admin satisfies write", []string{PermissionAdmin}, PermissionWrite, true},
		{"admin satisfies unknown", []string{PermissionAdmin}, "billing", true},
		{"exact read", []string{PermissionRead}, PermissionRead, true},
		{"write implies read", []string{PermissionWrite}, PermissionRead, true},
		{"read does not imply write", []string{PermissionRead}, PermissionWrite, false},
		{"write does not imply admin", []string{PermissionWrite}, PermissionAdmin, false},
		{"empty", nil, PermissionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.granted, tt.required))
		})
	}
}

func TestThreatPoint_Add(t *testing.T) {
	var p ThreatPoint
	p.Add(ThreatCritical, 2)
	p.Add(ThreatLow, 3)
	p.Add("unknown", 10)
	assert.Equal(t, int64(2), p.Critical)
	assert.Equal(t, int64(3), p.Low)
	assert.Equal(t, int64(5), p.Total())
}

func TestHashAPIKey(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashAPIKey("abc"))
	assert.Len(t, HashAPIKey("msk_live_abc123"), 64)
}
