package entity

// Plan names as stored in subscriptions.plan_name
const (
	PlanFree         = "Free"
	PlanSolo         = "Solo"
	PlanEntrepreneur = "Entrepreneur"
	PlanTeam         = "Team"
)

// Entitlements are the feature flags derived from an account's plan
type Entitlements struct {
	HasReportsAccess           bool   `json:"hasReportsAccess"`
	HasSecurityAnalyticsAccess bool   `json:"hasSecurityAnalyticsAccess"`
	HasAPIAccess               bool   `json:"hasApiAccess"`
	PlanName                   string `json:"planName"`
	IsFreePlan                 bool   `json:"isFreePlan"`
}

// Capabilities is one row of the plan table
type Capabilities struct {
	Reports   bool
	Analytics bool
	API       bool
}

// planCapabilities is the static plan to capability table. Plans not listed
// resolve to no capabilities.
var planCapabilities = map[string]Capabilities{
	PlanFree:         {Reports: true, Analytics: true, API: true},
	PlanSolo:         {},
	PlanEntrepreneur: {Analytics: true},
	PlanTeam:         {Reports: true, Analytics: true, API: true},
}

// CapabilitiesFor looks up a plan in the capability table
func CapabilitiesFor(planName string) Capabilities {
	return planCapabilities[planName]
}

// EntitlementsForPlan builds the entitlement record for a plan name
func EntitlementsForPlan(planName string) *Entitlements {
	caps := CapabilitiesFor(planName)
	return &Entitlements{
		HasReportsAccess:           caps.Reports,
		HasSecurityAnalyticsAccess: caps.Analytics,
		HasAPIAccess:               caps.API,
		PlanName:                   planName,
		IsFreePlan:                 planName == PlanFree,
	}
}

// MissingSubscriptionPolicy decides the entitlements of an account that has
// no active subscription row.
type MissingSubscriptionPolicy int

const (
	// AllowAll treats the account as Free with every feature enabled.
	AllowAll MissingSubscriptionPolicy = iota
	// DenyAll treats the account as Free with every feature disabled.
	DenyAll
)

// NoSubscriptionPolicy is the policy applied in production.
const NoSubscriptionPolicy = AllowAll

// Entitlements returns the record for an account without a subscription
func (p MissingSubscriptionPolicy) Entitlements() *Entitlements {
	if p == DenyAll {
		return &Entitlements{PlanName: PlanFree, IsFreePlan: true}
	}
	return &Entitlements{
		HasReportsAccess:           true,
		HasSecurityAnalyticsAccess: true,
		HasAPIAccess:               true,
		PlanName:                   PlanFree,
		IsFreePlan:                 true,
	}
}
