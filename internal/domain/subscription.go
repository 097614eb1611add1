package domain

import (
	"strings"
	"time"
)

// Plan enumerates subscription tiers.
type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanUltra Plan = "ultra"
)

// PlanLimits maps each plan to its daily try-on ceiling.
var PlanLimits = map[Plan]int{
	PlanFree:  5,
	PlanPro:   50,
	PlanUltra: 1000,
}

// DateLayout is the ISO calendar date stored in last_reset_date.
const DateLayout = "2006-01-02"

// DailyLimit returns the ceiling for the plan and whether the plan is known.
func (p Plan) DailyLimit() (int, bool) {
	limit, ok := PlanLimits[p]
	return limit, ok
}

// ParsePlan normalizes free-form input into a known plan.
func ParsePlan(s string) (Plan, bool) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	_, ok := PlanLimits[p]
	return p, ok
}

// Subscription is the persisted per-user quota record.
type Subscription struct {
	UserID          string
	Plan            Plan
	DailyUsageCount int
	LastResetDate   string
}

// EffectiveUsage applies the day-rollover rule: usage recorded on a date other
// than today counts as zero.
func (s Subscription) EffectiveUsage(today string) int {
	if s.LastResetDate == today {
		return s.DailyUsageCount
	}
	return 0
}

// Today formats t as a UTC calendar date.
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Identity is the authenticated caller as returned by the auth collaborator.
type Identity struct {
	UserID string
	Email  string
	Role   string
}
