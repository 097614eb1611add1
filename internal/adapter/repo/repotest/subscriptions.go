// Package repotest provides an in-memory subscription repository for tests
// of packages that sit above the database.
package repotest

import (
	"context"
	"sync"

	"tryon/internal/domain"
)

// Subscriptions is an in-process domain.SubscriptionRepository with the same
// conditional-update semantics as the Postgres one. Writes counts successful
// mutations.
type Subscriptions struct {
	mu     sync.Mutex
	rows   map[string]domain.Subscription
	Writes int
}

func NewSubscriptions(subs ...domain.Subscription) *Subscriptions {
	m := &Subscriptions{rows: make(map[string]domain.Subscription, len(subs))}
	for _, s := range subs {
		m.rows[s.UserID] = s
	}
	return m
}

func (m *Subscriptions) GetByUserID(_ context.Context, userID string) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sub, nil
}

func (m *Subscriptions) ConsumeDaily(_ context.Context, userID, today string, ceiling int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[userID]
	if !ok || sub.EffectiveUsage(today) >= ceiling {
		return 0, false, nil
	}
	sub.DailyUsageCount = sub.EffectiveUsage(today) + 1
	sub.LastResetDate = today
	m.rows[userID] = sub
	m.Writes++
	return sub.DailyUsageCount, true, nil
}

func (m *Subscriptions) SetPlan(_ context.Context, userID string, plan domain.Plan, today string, resetUsage bool) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[userID]
	if !ok {
		sub = domain.Subscription{UserID: userID, LastResetDate: today}
	}
	sub.Plan = plan
	if resetUsage {
		sub.DailyUsageCount = 0
		sub.LastResetDate = today
	}
	m.rows[userID] = sub
	m.Writes++
	return &sub, nil
}

// Snapshot returns a copy of the stored record.
func (m *Subscriptions) Snapshot(userID string) (domain.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.rows[userID]
	return sub, ok
}

var _ domain.SubscriptionRepository = (*Subscriptions)(nil)
