package domain

import "context"

// SubscriptionRepository defines access to subscription records.
type SubscriptionRepository interface {
	// GetByUserID returns ErrNotFound when the user has no record.
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)
	// ConsumeDaily increments today's usage in a single conditional write.
	// It reports applied=false when effective usage already reached ceiling
	// or the record no longer exists.
	ConsumeDaily(ctx context.Context, userID, today string, ceiling int) (count int, applied bool, err error)
	// SetPlan provisions or updates a record; resetUsage clears today's counter.
	SetPlan(ctx context.Context, userID string, plan Plan, today string, resetUsage bool) (*Subscription, error)
}
