package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// SubscriptionRepositoryPG implements domain.SubscriptionRepository against
// the Supabase "subscribe" table.
type SubscriptionRepositoryPG struct {
	db infra.SQLExecutor
}

// NewSubscriptionRepository wraps a marker-aware executor, normally an
// *infra.SQLRunner around the pgx pool.
func NewSubscriptionRepository(db infra.SQLExecutor) *SubscriptionRepositoryPG {
	return &SubscriptionRepositoryPG{db: db}
}

// GetByUserID returns domain.ErrNotFound when the user has no row.
func (r *SubscriptionRepositoryPG) GetByUserID(ctx context.Context, userID string) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSelectSubscription, userID)
	sub, err := scanSubscription(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	return sub, nil
}

// ConsumeDaily charges one unit for today when effective usage is below
// ceiling. applied is false when the row is missing or already at the cap,
// including when a concurrent request took the last unit.
func (r *SubscriptionRepositoryPG) ConsumeDaily(ctx context.Context, userID, today string, ceiling int) (int, bool, error) {
	var count int
	err := r.db.QueryRow(ctx, sqlinline.QConsumeDailyUsage, userID, today, ceiling).Scan(&count)
	if err != nil {
		if infra.IsNoRows(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("consume daily usage: %w", err)
	}
	return count, true, nil
}

func (r *SubscriptionRepositoryPG) SetPlan(ctx context.Context, userID string, plan domain.Plan, today string, resetUsage bool) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx, sqlinline.QUpsertSubscriptionPlan, userID, string(plan), today, resetUsage)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("upsert subscription plan: %w", err)
	}
	return sub, nil
}

// EnsureSchema creates the subscribe table when it does not exist.
func (r *SubscriptionRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, sqlinline.QCreateSubscribeTable); err != nil {
		return fmt.Errorf("create subscribe table: %w", err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var (
		sub  domain.Subscription
		plan string
	)
	if err := row.Scan(&sub.UserID, &plan, &sub.DailyUsageCount, &sub.LastResetDate); err != nil {
		return nil, err
	}
	sub.Plan = domain.Plan(plan)
	return &sub, nil
}

var _ domain.SubscriptionRepository = (*SubscriptionRepositoryPG)(nil)
