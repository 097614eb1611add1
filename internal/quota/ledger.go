// Package quota enforces the per-plan daily ceiling on try-on requests.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tryon/internal/domain"
	"tryon/internal/observability/metrics"
	"tryon/internal/observability/tracing"
)

// Usage is a snapshot of a user's quota for the current UTC day.
type Usage struct {
	Plan      domain.Plan
	Used      int
	Limit     int
	Remaining int
	Date      string
}

// Ledger reads subscription records and charges one unit per call. The
// charge is a single conditional write, so concurrent requests from one user
// can never exceed the ceiling.
type Ledger struct {
	repo    domain.SubscriptionRepository
	now     func() time.Time
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

type Option func(*Ledger)

// WithClock overrides time.Now, used to pin "today" in tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

func NewLedger(repo domain.SubscriptionRepository, logger zerolog.Logger, opts ...Option) *Ledger {
	l := &Ledger{repo: repo, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndIncrement charges one try-on against userID's daily ceiling.
func (l *Ledger) CheckAndIncrement(ctx context.Context, userID string) (usage Usage, err error) {
	ctx, span := tracing.Start(ctx, "quota.check_and_increment")
	defer func() { tracing.End(span, err) }()

	sub, limit, err := l.load(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	today := domain.Today(l.now())
	used := sub.EffectiveUsage(today)
	if used >= limit {
		l.metrics.QuotaDecision(string(sub.Plan), "exceeded")
		l.logger.Info().Str("user_id", userID).Str("plan", string(sub.Plan)).Int("used", used).Int("limit", limit).Msg("daily quota exceeded")
		return Usage{}, exceeded()
	}

	count, applied, err := l.repo.ConsumeDaily(ctx, userID, today, limit)
	if err != nil {
		l.metrics.QuotaDecision(string(sub.Plan), "error")
		return Usage{}, domain.NewError(domain.KindStorageFailure, "failed to record usage", err)
	}
	if !applied {
		// Another request took the last unit between the read and the write.
		l.metrics.QuotaDecision(string(sub.Plan), "exceeded")
		l.logger.Info().Str("user_id", userID).Str("plan", string(sub.Plan)).Msg("daily quota exhausted by concurrent request")
		return Usage{}, exceeded()
	}

	l.metrics.QuotaDecision(string(sub.Plan), "granted")
	return Usage{Plan: sub.Plan, Used: count, Limit: limit, Remaining: limit - count, Date: today}, nil
}

// Status reports today's usage without charging.
func (l *Ledger) Status(ctx context.Context, userID string) (Usage, error) {
	sub, limit, err := l.load(ctx, userID)
	if err != nil {
		return Usage{}, err
	}
	today := domain.Today(l.now())
	used := sub.EffectiveUsage(today)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Usage{Plan: sub.Plan, Used: used, Limit: limit, Remaining: remaining, Date: today}, nil
}

func (l *Ledger) load(ctx context.Context, userID string) (*domain.Subscription, int, error) {
	sub, err := l.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.metrics.QuotaDecision("", "not_found")
			return nil, 0, domain.NewError(domain.KindNotFound, "subscription not found", err)
		}
		l.metrics.QuotaDecision("", "error")
		return nil, 0, domain.NewError(domain.KindStorageFailure, "failed to read subscription", err)
	}
	limit, ok := sub.Plan.DailyLimit()
	if !ok {
		l.metrics.QuotaDecision(string(sub.Plan), "invalid_plan")
		l.logger.Error().Str("user_id", userID).Str("plan", string(sub.Plan)).Msg("subscription has unknown plan")
		return nil, 0, domain.NewError(domain.KindInvalidPlan, "invalid plan", fmt.Errorf("unknown plan %q", sub.Plan))
	}
	return sub, limit, nil
}

func exceeded() error {
	return domain.NewError(domain.KindQuotaExceeded, "daily try-on limit reached", nil)
}
