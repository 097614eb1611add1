package repotest

import (
	"context"
	"errors"
	"testing"

	"tryon/internal/domain"
)

func TestConsumeDailyMatchesConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	subs := NewSubscriptions(domain.Subscription{UserID: "u", Plan: domain.PlanFree, DailyUsageCount: 4, LastResetDate: "2025-03-10"})

	count, applied, err := subs.ConsumeDaily(ctx, "u", "2025-03-10", 5)
	if err != nil || !applied || count != 5 {
		t.Fatalf("ConsumeDaily = %d, %v, %v; want 5, true, nil", count, applied, err)
	}
	if _, applied, _ := subs.ConsumeDaily(ctx, "u", "2025-03-10", 5); applied {
		t.Fatalf("consumed past the ceiling")
	}
	count, applied, _ = subs.ConsumeDaily(ctx, "u", "2025-03-11", 5)
	if !applied || count != 1 {
		t.Fatalf("rollover ConsumeDaily = %d, %v; want 1, true", count, applied)
	}
	if _, applied, _ := subs.ConsumeDaily(ctx, "missing", "2025-03-11", 5); applied {
		t.Fatalf("consumed for a missing record")
	}
	if subs.Writes != 2 {
		t.Fatalf("Writes = %d, want 2", subs.Writes)
	}
	if _, err := subs.GetByUserID(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByUserID error = %v, want ErrNotFound", err)
	}
}
