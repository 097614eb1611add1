package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tryon/internal/domain"
	"tryon/internal/sqlinline"
)

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

// fakeSQL answers QueryRow with a scripted scan per statement.
type fakeSQL struct {
	rows     map[string]scanFunc
	gotArgs  map[string][]any
	execErr  error
	execSeen []string
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{rows: map[string]scanFunc{}, gotArgs: map[string][]any{}}
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execSeen = append(f.execSeen, query)
	return pgconn.NewCommandTag("CREATE TABLE"), f.execErr
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.gotArgs[query] = args
	if scan, ok := f.rows[query]; ok {
		return scan
	}
	return scanFunc(func(...any) error { return pgx.ErrNoRows })
}

func (f *fakeSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func subscriptionRow(userID, plan string, count int, date string) scanFunc {
	return func(dest ...any) error {
		*dest[0].(*string) = userID
		*dest[1].(*string) = plan
		*dest[2].(*int) = count
		*dest[3].(*string) = date
		return nil
	}
}

func TestGetByUserID(t *testing.T) {
	db := newFakeSQL()
	db.rows[sqlinline.QSelectSubscription] = subscriptionRow("u-1", "pro", 7, "2025-01-02")
	repo := NewSubscriptionRepository(db)

	sub, err := repo.GetByUserID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByUserID error: %v", err)
	}
	want := domain.Subscription{UserID: "u-1", Plan: domain.PlanPro, DailyUsageCount: 7, LastResetDate: "2025-01-02"}
	if *sub != want {
		t.Fatalf("GetByUserID = %+v, want %+v", *sub, want)
	}
	if args := db.gotArgs[sqlinline.QSelectSubscription]; len(args) != 1 || args[0] != "u-1" {
		t.Fatalf("unexpected args %#v", args)
	}
}

func TestGetByUserIDNotFound(t *testing.T) {
	repo := NewSubscriptionRepository(newFakeSQL())
	if _, err := repo.GetByUserID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByUserID error = %v, want ErrNotFound", err)
	}
}

func TestGetByUserIDWrapsDriverErrors(t *testing.T) {
	db := newFakeSQL()
	boom := errors.New("connection reset")
	db.rows[sqlinline.QSelectSubscription] = func(...any) error { return boom }
	repo := NewSubscriptionRepository(db)

	_, err := repo.GetByUserID(context.Background(), "u-1")
	if !errors.Is(err, boom) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByUserID error = %v", err)
	}
}

func TestConsumeDaily(t *testing.T) {
	tests := []struct {
		name        string
		scan        scanFunc
		wantCount   int
		wantApplied bool
		wantErr     bool
	}{
		{
			name:        "applied",
			scan:        func(dest ...any) error { *dest[0].(*int) = 3; return nil },
			wantCount:   3,
			wantApplied: true,
		},
		{
			name: "ceiling reached",
			scan: func(...any) error { return pgx.ErrNoRows },
		},
		{
			name:    "driver error",
			scan:    func(...any) error { return errors.New("timeout") },
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := newFakeSQL()
			db.rows[sqlinline.QConsumeDailyUsage] = tc.scan
			repo := NewSubscriptionRepository(db)

			count, applied, err := repo.ConsumeDaily(context.Background(), "u-1", "2025-01-02", 5)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ConsumeDaily error = %v, wantErr %v", err, tc.wantErr)
			}
			if count != tc.wantCount || applied != tc.wantApplied {
				t.Fatalf("ConsumeDaily = (%d, %v), want (%d, %v)", count, applied, tc.wantCount, tc.wantApplied)
			}
			args := db.gotArgs[sqlinline.QConsumeDailyUsage]
			if len(args) != 3 || args[0] != "u-1" || args[1] != "2025-01-02" || args[2] != 5 {
				t.Fatalf("unexpected args %#v", args)
			}
		})
	}
}

func TestSetPlan(t *testing.T) {
	db := newFakeSQL()
	db.rows[sqlinline.QUpsertSubscriptionPlan] = subscriptionRow("u-2", "ultra", 0, "2025-01-02")
	repo := NewSubscriptionRepository(db)

	sub, err := repo.SetPlan(context.Background(), "u-2", domain.PlanUltra, "2025-01-02", true)
	if err != nil {
		t.Fatalf("SetPlan error: %v", err)
	}
	if sub.Plan != domain.PlanUltra || sub.DailyUsageCount != 0 {
		t.Fatalf("SetPlan = %+v", sub)
	}
	args := db.gotArgs[sqlinline.QUpsertSubscriptionPlan]
	if len(args) != 4 || args[1] != "ultra" || args[3] != true {
		t.Fatalf("unexpected args %#v", args)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := newFakeSQL()
	repo := NewSubscriptionRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema error: %v", err)
	}
	if len(db.execSeen) != 1 || db.execSeen[0] != sqlinline.QCreateSubscribeTable {
		t.Fatalf("unexpected exec calls %#v", db.execSeen)
	}
}
