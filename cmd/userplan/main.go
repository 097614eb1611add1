package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"tryon/internal/adapter/repo"
	"tryon/internal/domain"
	"tryon/internal/infra"
)

func main() {
	var (
		userFlag    string
		planFlag    string
		keepUsage   bool
		migrateFlag bool
	)

	flag.StringVar(&userFlag, "user", "", "user ID to provision (UUID)")
	flag.StringVar(&planFlag, "plan", "free", "plan to assign (free, pro, ultra)")
	flag.BoolVar(&keepUsage, "keep-usage", false, "preserve today's usage instead of resetting it to 0")
	flag.BoolVar(&migrateFlag, "migrate", false, "create the subscribe table if it does not exist")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: dbURL})
	if err != nil {
		exitWithError(err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	subscriptions := repo.NewSubscriptionRepository(infra.NewSQLRunner(pool, logger))

	if migrateFlag {
		if err := subscriptions.EnsureSchema(ctx); err != nil {
			exitWithError(fmt.Errorf("failed to create subscribe table: %w", err))
		}
		fmt.Println("subscribe table ready")
		if strings.TrimSpace(userFlag) == "" {
			return
		}
	}

	userID, err := uuid.Parse(strings.TrimSpace(userFlag))
	if err != nil {
		exitWithError(fmt.Errorf("-user must be a UUID: %w", err))
	}
	plan, ok := domain.ParsePlan(planFlag)
	if !ok {
		exitWithError(fmt.Errorf("unsupported plan %q", planFlag))
	}

	sub, err := subscriptions.SetPlan(ctx, userID.String(), plan, domain.Today(time.Now()), !keepUsage)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update subscription: %w", err))
	}
	limit, _ := sub.Plan.DailyLimit()

	fmt.Printf("User %s updated to plan %s\n", sub.UserID, sub.Plan)
	fmt.Printf("daily_limit=%d\n", limit)
	fmt.Printf("daily_usage_count=%d\n", sub.DailyUsageCount)
	fmt.Printf("last_reset_date=%s\n", sub.LastResetDate)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
