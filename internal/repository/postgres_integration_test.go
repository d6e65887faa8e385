//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/loyaltycore/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.AmbassadorEarning{},
		&models.AmbassadorProfile{},
		&models.Referral{},
		&models.ReferralCode{},
		&models.PointsLogEntry{},
		&models.RewardAccount{},
		&models.Order{},
		&models.User{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.ReferralCode{},
		&models.Referral{},
		&models.PointsLogEntry{},
		&models.RewardAccount{},
		&models.AmbassadorProfile{},
		&models.AmbassadorEarning{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresKeywordSearchRepositories(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	user := &models.User{
		Email:        "pg-rocket@example.com",
		PasswordHash: "x",
		DisplayName:  "Rocket Booster",
		Status:       "active",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	userRepo := NewUserRepository(db)

	// ILIKE 应忽略大小写
	rows, total, err := userRepo.List(UserListFilter{Page: 1, Keyword: "ROCKET"})
	if err != nil {
		t.Fatalf("user list search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("user list search want 1 got total=%d len=%d", total, len(rows))
	}

	profile := &models.AmbassadorProfile{
		UserID:    user.ID,
		Status:    models.AmbassadorStatusActive,
		AppliedAt: time.Now(),
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create ambassador profile failed: %v", err)
	}

	ambassadorRepo := NewAmbassadorRepository(db)
	profiles, profileTotal, err := ambassadorRepo.ListProfiles(AmbassadorListFilter{Page: 1, Keyword: "booster"})
	if err != nil {
		t.Fatalf("ambassador list search failed: %v", err)
	}
	if profileTotal != 1 || len(profiles) != 1 {
		t.Fatalf("ambassador list search want 1 got total=%d len=%d", profileTotal, len(profiles))
	}
}

func TestPostgresDashboardQueries(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDashboardRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	completedAt := now.Add(-time.Minute)

	user := &models.User{
		Email:        "pg-dashboard@example.com",
		PasswordHash: "x",
		Status:       "active",
		CreatedAt:    now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	order := &models.Order{
		OrderNo:     "PG-ORDER-001",
		UserID:      user.ID,
		Status:      models.OrderStatusCompleted,
		Currency:    "USD",
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(120)),
		CompletedAt: &completedAt,
		CreatedAt:   now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	entries := []*models.PointsLogEntry{
		{UserID: user.ID, Points: 1000, EntryType: models.PointsEntryReferral, BalanceAfter: 1000, CreatedAt: now},
		{UserID: user.ID, Points: -200, EntryType: models.PointsEntryRedemption, BalanceAfter: 800, CreatedAt: now},
	}
	for _, entry := range entries {
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("create points entry failed: %v", err)
		}
	}

	startAt := now.Add(-time.Hour)
	endAt := now.Add(time.Hour)

	overview, err := repo.GetOverview(startAt, endAt)
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if overview.CompletedOrders != 1 {
		t.Fatalf("completed orders want 1 got %d", overview.CompletedOrders)
	}
	if overview.PointsIssued != 1000 || overview.PointsSpent != 200 {
		t.Fatalf("points want 1000/200 got %d/%d", overview.PointsIssued, overview.PointsSpent)
	}

	orderTrends, err := repo.GetOrderTrends(startAt, endAt)
	if err != nil {
		t.Fatalf("get order trends failed: %v", err)
	}
	if len(orderTrends) == 0 {
		t.Fatalf("order trends should not be empty")
	}
	if strings.TrimSpace(orderTrends[0].Day) == "" {
		t.Fatalf("order trend day should not be empty")
	}

	pointsTrends, err := repo.GetPointsTrends(startAt, endAt)
	if err != nil {
		t.Fatalf("get points trends failed: %v", err)
	}
	if len(pointsTrends) == 0 {
		t.Fatalf("points trends should not be empty")
	}
	if pointsTrends[0].PointsIssued != 1000 {
		t.Fatalf("points trend issued want 1000 got %d", pointsTrends[0].PointsIssued)
	}
}
