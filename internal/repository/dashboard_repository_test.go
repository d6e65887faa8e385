package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/loyaltycore/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.PointsLogEntry{},
		&models.RewardAccount{},
		&models.Referral{},
		&models.ReferralCode{},
		&models.AmbassadorProfile{},
		&models.AmbassadorEarning{},
		&models.ReviewReward{},
	); err != nil {
		t.Fatalf("migrate dashboard models failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

func createDashboardUser(t *testing.T, db *gorm.DB, email string, createdAt time.Time) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		CreatedAt:    createdAt,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestGetOverviewAggregatesWindow(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()
	completedAt := now.Add(-time.Hour)

	referrer := createDashboardUser(t, db, "referrer@example.com", now.Add(-time.Hour))
	referee := createDashboardUser(t, db, "referee@example.com", now.Add(-time.Hour))

	orders := []*models.Order{
		{
			OrderNo:            "ORD-OVERVIEW-1",
			UserID:             referee.ID,
			Status:             models.OrderStatusCompleted,
			Currency:           "USD",
			TotalAmount:        models.NewMoneyFromDecimal(decimal.NewFromInt(120)),
			AttributionChannel: models.AttributionSession,
			CompletedAt:        &completedAt,
			CreatedAt:          now.Add(-2 * time.Hour),
		},
		{
			OrderNo:     "ORD-OVERVIEW-2",
			UserID:      referee.ID,
			Status:      models.OrderStatusRefunded,
			Currency:    "USD",
			TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			CreatedAt:   now.Add(-2 * time.Hour),
		},
		{
			// 窗口之外的订单不应计入
			OrderNo:     "ORD-OVERVIEW-OLD",
			UserID:      referee.ID,
			Status:      models.OrderStatusCompleted,
			Currency:    "USD",
			TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(999)),
			CreatedAt:   now.Add(-48 * time.Hour),
		},
	}
	for _, order := range orders {
		if err := db.Create(order).Error; err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	entries := []*models.PointsLogEntry{
		{UserID: referrer.ID, Points: 1000, EntryType: models.PointsEntryReferral, BalanceAfter: 1000, CreatedAt: now.Add(-time.Hour)},
		{UserID: referee.ID, Points: 100, EntryType: models.PointsEntrySignup, BalanceAfter: 100, CreatedAt: now.Add(-time.Hour)},
		{UserID: referee.ID, Points: -30, EntryType: models.PointsEntryRedemption, BalanceAfter: 70, CreatedAt: now.Add(-time.Hour)},
	}
	for _, entry := range entries {
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("create points entry failed: %v", err)
		}
	}

	referral := &models.Referral{
		ReferralCodeID: 1,
		ReferrerID:     referrer.ID,
		RefereeID:      referee.ID,
		PointsReferrer: 1000,
		PointsReferee:  1000,
		Status:         models.ReferralStatusCompleted,
		CompletedAt:    &completedAt,
		CreatedAt:      now.Add(-2 * time.Hour),
	}
	if err := db.Create(referral).Error; err != nil {
		t.Fatalf("create referral failed: %v", err)
	}

	row, err := repo.GetOverview(now.Add(-24*time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if row.OrdersTotal != 2 {
		t.Fatalf("orders total want 2 got %d", row.OrdersTotal)
	}
	if row.CompletedOrders != 1 {
		t.Fatalf("completed orders want 1 got %d", row.CompletedOrders)
	}
	if row.RefundedOrders != 1 {
		t.Fatalf("refunded orders want 1 got %d", row.RefundedOrders)
	}
	if row.AttributedOrders != 1 {
		t.Fatalf("attributed orders want 1 got %d", row.AttributedOrders)
	}
	if row.CompletedAmount != 120 {
		t.Fatalf("completed amount want 120 got %.2f", row.CompletedAmount)
	}
	if row.PointsIssued != 1100 {
		t.Fatalf("points issued want 1100 got %d", row.PointsIssued)
	}
	if row.PointsSpent != 30 {
		t.Fatalf("points spent want 30 got %d", row.PointsSpent)
	}
	if row.ReferralsCompleted != 1 {
		t.Fatalf("referrals completed want 1 got %d", row.ReferralsCompleted)
	}
	if row.NewUsers != 2 {
		t.Fatalf("new users want 2 got %d", row.NewUsers)
	}
	if row.Currency != "USD" {
		t.Fatalf("currency want USD got %q", row.Currency)
	}
}

func TestGetProgramStatsCountsLiability(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	active := createDashboardUser(t, db, "active@example.com", now)
	pending := createDashboardUser(t, db, "pending@example.com", now)

	profiles := []*models.AmbassadorProfile{
		{UserID: active.ID, Status: models.AmbassadorStatusActive, AppliedAt: now},
		{UserID: pending.ID, Status: models.AmbassadorStatusPending, AppliedAt: now},
	}
	for _, profile := range profiles {
		if err := db.Create(profile).Error; err != nil {
			t.Fatalf("create profile failed: %v", err)
		}
	}

	review := &models.ReviewReward{
		UserID:    active.ID,
		Platform:  "trustpilot",
		ReviewRef: "rv-1",
		Status:    models.ReviewStatusPending,
	}
	if err := db.Create(review).Error; err != nil {
		t.Fatalf("create review reward failed: %v", err)
	}

	accounts := []*models.RewardAccount{
		{UserID: active.ID, Balance: 2300},
		{UserID: pending.ID, Balance: 0},
	}
	for _, account := range accounts {
		if err := db.Create(account).Error; err != nil {
			t.Fatalf("create reward account failed: %v", err)
		}
	}

	row, err := repo.GetProgramStats()
	if err != nil {
		t.Fatalf("get program stats failed: %v", err)
	}
	if row.ActiveAmbassadors != 1 {
		t.Fatalf("active ambassadors want 1 got %d", row.ActiveAmbassadors)
	}
	if row.PendingAmbassadors != 1 {
		t.Fatalf("pending ambassadors want 1 got %d", row.PendingAmbassadors)
	}
	if row.PendingReviews != 1 {
		t.Fatalf("pending reviews want 1 got %d", row.PendingReviews)
	}
	if row.PointsLiability != 2300 {
		t.Fatalf("points liability want 2300 got %d", row.PointsLiability)
	}
}

func TestGetTopReferrersRanksByCount(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()
	completedAt := now.Add(-time.Hour)

	alice := createDashboardUser(t, db, "alice@example.com", now)
	bob := createDashboardUser(t, db, "bob@example.com", now)

	refereeID := uint(100)
	makeReferral := func(referrerID uint, points int64) *models.Referral {
		refereeID++
		return &models.Referral{
			ReferralCodeID: 1,
			ReferrerID:     referrerID,
			RefereeID:      refereeID,
			PointsReferrer: points,
			Status:         models.ReferralStatusCompleted,
			CompletedAt:    &completedAt,
			CreatedAt:      now.Add(-2 * time.Hour),
		}
	}
	referrals := []*models.Referral{
		makeReferral(alice.ID, 1000),
		makeReferral(alice.ID, 1000),
		makeReferral(bob.ID, 1000),
	}
	for _, referral := range referrals {
		if err := db.Create(referral).Error; err != nil {
			t.Fatalf("create referral failed: %v", err)
		}
	}

	rows, err := repo.GetTopReferrers(now.Add(-24*time.Hour), now.Add(time.Hour), 5)
	if err != nil {
		t.Fatalf("get top referrers failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows len want 2 got %d", len(rows))
	}
	if rows[0].ReferrerID != alice.ID {
		t.Fatalf("top referrer want %d got %d", alice.ID, rows[0].ReferrerID)
	}
	if rows[0].ReferralCount != 2 {
		t.Fatalf("top referral count want 2 got %d", rows[0].ReferralCount)
	}
	if rows[0].PointsReferrer != 2000 {
		t.Fatalf("top referrer points want 2000 got %d", rows[0].PointsReferrer)
	}
	if rows[0].ReferrerEmail != "alice@example.com" {
		t.Fatalf("top referrer email want alice@example.com got %q", rows[0].ReferrerEmail)
	}
}

func TestGetTopAmbassadorsRanksByCommission(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	now := time.Now()

	alice := createDashboardUser(t, db, "amb-alice@example.com", now)
	bob := createDashboardUser(t, db, "amb-bob@example.com", now)

	profiles := []*models.AmbassadorProfile{
		{UserID: alice.ID, Status: models.AmbassadorStatusActive, AppliedAt: now},
		{UserID: bob.ID, Status: models.AmbassadorStatusActive, AppliedAt: now},
	}
	for _, profile := range profiles {
		if err := db.Create(profile).Error; err != nil {
			t.Fatalf("create profile failed: %v", err)
		}
	}

	earnings := []*models.AmbassadorEarning{
		{
			AmbassadorID:     profiles[0].ID,
			OrderID:          1,
			OrderNo:          "ORD-E1",
			CommissionAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(12)),
			PointsAwarded:    1200,
			CreatedAt:        now.Add(-time.Hour),
		},
		{
			AmbassadorID:     profiles[0].ID,
			OrderID:          2,
			OrderNo:          "ORD-E2",
			CommissionAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(6)),
			PointsAwarded:    600,
			CreatedAt:        now.Add(-time.Hour),
		},
		{
			AmbassadorID:     profiles[1].ID,
			OrderID:          3,
			OrderNo:          "ORD-E3",
			CommissionAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(9)),
			PointsAwarded:    900,
			CreatedAt:        now.Add(-time.Hour),
		},
	}
	for _, earning := range earnings {
		if err := db.Create(earning).Error; err != nil {
			t.Fatalf("create earning failed: %v", err)
		}
	}

	rows, err := repo.GetTopAmbassadors(now.Add(-24*time.Hour), now.Add(time.Hour), 5)
	if err != nil {
		t.Fatalf("get top ambassadors failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows len want 2 got %d", len(rows))
	}
	if rows[0].UserID != alice.ID {
		t.Fatalf("top ambassador user want %d got %d", alice.ID, rows[0].UserID)
	}
	if rows[0].OrderCount != 2 {
		t.Fatalf("top ambassador order count want 2 got %d", rows[0].OrderCount)
	}
	if rows[0].CommissionAmount != 18 {
		t.Fatalf("top ambassador commission want 18 got %.2f", rows[0].CommissionAmount)
	}
	if rows[0].PointsAwarded != 1800 {
		t.Fatalf("top ambassador points want 1800 got %d", rows[0].PointsAwarded)
	}
	if rows[0].UserEmail != "amb-alice@example.com" {
		t.Fatalf("top ambassador email want amb-alice@example.com got %q", rows[0].UserEmail)
	}
}
