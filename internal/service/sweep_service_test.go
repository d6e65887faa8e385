package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupSweepServiceTest(t *testing.T, setting RewardSetting) (*SweepService, *LedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:sweep_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.AmbassadorProfile{},
		&models.AmbassadorEarning{},
		&models.RewardAccount{},
		&models.PointsLogEntry{},
		&models.RewardClaim{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	ledgerService := NewLedgerService(repository.NewLedgerRepository(db))
	svc := NewSweepService(
		repository.NewAmbassadorRepository(db),
		repository.NewRewardClaimRepository(db),
		ledgerService,
		newRewardSettingService(t, setting),
		nil,
	)
	return svc, ledgerService, db
}

func createActiveAmbassador(t *testing.T, db *gorm.DB, userID uint, reviewedAt time.Time) *models.AmbassadorProfile {
	t.Helper()
	profile := &models.AmbassadorProfile{
		UserID:     userID,
		Status:     models.AmbassadorStatusActive,
		AppliedAt:  reviewedAt.Add(-24 * time.Hour),
		ReviewedAt: &reviewedAt,
		CreatedAt:  reviewedAt.Add(-24 * time.Hour),
		UpdatedAt:  reviewedAt,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create ambassador profile failed: %v", err)
	}
	return profile
}

func createAmbassadorEarning(t *testing.T, db *gorm.DB, ambassadorID, orderID uint, total int64, createdAt time.Time) {
	t.Helper()
	earning := &models.AmbassadorEarning{
		AmbassadorID:  ambassadorID,
		OrderID:       orderID,
		OrderNo:       fmt.Sprintf("ORD-SWEEP-%d", orderID),
		OrderTotal:    models.NewMoneyFromDecimal(decimal.NewFromInt(total)),
		PointsAwarded: 1,
		CreatedAt:     createdAt,
	}
	if err := db.Create(earning).Error; err != nil {
		t.Fatalf("create earning failed: %v", err)
	}
}

func TestRunMonthlyBonusCreditsAboveThreshold(t *testing.T) {
	svc, ledgerService, db := setupSweepServiceTest(t, RewardDefaultSetting())
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	qualified := createActiveAmbassador(t, db, 501, now.AddDate(0, -6, 0))
	createAmbassadorEarning(t, db, qualified.ID, 9001, 800, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC))
	createAmbassadorEarning(t, db, qualified.ID, 9002, 400, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC))

	short := createActiveAmbassador(t, db, 502, now.AddDate(0, -6, 0))
	createAmbassadorEarning(t, db, short.ID, 9003, 300, time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC))

	// 业绩落在窗口之外的不计入
	createAmbassadorEarning(t, db, short.ID, 9004, 5000, time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC))

	if err := svc.RunMonthlyBonus(now); err != nil {
		t.Fatalf("run monthly bonus failed: %v", err)
	}

	balance, err := ledgerService.Balance(501)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 1000 {
		t.Fatalf("expected bonus 1000 for qualified ambassador, got %d", balance)
	}
	balance, err = ledgerService.Balance(502)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected no bonus below threshold, got %d", balance)
	}

	var claim models.RewardClaim
	if err := db.Where("user_id = ? AND reward_type = ?", 501, constants.RewardTypeBonus).
		First(&claim).Error; err != nil {
		t.Fatalf("load bonus claim failed: %v", err)
	}
	if claim.ClaimKey != "bonus:2026-02" {
		t.Fatalf("unexpected bonus claim key: %s", claim.ClaimKey)
	}

	// 重跑同一月份不重复发放
	if err := svc.RunMonthlyBonus(now); err != nil {
		t.Fatalf("rerun monthly bonus failed: %v", err)
	}
	balance, err = ledgerService.Balance(501)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 1000 {
		t.Fatalf("expected balance unchanged after rerun, got %d", balance)
	}
}

func TestRunInactivityPenaltyDeductsOnce(t *testing.T) {
	svc, ledgerService, db := setupSweepServiceTest(t, RewardDefaultSetting())
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	createActiveAmbassador(t, db, 503, now.AddDate(0, -4, 0))
	creditTestPoints(t, ledgerService, 503, 999)

	active := createActiveAmbassador(t, db, 504, now.AddDate(0, -6, 0))
	createAmbassadorEarning(t, db, active.ID, 9101, 100, now.AddDate(0, -1, 0))
	creditTestPoints(t, ledgerService, 504, 500)

	if err := svc.RunInactivityPenalty(now); err != nil {
		t.Fatalf("run inactivity penalty failed: %v", err)
	}

	balance, err := ledgerService.Balance(503)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 900 {
		t.Fatalf("expected 10%% penalty floor leaving 900, got %d", balance)
	}
	balance, err = ledgerService.Balance(504)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 500 {
		t.Fatalf("expected recently active ambassador untouched, got %d", balance)
	}

	var claim models.RewardClaim
	if err := db.Where("user_id = ? AND reward_type = ?", 503, constants.RewardTypePenalty).
		First(&claim).Error; err != nil {
		t.Fatalf("load penalty claim failed: %v", err)
	}
	if claim.ClaimKey != "penalty:2026-03" {
		t.Fatalf("unexpected penalty claim key: %s", claim.ClaimKey)
	}
	if claim.PointsAwarded != 99 {
		t.Fatalf("expected penalty 99 points, got %d", claim.PointsAwarded)
	}

	// 同月重跑不再扣减
	if err := svc.RunInactivityPenalty(now); err != nil {
		t.Fatalf("rerun inactivity penalty failed: %v", err)
	}
	balance, err = ledgerService.Balance(503)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 900 {
		t.Fatalf("expected balance unchanged after rerun, got %d", balance)
	}
}

func TestRunInactivityPenaltySkipsZeroBalance(t *testing.T) {
	svc, _, db := setupSweepServiceTest(t, RewardDefaultSetting())
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	createActiveAmbassador(t, db, 505, now.AddDate(0, -12, 0))

	if err := svc.RunInactivityPenalty(now); err != nil {
		t.Fatalf("run inactivity penalty failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.RewardClaim{}).
		Where("user_id = ? AND reward_type = ?", 505, constants.RewardTypePenalty).
		Count(&count).Error; err != nil {
		t.Fatalf("count penalty claims failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no penalty claim for zero balance, got %d", count)
	}
}
