package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupLedgerServiceTest(t *testing.T) (*LedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.RewardAccount{},
		&models.PointsLogEntry{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewLedgerService(repository.NewLedgerRepository(db)), db
}

func TestLedgerAddAndDeductSnapshots(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)

	account, entry, err := svc.Add(LedgerChangeInput{
		UserID:    201,
		Points:    500,
		EntryType: models.PointsEntrySignup,
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if account.Balance != 500 {
		t.Fatalf("expected balance 500, got %d", account.Balance)
	}
	if entry.Points != 500 || entry.BalanceBefore != 0 || entry.BalanceAfter != 500 {
		t.Fatalf("unexpected credit entry snapshot: %+v", entry)
	}

	account, entry, err = svc.Add(LedgerChangeInput{
		UserID:    201,
		Points:    300,
		EntryType: models.PointsEntryReferral,
	})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if entry.BalanceBefore != 500 || entry.BalanceAfter != 800 {
		t.Fatalf("unexpected second credit snapshot: %+v", entry)
	}

	account, entry, err = svc.Deduct(LedgerChangeInput{
		UserID:    201,
		Points:    200,
		EntryType: models.PointsEntryRedemption,
	})
	if err != nil {
		t.Fatalf("deduct failed: %v", err)
	}
	if account.Balance != 600 {
		t.Fatalf("expected balance 600 after deduct, got %d", account.Balance)
	}
	if entry.Points != -200 || entry.BalanceBefore != 800 || entry.BalanceAfter != 600 {
		t.Fatalf("unexpected debit entry snapshot: %+v", entry)
	}

	var sum int64
	if err := db.Model(&models.PointsLogEntry{}).
		Where("user_id = ?", 201).
		Select("COALESCE(SUM(points), 0)").Scan(&sum).Error; err != nil {
		t.Fatalf("sum entries failed: %v", err)
	}
	if sum != account.Balance {
		t.Fatalf("entry sum %d does not match balance %d", sum, account.Balance)
	}
}

func TestLedgerDeductInsufficientBalance(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)

	_, _, err := svc.Deduct(LedgerChangeInput{
		UserID:    202,
		Points:    100,
		EntryType: models.PointsEntryRedemption,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	var count int64
	if err := db.Model(&models.PointsLogEntry{}).Where("user_id = ?", 202).Count(&count).Error; err != nil {
		t.Fatalf("count entries failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no entries after rollback, got %d", count)
	}
}

func TestLedgerRejectsInvalidInput(t *testing.T) {
	svc, _ := setupLedgerServiceTest(t)

	if _, _, err := svc.Add(LedgerChangeInput{
		UserID:    203,
		Points:    0,
		EntryType: models.PointsEntrySignup,
	}); !errors.Is(err, ErrInvalidPoints) {
		t.Fatalf("expected invalid points, got %v", err)
	}

	if _, _, err := svc.Add(LedgerChangeInput{
		UserID:    203,
		Points:    100,
		EntryType: "stocks",
	}); !errors.Is(err, ErrInvalidEntryType) {
		t.Fatalf("expected invalid entry type, got %v", err)
	}

	if _, _, err := svc.Add(LedgerChangeInput{
		Points:    100,
		EntryType: models.PointsEntrySignup,
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for zero user, got %v", err)
	}
}

func TestLedgerRecalculateBalance(t *testing.T) {
	svc, db := setupLedgerServiceTest(t)

	if _, _, err := svc.Add(LedgerChangeInput{
		UserID:    204,
		Points:    700,
		EntryType: models.PointsEntrySignup,
	}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, _, err := svc.Deduct(LedgerChangeInput{
		UserID:    204,
		Points:    150,
		EntryType: models.PointsEntryRedemption,
	}); err != nil {
		t.Fatalf("deduct failed: %v", err)
	}

	// 人为弄脏缓存余额，确认重算以流水为准
	if err := db.Model(&models.RewardAccount{}).
		Where("user_id = ?", 204).
		Update("balance", 9999).Error; err != nil {
		t.Fatalf("corrupt balance failed: %v", err)
	}

	balance, err := svc.RecalculateBalance(204)
	if err != nil {
		t.Fatalf("recalculate failed: %v", err)
	}
	if balance != 550 {
		t.Fatalf("expected recalculated balance 550, got %d", balance)
	}

	got, err := svc.Balance(204)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if got != 550 {
		t.Fatalf("expected persisted balance 550, got %d", got)
	}
}
