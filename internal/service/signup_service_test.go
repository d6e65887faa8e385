package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// newRewardSettingService 构造预置积分体系配置的设置服务，供各服务测试共用
func newRewardSettingService(t *testing.T, setting RewardSetting) *SettingService {
	t.Helper()
	svc := NewSettingService(newMockSettingRepo())
	if _, err := svc.UpdateRewardSetting(setting); err != nil {
		t.Fatalf("seed reward setting failed: %v", err)
	}
	return svc
}

func setupSignupServiceTest(t *testing.T, setting RewardSetting) (*SignupService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:signup_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.RewardAccount{},
		&models.PointsLogEntry{},
		&models.RewardClaim{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	ledgerService := NewLedgerService(repository.NewLedgerRepository(db))
	settingService := newRewardSettingService(t, setting)
	return NewSignupService(repository.NewRewardClaimRepository(db), ledgerService, settingService), db
}

func TestSignupClaimCreditsPoints(t *testing.T) {
	svc, db := setupSignupServiceTest(t, RewardDefaultSetting())

	claim, err := svc.Claim(SignupClaimInput{
		UserID:   301,
		ClientIP: "198.51.100.7",
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claim.RewardType != constants.RewardTypeSignup {
		t.Fatalf("unexpected reward type: %s", claim.RewardType)
	}
	if claim.PointsAwarded != 100 {
		t.Fatalf("expected 100 points awarded, got %d", claim.PointsAwarded)
	}

	var account models.RewardAccount
	if err := db.Where("user_id = ?", 301).First(&account).Error; err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	if account.Balance != 100 {
		t.Fatalf("expected balance 100, got %d", account.Balance)
	}

	var entry models.PointsLogEntry
	if err := db.Where("user_id = ?", 301).First(&entry).Error; err != nil {
		t.Fatalf("load entry failed: %v", err)
	}
	if entry.EntryType != models.PointsEntrySignup {
		t.Fatalf("unexpected entry type: %s", entry.EntryType)
	}
}

func TestSignupClaimCooldownRejected(t *testing.T) {
	svc, _ := setupSignupServiceTest(t, RewardDefaultSetting())

	if _, err := svc.Claim(SignupClaimInput{UserID: 302}); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := svc.Claim(SignupClaimInput{UserID: 302}); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed within cooldown, got %v", err)
	}
}

func TestSignupClaimLifetimeOnceWithoutCooldown(t *testing.T) {
	setting := RewardDefaultSetting()
	setting.SignupCooldownDays = 0
	svc, db := setupSignupServiceTest(t, setting)

	if _, err := svc.Claim(SignupClaimInput{UserID: 303}); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := svc.Claim(SignupClaimInput{UserID: 303}); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected lifetime-once rejection, got %v", err)
	}

	var count int64
	if err := db.Model(&models.RewardClaim{}).Where("user_id = ?", 303).Count(&count).Error; err != nil {
		t.Fatalf("count claims failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single claim row, got %d", count)
	}
}

func TestSignupClaimDisabled(t *testing.T) {
	setting := RewardDefaultSetting()
	setting.Enabled = false
	svc, _ := setupSignupServiceTest(t, setting)

	if _, err := svc.Claim(SignupClaimInput{UserID: 304}); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected claim rejected when program disabled, got %v", err)
	}
}
