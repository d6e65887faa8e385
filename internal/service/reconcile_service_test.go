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

type reconcileTestEnv struct {
	svc           *ReconcileService
	ledgerService *LedgerService
	db            *gorm.DB
}

func setupReconcileServiceTest(t *testing.T, setting RewardSetting) *reconcileTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:reconcile_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Order{},
		&models.Referral{},
		&models.ReferralCode{},
		&models.ReferralClick{},
		&models.ReferralEmailAssociation{},
		&models.RewardAccount{},
		&models.PointsLogEntry{},
		&models.RewardClaim{},
		&models.AmbassadorProfile{},
		&models.AmbassadorEarning{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	codeRepo := repository.NewReferralCodeRepository(db)
	userRepo := repository.NewUserRepository(db)
	ambassadorRepo := repository.NewAmbassadorRepository(db)
	attributionRepo := repository.NewAttributionRepository(db)

	settingService := newRewardSettingService(t, setting)
	ledgerService := NewLedgerService(repository.NewLedgerRepository(db))
	codeService := NewCodeService(codeRepo, settingService)
	attributionService := NewAttributionService(attributionRepo, codeService, settingService)
	ambassadorService := NewAmbassadorService(ambassadorRepo, userRepo, codeService, ledgerService, settingService)

	svc := NewReconcileService(
		orderRepo,
		referralRepo,
		codeRepo,
		userRepo,
		codeService,
		attributionService,
		ambassadorService,
		ledgerService,
		settingService,
		nil,
	)
	return &reconcileTestEnv{svc: svc, ledgerService: ledgerService, db: db}
}

func createReconcileUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("reconcile_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func issueTestCode(t *testing.T, db *gorm.DB, userID uint, kind, code string) *models.ReferralCode {
	t.Helper()
	row := &models.ReferralCode{
		UserID:    userID,
		Kind:      kind,
		Code:      code,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create referral code failed: %v", err)
	}
	return row
}

func (env *reconcileTestEnv) balance(t *testing.T, userID uint) int64 {
	t.Helper()
	balance, err := env.ledgerService.Balance(userID)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	return balance
}

func TestHandleOrderCreatedResolvesAttribution(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 601)
	createReconcileUser(t, env.db, 602)
	issueTestCode(t, env.db, 601, models.CodeKindReferral, "REFSESSION1")

	order, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-ATTR-1",
		UserID:         602,
		Currency:       "usd",
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SessionCode:    "refsession1",
	})
	if err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if order.ReferralCode != "REFSESSION1" {
		t.Fatalf("unexpected referral code: %s", order.ReferralCode)
	}
	if order.AttributionChannel != models.AttributionSession {
		t.Fatalf("unexpected attribution channel: %s", order.AttributionChannel)
	}
	if order.Currency != "USD" {
		t.Fatalf("expected normalized currency USD, got %s", order.Currency)
	}

	// 重复事件返回既有快照
	again, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo: "ORD-ATTR-1",
		UserID:  602,
	})
	if err != nil {
		t.Fatalf("replay order created failed: %v", err)
	}
	if again.ID != order.ID {
		t.Fatalf("expected existing order %d, got %d", order.ID, again.ID)
	}
}

func TestHandleOrderCreatedFallsBackToVisitorClick(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 603)
	issueTestCode(t, env.db, 603, models.CodeKindReferral, "REFCLICK01")

	click := &models.ReferralClick{
		Code:       "REFCLICK01",
		VisitorKey: "visitor-abc",
		CreatedAt:  time.Now().Add(-48 * time.Hour),
	}
	if err := env.db.Create(click).Error; err != nil {
		t.Fatalf("create click failed: %v", err)
	}

	order, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-ATTR-2",
		UserID:         604,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		VisitorKey:     "visitor-abc",
	})
	if err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if order.ReferralCode != "REFCLICK01" {
		t.Fatalf("unexpected referral code: %s", order.ReferralCode)
	}
	if order.AttributionChannel != models.AttributionVisitor {
		t.Fatalf("unexpected attribution channel: %s", order.AttributionChannel)
	}
}

func TestHandleOrderCompletedCreditsReferral(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 611)
	createReconcileUser(t, env.db, 612)
	code := issueTestCode(t, env.db, 611, models.CodeKindReferral, "REFORDER01")

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-REF-1",
		UserID:         612,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SessionCode:    "REFORDER01",
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-REF-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}

	if got := env.balance(t, 611); got != 1000 {
		t.Fatalf("expected referrer balance 1000, got %d", got)
	}
	if got := env.balance(t, 612); got != 1000 {
		t.Fatalf("expected referee balance 1000, got %d", got)
	}

	var referral models.Referral
	if err := env.db.Where("referee_id = ?", 612).First(&referral).Error; err != nil {
		t.Fatalf("load referral failed: %v", err)
	}
	if referral.ReferrerID != 611 || referral.Status != models.ReferralStatusCompleted {
		t.Fatalf("unexpected referral row: %+v", referral)
	}

	var codeRow models.ReferralCode
	if err := env.db.First(&codeRow, code.ID).Error; err != nil {
		t.Fatalf("load code failed: %v", err)
	}
	if codeRow.UsageCount != 1 {
		t.Fatalf("expected code usage 1, got %d", codeRow.UsageCount)
	}

	// 回调重放不重复入账
	if err := env.svc.HandleOrderCompleted("ORD-REF-1"); err != nil {
		t.Fatalf("replay order completed failed: %v", err)
	}
	if got := env.balance(t, 611); got != 1000 {
		t.Fatalf("expected referrer balance unchanged, got %d", got)
	}
	if got := env.balance(t, 612); got != 1000 {
		t.Fatalf("expected referee balance unchanged, got %d", got)
	}
}

func TestHandleOrderCompletedSkipsSelfReferral(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 613)
	issueTestCode(t, env.db, 613, models.CodeKindReferral, "REFSELF001")

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-SELF-1",
		UserID:         613,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SessionCode:    "REFSELF001",
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-SELF-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}

	if got := env.balance(t, 613); got != 0 {
		t.Fatalf("expected no self-referral points, got %d", got)
	}
	var count int64
	if err := env.db.Model(&models.Referral{}).Count(&count).Error; err != nil {
		t.Fatalf("count referrals failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no referral rows, got %d", count)
	}
}

func TestHandleOrderCompletedBelowMinimumOrder(t *testing.T) {
	setting := RewardDefaultSetting()
	setting.MinOrderAmount = 100
	env := setupReconcileServiceTest(t, setting)
	createReconcileUser(t, env.db, 614)
	createReconcileUser(t, env.db, 615)
	issueTestCode(t, env.db, 614, models.CodeKindReferral, "REFMIN0001")

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-MIN-1",
		UserID:         615,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SessionCode:    "REFMIN0001",
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-MIN-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}

	if got := env.balance(t, 614); got != 0 {
		t.Fatalf("expected no points below minimum order, got %d", got)
	}

	var order models.Order
	if err := env.db.Where("order_no = ?", "ORD-MIN-1").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != models.OrderStatusCompleted {
		t.Fatalf("expected order still completed, got %s", order.Status)
	}
}

func TestHandleOrderCompletedGuestAssociatesEmail(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 616)
	issueTestCode(t, env.db, 616, models.CodeKindReferral, "REFGUEST01")

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-GUEST-1",
		BillingEmail:   "Guest@Example.com",
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SessionCode:    "REFGUEST01",
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-GUEST-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}

	// 游客单不直接入账，只留邮箱关联等注册回溯
	if got := env.balance(t, 616); got != 0 {
		t.Fatalf("expected no points for guest order, got %d", got)
	}
	var assoc models.ReferralEmailAssociation
	if err := env.db.Where("email = ?", "guest@example.com").First(&assoc).Error; err != nil {
		t.Fatalf("load email association failed: %v", err)
	}
	if assoc.Code != "REFGUEST01" {
		t.Fatalf("unexpected association code: %s", assoc.Code)
	}
}

func TestHandleUserRegisteredRetroLinksGuestOrders(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 617)
	issueTestCode(t, env.db, 617, models.CodeKindReferral, "REFRETRO01")

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-RETRO-1",
		BillingEmail:   "retro@example.com",
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		SessionCode:    "REFRETRO01",
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-RETRO-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}

	createReconcileUser(t, env.db, 618)
	if err := env.svc.HandleUserRegistered(618, "retro@example.com"); err != nil {
		t.Fatalf("handle user registered failed: %v", err)
	}

	var order models.Order
	if err := env.db.Where("order_no = ?", "ORD-RETRO-1").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.UserID != 618 {
		t.Fatalf("expected order linked to user 618, got %d", order.UserID)
	}
	if got := env.balance(t, 617); got != 1000 {
		t.Fatalf("expected referrer balance 1000 after retro link, got %d", got)
	}
	if got := env.balance(t, 618); got != 1000 {
		t.Fatalf("expected referee balance 1000 after retro link, got %d", got)
	}

	// 再次回溯不重复入账
	if err := env.svc.HandleUserRegistered(618, "retro@example.com"); err != nil {
		t.Fatalf("replay user registered failed: %v", err)
	}
	if got := env.balance(t, 617); got != 1000 {
		t.Fatalf("expected referrer balance unchanged, got %d", got)
	}
}

func TestHandleOrderCompletedCreditsAmbassadorCommission(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 621)
	createReconcileUser(t, env.db, 622)
	code := issueTestCode(t, env.db, 621, models.CodeKindAmbassador, "AMBTEST001")
	now := time.Now()
	profile := &models.AmbassadorProfile{
		UserID:     621,
		CodeID:     &code.ID,
		Status:     models.AmbassadorStatusActive,
		AppliedAt:  now,
		ReviewedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := env.db.Create(profile).Error; err != nil {
		t.Fatalf("create ambassador profile failed: %v", err)
	}

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-AMB-1",
		UserID:         622,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		TaxAmount:      models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(180)),
		AmbassadorCode: "ambtest001",
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-AMB-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}

	// 含税计佣：200 * 6% = 12.00，折 1200 积分
	if got := env.balance(t, 621); got != 1200 {
		t.Fatalf("expected ambassador balance 1200, got %d", got)
	}

	var earning models.AmbassadorEarning
	if err := env.db.Where("ambassador_id = ?", profile.ID).First(&earning).Error; err != nil {
		t.Fatalf("load earning failed: %v", err)
	}
	if earning.CommissionAmount.String() != "12.00" {
		t.Fatalf("expected commission 12.00, got %s", earning.CommissionAmount.String())
	}
	if earning.PointsAwarded != 1200 {
		t.Fatalf("expected 1200 points awarded, got %d", earning.PointsAwarded)
	}

	// 重放完成回调不重复计佣
	if err := env.svc.HandleOrderCompleted("ORD-AMB-1"); err != nil {
		t.Fatalf("replay order completed failed: %v", err)
	}
	if got := env.balance(t, 621); got != 1200 {
		t.Fatalf("expected ambassador balance unchanged, got %d", got)
	}
}

func TestHandleOrderRefundedRestoresAndClawsBack(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 631)
	createReconcileUser(t, env.db, 632)
	code := issueTestCode(t, env.db, 631, models.CodeKindAmbassador, "AMBREFUND1")
	now := time.Now()
	profile := &models.AmbassadorProfile{
		UserID:     631,
		CodeID:     &code.ID,
		Status:     models.AmbassadorStatusActive,
		AppliedAt:  now,
		ReviewedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := env.db.Create(profile).Error; err != nil {
		t.Fatalf("create ambassador profile failed: %v", err)
	}

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-REFUND-1",
		UserID:         632,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		AmbassadorCode: "AMBREFUND1",
		RedeemedPoints: 500,
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-REFUND-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}
	if got := env.balance(t, 631); got != 1200 {
		t.Fatalf("expected commission 1200 before refund, got %d", got)
	}

	if err := env.svc.HandleOrderRefunded("ORD-REFUND-1"); err != nil {
		t.Fatalf("handle order refunded failed: %v", err)
	}

	if got := env.balance(t, 631); got != 0 {
		t.Fatalf("expected commission clawed back, got %d", got)
	}
	if got := env.balance(t, 632); got != 500 {
		t.Fatalf("expected redeemed points restored, got %d", got)
	}

	var order models.Order
	if err := env.db.Where("order_no = ?", "ORD-REFUND-1").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.Status != models.OrderStatusRefunded || order.RefundedAt == nil {
		t.Fatalf("unexpected refunded order state: %+v", order)
	}

	// 重复退款回调为空操作
	if err := env.svc.HandleOrderRefunded("ORD-REFUND-1"); err != nil {
		t.Fatalf("replay order refunded failed: %v", err)
	}
	if got := env.balance(t, 632); got != 500 {
		t.Fatalf("expected balance unchanged after replay, got %d", got)
	}
}

func TestHandleOrderRefundedSkipsClawbackWhenSpent(t *testing.T) {
	env := setupReconcileServiceTest(t, RewardDefaultSetting())
	createReconcileUser(t, env.db, 641)
	createReconcileUser(t, env.db, 642)
	code := issueTestCode(t, env.db, 641, models.CodeKindAmbassador, "AMBSPENT01")
	now := time.Now()
	profile := &models.AmbassadorProfile{
		UserID:     641,
		CodeID:     &code.ID,
		Status:     models.AmbassadorStatusActive,
		AppliedAt:  now,
		ReviewedAt: &now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := env.db.Create(profile).Error; err != nil {
		t.Fatalf("create ambassador profile failed: %v", err)
	}

	if _, err := env.svc.HandleOrderCreated(OrderEventInput{
		OrderNo:        "ORD-SPENT-1",
		UserID:         642,
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		AmbassadorCode: "AMBSPENT01",
	}); err != nil {
		t.Fatalf("handle order created failed: %v", err)
	}
	if err := env.svc.HandleOrderCompleted("ORD-SPENT-1"); err != nil {
		t.Fatalf("handle order completed failed: %v", err)
	}

	// 佣金已被消费掉一部分，回收时余额不足则放弃而非扣成负数
	if _, _, err := env.ledgerService.Deduct(LedgerChangeInput{
		UserID:    641,
		Points:    1100,
		EntryType: models.PointsEntryManual,
	}); err != nil {
		t.Fatalf("spend commission failed: %v", err)
	}
	if err := env.svc.HandleOrderRefunded("ORD-SPENT-1"); err != nil {
		t.Fatalf("handle order refunded failed: %v", err)
	}

	if got := env.balance(t, 641); got != 100 {
		t.Fatalf("expected balance kept at 100 without negative clawback, got %d", got)
	}
}

func TestCommissionBaseTaxHandling(t *testing.T) {
	order := &models.Order{
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
		TaxAmount:      models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(170)),
	}

	if got := CommissionBase(order, constants.TaxHandlingInclude); !got.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected include base 200, got %s", got.String())
	}
	if got := CommissionBase(order, constants.TaxHandlingExclude); !got.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected exclude base 180, got %s", got.String())
	}
	if got := CommissionBase(order, constants.TaxHandlingSubtotal); !got.Equal(decimal.NewFromInt(170)) {
		t.Fatalf("expected subtotal base 170, got %s", got.String())
	}

	negative := &models.Order{
		TotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		TaxAmount:   models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
	}
	if got := CommissionBase(negative, constants.TaxHandlingExclude); !got.Equal(decimal.Zero) {
		t.Fatalf("expected negative base clamped to zero, got %s", got.String())
	}
}
