package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRedemptionServiceTest(t *testing.T, setting RewardSetting) (*RedemptionService, *LedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:redemption_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.RewardAccount{},
		&models.PointsLogEntry{},
		&models.RewardClaim{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	ledgerService := NewLedgerService(repository.NewLedgerRepository(db))
	svc := NewRedemptionService(
		repository.NewOrderRepository(db),
		repository.NewRewardClaimRepository(db),
		ledgerService,
		newRewardSettingService(t, setting),
	)
	return svc, ledgerService, db
}

func creditTestPoints(t *testing.T, ledgerService *LedgerService, userID uint, points int64) {
	t.Helper()
	if _, _, err := ledgerService.Add(LedgerChangeInput{
		UserID:    userID,
		Points:    points,
		EntryType: models.PointsEntryManual,
	}); err != nil {
		t.Fatalf("credit test points failed: %v", err)
	}
}

func createCheckoutOrder(t *testing.T, db *gorm.DB, userID uint, orderNo string, subtotal int64) *models.Order {
	t.Helper()
	now := time.Now()
	order := &models.Order{
		OrderNo:        orderNo,
		UserID:         userID,
		Status:         models.OrderStatusCreated,
		Currency:       "USD",
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(subtotal)),
		SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(subtotal)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestRedemptionQuoteCaps(t *testing.T) {
	svc, ledgerService, _ := setupRedemptionServiceTest(t, RewardDefaultSetting())
	creditTestPoints(t, ledgerService, 401, 5000)

	// 小计 30，按 50% 上限折 1500 积分
	quote, err := svc.Quote(401, models.NewMoneyFromDecimal(decimal.NewFromInt(30)))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Balance != 5000 {
		t.Fatalf("expected balance 5000, got %d", quote.Balance)
	}
	if quote.RedeemablePoints != 1500 {
		t.Fatalf("expected redeemable 1500, got %d", quote.RedeemablePoints)
	}
	if quote.DiscountAmount.String() != "15.00" {
		t.Fatalf("expected discount 15.00, got %s", quote.DiscountAmount.String())
	}

	// 小计足够大时受余额约束
	quote, err = svc.Quote(401, models.NewMoneyFromDecimal(decimal.NewFromInt(500)))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.RedeemablePoints != 5000 {
		t.Fatalf("expected redeemable capped by balance 5000, got %d", quote.RedeemablePoints)
	}
}

func TestRedemptionQuoteBelowMinimum(t *testing.T) {
	svc, ledgerService, _ := setupRedemptionServiceTest(t, RewardDefaultSetting())
	creditTestPoints(t, ledgerService, 402, 500)

	quote, err := svc.Quote(402, models.NewMoneyFromDecimal(decimal.NewFromInt(100)))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.RedeemablePoints != 0 {
		t.Fatalf("expected no redeemable points below minimum, got %d", quote.RedeemablePoints)
	}
	if !quote.DiscountAmount.IsZero() {
		t.Fatalf("expected zero discount, got %s", quote.DiscountAmount.String())
	}
}

func TestRedemptionQuoteHonorsPerOrderMax(t *testing.T) {
	setting := RewardDefaultSetting()
	setting.MaxPointsPerOrder = 1200
	svc, ledgerService, _ := setupRedemptionServiceTest(t, setting)
	creditTestPoints(t, ledgerService, 403, 5000)

	quote, err := svc.Quote(403, models.NewMoneyFromDecimal(decimal.NewFromInt(500)))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.RedeemablePoints != 1200 {
		t.Fatalf("expected redeemable capped at 1200, got %d", quote.RedeemablePoints)
	}
}

func TestRedemptionApplyFlow(t *testing.T) {
	svc, ledgerService, db := setupRedemptionServiceTest(t, RewardDefaultSetting())
	creditTestPoints(t, ledgerService, 404, 3000)
	createCheckoutOrder(t, db, 404, "ORD-REDEEM-1", 40)

	discount, err := svc.Apply(RedemptionApplyInput{
		UserID:  404,
		OrderNo: "ORD-REDEEM-1",
		Points:  1500,
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if discount.String() != "15.00" {
		t.Fatalf("expected discount 15.00, got %s", discount.String())
	}

	balance, err := ledgerService.Balance(404)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 1500 {
		t.Fatalf("expected balance 1500 after redemption, got %d", balance)
	}

	var order models.Order
	if err := db.Where("order_no = ?", "ORD-REDEEM-1").First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if order.RedeemedPoints != 1500 {
		t.Fatalf("expected order redeemed points 1500, got %d", order.RedeemedPoints)
	}

	// 同一订单二次抵扣被幂等键拒绝，余额不再变动
	if _, err := svc.Apply(RedemptionApplyInput{
		UserID:  404,
		OrderNo: "ORD-REDEEM-1",
		Points:  1500,
	}); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed on replay, got %v", err)
	}
	balance, err = ledgerService.Balance(404)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 1500 {
		t.Fatalf("expected balance unchanged after replay, got %d", balance)
	}
}

func TestRedemptionApplyRejections(t *testing.T) {
	svc, ledgerService, db := setupRedemptionServiceTest(t, RewardDefaultSetting())
	creditTestPoints(t, ledgerService, 405, 3000)
	createCheckoutOrder(t, db, 405, "ORD-REDEEM-2", 40)

	if _, err := svc.Apply(RedemptionApplyInput{
		UserID:  405,
		OrderNo: "ORD-REDEEM-2",
		Points:  500,
	}); !errors.Is(err, ErrRedemptionBelowMinimum) {
		t.Fatalf("expected below minimum, got %v", err)
	}

	// 小计 40 按 50% 上限只能抵 2000 积分
	if _, err := svc.Apply(RedemptionApplyInput{
		UserID:  405,
		OrderNo: "ORD-REDEEM-2",
		Points:  2500,
	}); !errors.Is(err, ErrRedemptionOverLimit) {
		t.Fatalf("expected over limit, got %v", err)
	}

	if _, err := svc.Apply(RedemptionApplyInput{
		UserID:  406,
		OrderNo: "ORD-REDEEM-2",
		Points:  1500,
	}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found for other user, got %v", err)
	}

	if err := db.Model(&models.Order{}).
		Where("order_no = ?", "ORD-REDEEM-2").
		Update("status", models.OrderStatusRefunded).Error; err != nil {
		t.Fatalf("mark refunded failed: %v", err)
	}
	if _, err := svc.Apply(RedemptionApplyInput{
		UserID:  405,
		OrderNo: "ORD-REDEEM-2",
		Points:  1500,
	}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected status invalid on refunded order, got %v", err)
	}
}
