package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RedemptionService 结算积分抵扣服务
type RedemptionService struct {
	orderRepo      repository.OrderRepository
	claimRepo      repository.RewardClaimRepository
	ledgerService  *LedgerService
	settingService *SettingService
}

// RedemptionQuote 结算页抵扣报价
type RedemptionQuote struct {
	Balance           int64        `json:"balance"`             // 当前积分余额
	RedeemablePoints  int64        `json:"redeemable_points"`   // 本单最多可抵扣积分
	MinPointsRedeem   int64        `json:"min_points_redeem"`   // 起抵积分
	PointsPerCurrency int64        `json:"points_per_currency"` // 每单位货币对应积分
	DiscountAmount    models.Money `json:"discount_amount"`     // 全额抵扣对应金额
}

// RedemptionApplyInput 抵扣提交输入
type RedemptionApplyInput struct {
	UserID  uint
	OrderNo string
	Points  int64
}

// NewRedemptionService 创建结算抵扣服务
func NewRedemptionService(
	orderRepo repository.OrderRepository,
	claimRepo repository.RewardClaimRepository,
	ledgerService *LedgerService,
	settingService *SettingService,
) *RedemptionService {
	return &RedemptionService{
		orderRepo:      orderRepo,
		claimRepo:      claimRepo,
		ledgerService:  ledgerService,
		settingService: settingService,
	}
}

// Quote 计算结算页可抵扣额度
func (s *RedemptionService) Quote(userID uint, cartSubtotal models.Money) (*RedemptionQuote, error) {
	if userID == 0 || s.ledgerService == nil {
		return nil, ErrNotFound
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return nil, err
	}
	balance, err := s.ledgerService.Balance(userID)
	if err != nil {
		return nil, err
	}

	quote := &RedemptionQuote{
		Balance:           balance,
		MinPointsRedeem:   setting.MinPointsRedeem,
		PointsPerCurrency: setting.PointsPerCurrency,
	}
	if !setting.Enabled || setting.PointsPerCurrency <= 0 {
		return quote, nil
	}

	redeemable := redemptionCap(balance, cartSubtotal, setting)
	if redeemable < setting.MinPointsRedeem {
		return quote, nil
	}
	quote.RedeemablePoints = redeemable
	quote.DiscountAmount = redemptionDiscount(redeemable, setting.PointsPerCurrency)
	return quote, nil
}

// Apply 在订单上落实积分抵扣，返回抵扣金额。
// reward_claims 上 "redeem:"+orderNo 的唯一键保证同一订单只抵扣一次。
func (s *RedemptionService) Apply(input RedemptionApplyInput) (models.Money, error) {
	var discount models.Money
	if input.UserID == 0 || s.orderRepo == nil || s.ledgerService == nil {
		return discount, ErrNotFound
	}
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" {
		return discount, ErrOrderNotFound
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return discount, err
	}
	if !setting.Enabled || setting.PointsPerCurrency <= 0 {
		return discount, ErrRedemptionOverLimit
	}
	if input.Points < setting.MinPointsRedeem {
		return discount, ErrRedemptionBelowMinimum
	}

	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.UserID != input.UserID {
			return ErrOrderNotFound
		}
		if order.Status == models.OrderStatusRefunded {
			return ErrOrderStatusInvalid
		}

		balance, err := s.ledgerService.Balance(input.UserID)
		if err != nil {
			return err
		}
		if input.Points > redemptionCap(balance, order.SubtotalAmount, setting) {
			return ErrRedemptionOverLimit
		}

		claim := &models.RewardClaim{
			UserID:        input.UserID,
			RewardType:    constants.RewardTypeRedemption,
			ClaimKey:      "redeem:" + orderNo,
			PointsAwarded: input.Points,
			ClaimStatus:   models.ClaimStatusCompleted,
			CreatedAt:     time.Now(),
		}
		if err := s.claimRepo.WithTx(tx).Create(claim); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyClaimed
			}
			return err
		}

		if _, _, err := s.ledgerService.DebitInTx(tx, LedgerChangeInput{
			UserID:        input.UserID,
			Points:        input.Points,
			EntryType:     models.PointsEntryRedemption,
			Description:   fmt.Sprintf("订单 %s 积分抵扣", orderNo),
			ReferenceType: "order",
			ReferenceID:   orderNo,
		}); err != nil {
			return err
		}

		order.RedeemedPoints = input.Points
		order.UpdatedAt = time.Now()
		return s.orderRepo.WithTx(tx).Update(order)
	})
	if err != nil {
		return discount, err
	}
	return redemptionDiscount(input.Points, setting.PointsPerCurrency), nil
}

// redemptionCap 计算订单可抵扣上限：余额、单笔上限、小计比例三者取最小
func redemptionCap(balance int64, subtotal models.Money, setting RewardSetting) int64 {
	limit := balance
	if setting.MaxPointsPerOrder > 0 && setting.MaxPointsPerOrder < limit {
		limit = setting.MaxPointsPerOrder
	}
	byAmount := subtotal.Decimal.
		Mul(decimal.NewFromFloat(setting.MaxRedemptionPercent)).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(setting.PointsPerCurrency)).
		Round(0).IntPart()
	if byAmount < limit {
		limit = byAmount
	}
	if limit < 0 {
		limit = 0
	}
	return limit
}

// redemptionDiscount 积分换算抵扣金额
func redemptionDiscount(points, pointsPerCurrency int64) models.Money {
	if pointsPerCurrency <= 0 {
		return models.Money{}
	}
	return models.NewMoneyFromDecimal(
		decimal.NewFromInt(points).Div(decimal.NewFromInt(pointsPerCurrency)),
	)
}
