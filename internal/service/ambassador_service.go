package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AmbassadorService 品牌大使业务服务
type AmbassadorService struct {
	repo           repository.AmbassadorRepository
	userRepo       repository.UserRepository
	codeService    *CodeService
	ledgerService  *LedgerService
	settingService *SettingService
}

// AmbassadorStats 大使统计数据
type AmbassadorStats struct {
	OrderCount      int64        `json:"order_count"`
	TotalCommission models.Money `json:"total_commission"`
	TotalPoints     int64        `json:"total_points"`
}

// AmbassadorAdminItem 后台大使列表项
type AmbassadorAdminItem struct {
	Profile models.AmbassadorProfile `json:"profile"`
	Stats   AmbassadorStats          `json:"stats"`
}

// NewAmbassadorService 创建品牌大使服务
func NewAmbassadorService(
	repo repository.AmbassadorRepository,
	userRepo repository.UserRepository,
	codeService *CodeService,
	ledgerService *LedgerService,
	settingService *SettingService,
) *AmbassadorService {
	return &AmbassadorService{
		repo:           repo,
		userRepo:       userRepo,
		codeService:    codeService,
		ledgerService:  ledgerService,
		settingService: settingService,
	}
}

// Apply 用户申请成为品牌大使
func (s *AmbassadorService) Apply(userID uint) (*models.AmbassadorProfile, error) {
	if userID == 0 || s.repo == nil || s.userRepo == nil {
		return nil, ErrNotFound
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if strings.TrimSpace(user.Status) == constants.UserStatusDisabled {
		return nil, ErrUserDisabled
	}

	existing, err := s.repo.GetProfileByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAmbassadorExists
	}

	now := time.Now()
	profile := &models.AmbassadorProfile{
		UserID:    userID,
		Status:    models.AmbassadorStatusPending,
		AppliedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateProfile(profile); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAmbassadorExists
		}
		return nil, err
	}
	return s.repo.GetProfileByID(profile.ID)
}

// Review 管理端审核大使申请；通过时签发大使码
func (s *AmbassadorService) Review(profileID uint, approve bool) (*models.AmbassadorProfile, error) {
	if profileID == 0 || s.repo == nil {
		return nil, ErrNotFound
	}
	profile, err := s.repo.GetProfileByID(profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	if profile.Status != models.AmbassadorStatusPending {
		return nil, ErrAmbassadorReviewInvalid
	}

	now := time.Now()
	if approve {
		code, err := s.codeService.Issue(profile.UserID, models.CodeKindAmbassador)
		if err != nil {
			return nil, err
		}
		profile.Status = models.AmbassadorStatusActive
		profile.CodeID = &code.ID
	} else {
		profile.Status = models.AmbassadorStatusRejected
	}
	profile.ReviewedAt = &now
	profile.UpdatedAt = now
	if err := s.repo.UpdateProfile(profile); err != nil {
		return nil, err
	}
	return s.repo.GetProfileByID(profileID)
}

// GetProfile 查询用户的大使档案
func (s *AmbassadorService) GetProfile(userID uint) (*models.AmbassadorProfile, error) {
	if userID == 0 || s.repo == nil {
		return nil, nil
	}
	return s.repo.GetProfileByUserID(userID)
}

// Stats 汇总大使统计数据（随读随算，不落库）
func (s *AmbassadorService) Stats(ambassadorID uint) (AmbassadorStats, error) {
	stats := AmbassadorStats{
		TotalCommission: models.NewMoneyFromDecimal(decimal.Zero),
	}
	if ambassadorID == 0 || s.repo == nil {
		return stats, nil
	}
	aggMap, err := s.repo.GetStatsBatch([]uint{ambassadorID})
	if err != nil {
		return stats, err
	}
	agg := aggMap[ambassadorID]
	stats.OrderCount = agg.OrderCount
	stats.TotalCommission = agg.TotalCommission
	stats.TotalPoints = agg.TotalPoints
	return stats, nil
}

// ListEarnings 查询大使佣金记录
func (s *AmbassadorService) ListEarnings(filter repository.AmbassadorEarningListFilter) ([]models.AmbassadorEarning, int64, error) {
	if s.repo == nil {
		return []models.AmbassadorEarning{}, 0, nil
	}
	return s.repo.ListEarnings(filter)
}

// ListAdmin 后台查询大使列表（含统计）
func (s *AmbassadorService) ListAdmin(filter repository.AmbassadorListFilter) ([]AmbassadorAdminItem, int64, error) {
	if s.repo == nil {
		return []AmbassadorAdminItem{}, 0, nil
	}
	rows, total, err := s.repo.ListProfiles(filter)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		if row.ID != 0 {
			ids = append(ids, row.ID)
		}
	}
	aggMap, err := s.repo.GetStatsBatch(ids)
	if err != nil {
		return nil, 0, err
	}
	result := make([]AmbassadorAdminItem, 0, len(rows))
	for _, row := range rows {
		agg := aggMap[row.ID]
		result = append(result, AmbassadorAdminItem{
			Profile: row,
			Stats: AmbassadorStats{
				OrderCount:      agg.OrderCount,
				TotalCommission: agg.TotalCommission,
				TotalPoints:     agg.TotalPoints,
			},
		})
	}
	return result, total, nil
}

// CommissionBase 按税额处理模式计算计佣基数
func CommissionBase(order *models.Order, taxHandling string) decimal.Decimal {
	if order == nil {
		return decimal.Zero
	}
	var base decimal.Decimal
	switch taxHandling {
	case constants.TaxHandlingExclude:
		base = order.TotalAmount.Decimal.Sub(order.TaxAmount.Decimal)
	case constants.TaxHandlingSubtotal:
		base = order.SubtotalAmount.Decimal
	default:
		base = order.TotalAmount.Decimal
	}
	base = base.Round(2)
	if base.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return base
}

// CreditOrderCommission 在事务内为已完成订单计佣并入账积分。
// (ambassador_id, order_id) 唯一索引保证重复回调不重复计佣。
func (s *AmbassadorService) CreditOrderCommission(tx *gorm.DB, order *models.Order) error {
	if tx == nil || order == nil || order.ID == 0 || s.repo == nil || s.ledgerService == nil {
		return nil
	}
	code := strings.TrimSpace(order.AmbassadorCode)
	if code == "" {
		return nil
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return err
	}
	if !setting.Enabled || setting.CommissionRatePercent <= 0 {
		return nil
	}

	repoTx := s.repo.WithTx(tx)
	ownerID, err := s.codeService.ResolveOwner(code, models.CodeKindAmbassador)
	if err != nil {
		if errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrCodeExpired) {
			return nil
		}
		return err
	}
	if order.UserID > 0 && ownerID == order.UserID {
		return nil
	}
	profile, err := repoTx.GetProfileByUserID(ownerID)
	if err != nil {
		return err
	}
	if profile == nil || profile.Status != models.AmbassadorStatusActive {
		return nil
	}

	base := CommissionBase(order, setting.TaxHandling)
	if base.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	rate := decimal.NewFromFloat(setting.CommissionRatePercent).Round(2)
	commission := base.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	if commission.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	points := commission.Mul(decimal.NewFromInt(setting.PointsPerCurrency)).Round(0).IntPart()
	if points <= 0 {
		return nil
	}

	earning := &models.AmbassadorEarning{
		AmbassadorID:     profile.ID,
		OrderID:          order.ID,
		OrderNo:          order.OrderNo,
		OrderTotal:       order.TotalAmount,
		BaseAmount:       models.NewMoneyFromDecimal(base),
		RatePercent:      models.NewMoneyFromDecimal(rate),
		CommissionAmount: models.NewMoneyFromDecimal(commission),
		PointsAwarded:    points,
		CreatedAt:        time.Now(),
	}
	if err := repoTx.CreateEarning(earning); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}

	_, _, err = s.ledgerService.CreditInTx(tx, LedgerChangeInput{
		UserID:        profile.UserID,
		Points:        points,
		EntryType:     models.PointsEntryCommission,
		Description:   fmt.Sprintf("订单 %s 大使佣金", order.OrderNo),
		ReferenceType: "order",
		ReferenceID:   order.OrderNo,
	})
	return err
}
