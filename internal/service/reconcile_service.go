package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/queue"
	"github.com/loyaltycore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconcileService 订单事件对账服务。
// 商城侧回调可能重放，奖励入账由唯一索引闸门保证至多一次。
type ReconcileService struct {
	orderRepo          repository.OrderRepository
	referralRepo       repository.ReferralRepository
	codeRepo           repository.ReferralCodeRepository
	userRepo           repository.UserRepository
	codeService        *CodeService
	attributionService *AttributionService
	ambassadorService  *AmbassadorService
	ledgerService      *LedgerService
	settingService     *SettingService
	queueClient        *queue.Client
}

// OrderEventInput 商城订单事件输入
type OrderEventInput struct {
	OrderNo        string
	UserID         uint
	BillingEmail   string
	Currency       string
	TotalAmount    models.Money
	TaxAmount      models.Money
	SubtotalAmount models.Money
	SessionCode    string
	VisitorKey     string
	CookieCode     string
	AmbassadorCode string
	RedeemedPoints int64
	ClientIP       string
}

// NewReconcileService 创建订单事件对账服务
func NewReconcileService(
	orderRepo repository.OrderRepository,
	referralRepo repository.ReferralRepository,
	codeRepo repository.ReferralCodeRepository,
	userRepo repository.UserRepository,
	codeService *CodeService,
	attributionService *AttributionService,
	ambassadorService *AmbassadorService,
	ledgerService *LedgerService,
	settingService *SettingService,
	queueClient *queue.Client,
) *ReconcileService {
	return &ReconcileService{
		orderRepo:          orderRepo,
		referralRepo:       referralRepo,
		codeRepo:           codeRepo,
		userRepo:           userRepo,
		codeService:        codeService,
		attributionService: attributionService,
		ambassadorService:  ambassadorService,
		ledgerService:      ledgerService,
		settingService:     settingService,
		queueClient:        queueClient,
	}
}

// HandleOrderCreated 记录订单快照并解析归因。
// 归因只依赖事件显式携带的线索，重复事件直接返回既有快照。
func (s *ReconcileService) HandleOrderCreated(input OrderEventInput) (*models.Order, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" || s.orderRepo == nil {
		return nil, ErrOrderEventInvalid
	}
	existing, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	billingEmail := strings.ToLower(strings.TrimSpace(input.BillingEmail))
	attribution, err := s.attributionService.Resolve(AttributionQuery{
		SessionCode: input.SessionCode,
		VisitorKey:  input.VisitorKey,
		Email:       billingEmail,
		CookieCode:  input.CookieCode,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		OrderNo:        orderNo,
		UserID:         input.UserID,
		BillingEmail:   billingEmail,
		Status:         models.OrderStatusCreated,
		Currency:       normalizeOrderCurrency(input.Currency),
		TotalAmount:    input.TotalAmount,
		TaxAmount:      input.TaxAmount,
		SubtotalAmount: input.SubtotalAmount,
		AmbassadorCode: strings.ToUpper(strings.TrimSpace(input.AmbassadorCode)),
		RedeemedPoints: input.RedeemedPoints,
		ClientIP:       strings.TrimSpace(input.ClientIP),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if attribution != nil {
		order.ReferralCode = attribution.Code
		order.AttributionChannel = attribution.Channel
	}
	if err := s.orderRepo.Create(order); err != nil {
		if isUniqueViolation(err) {
			return s.orderRepo.GetByOrderNo(orderNo)
		}
		return nil, err
	}
	return order, nil
}

// HandleOrderCompleted 订单完成对账，可安全重放。
// 游客订单只登记邮箱关联；注册用户订单在一个事务内完成推荐与佣金入账。
func (s *ReconcileService) HandleOrderCompleted(orderNo string) error {
	if strings.TrimSpace(orderNo) == "" || s.orderRepo == nil {
		return ErrOrderEventInvalid
	}

	var guestAssoc *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.orderRepo.WithTx(tx)
		order, err := repoTx.GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == models.OrderStatusRefunded {
			return ErrOrderStatusInvalid
		}
		if order.Status != models.OrderStatusCompleted {
			now := time.Now()
			order.Status = models.OrderStatusCompleted
			order.CompletedAt = &now
			order.UpdatedAt = now
			if err := repoTx.Update(order); err != nil {
				return err
			}
		}

		if order.Guest() {
			snapshot := *order
			guestAssoc = &snapshot
			return nil
		}
		if err := s.creditReferralInTx(tx, order); err != nil {
			return err
		}
		return s.ambassadorService.CreditOrderCommission(tx, order)
	})
	if err != nil {
		return err
	}

	// 邮箱关联写在事务外：关联失败不应回滚订单状态，注册回溯还有机会补记
	if guestAssoc != nil && strings.TrimSpace(guestAssoc.ReferralCode) != "" {
		if err := s.attributionService.AssociateEmail(guestAssoc.BillingEmail, guestAssoc.ReferralCode); err != nil {
			logger.Warnw("reconcile_guest_email_associate_failed",
				"order_no", guestAssoc.OrderNo,
				"error", err,
			)
		}
	}
	return nil
}

// HandleUserRegistered 注册后回溯补记：把窗口内同邮箱的游客完成单挂到新用户并重新对账
func (s *ReconcileService) HandleUserRegistered(userID uint, email string) error {
	if userID == 0 || s.orderRepo == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return err
	}
	window := time.Duration(setting.EmailAssociationDays) * 24 * time.Hour
	if window <= 0 {
		return nil
	}

	orders, err := s.orderRepo.ListGuestOrdersByEmailSince(normalized, time.Now().Add(-window))
	if err != nil {
		return err
	}
	for i := range orders {
		order := orders[i]
		order.UserID = userID
		order.UpdatedAt = time.Now()
		if err := s.orderRepo.Update(&order); err != nil {
			return err
		}
		if err := s.HandleOrderCompleted(order.OrderNo); err != nil {
			logger.Warnw("reconcile_retro_link_order_failed",
				"order_no", order.OrderNo,
				"user_id", userID,
				"error", err,
			)
		}
	}
	return nil
}

// EnqueueRetroLink 注册链路异步补记入口
func (s *ReconcileService) EnqueueRetroLink(userID uint, email string) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	if err := s.queueClient.EnqueueGuestRetroLink(queue.GuestRetroLinkPayload{
		UserID: userID,
		Email:  strings.ToLower(strings.TrimSpace(email)),
	}); err != nil {
		logger.Warnw("reconcile_enqueue_retro_link_failed",
			"user_id", userID,
			"error", err,
		)
	}
}

// HandleOrderRefunded 订单退款对账：返还抵扣积分并回收大使佣金积分
func (s *ReconcileService) HandleOrderRefunded(orderNo string) error {
	if strings.TrimSpace(orderNo) == "" || s.orderRepo == nil {
		return ErrOrderEventInvalid
	}
	return s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.orderRepo.WithTx(tx)
		order, err := repoTx.GetByOrderNoForUpdate(orderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status == models.OrderStatusRefunded {
			return nil
		}

		now := time.Now()
		order.Status = models.OrderStatusRefunded
		order.RefundedAt = &now
		order.UpdatedAt = now
		if err := repoTx.Update(order); err != nil {
			return err
		}

		if order.RedeemedPoints > 0 && order.UserID > 0 {
			if _, _, err := s.ledgerService.CreditInTx(tx, LedgerChangeInput{
				UserID:        order.UserID,
				Points:        order.RedeemedPoints,
				EntryType:     models.PointsEntryRefund,
				Description:   fmt.Sprintf("订单 %s 退款返还抵扣积分", order.OrderNo),
				ReferenceType: "order",
				ReferenceID:   order.OrderNo,
			}); err != nil {
				return err
			}
		}
		return s.reverseCommissionInTx(tx, order)
	})
}

func (s *ReconcileService) creditReferralInTx(tx *gorm.DB, order *models.Order) error {
	code := strings.TrimSpace(order.ReferralCode)
	if code == "" || s.referralRepo == nil {
		return nil
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return err
	}
	if !setting.Enabled {
		return nil
	}
	if setting.ReferrerPoints <= 0 && setting.RefereePoints <= 0 {
		return nil
	}

	referralRepoTx := s.referralRepo.WithTx(tx)
	existing, err := referralRepoTx.GetByRefereeID(order.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	referralCode, err := s.codeService.Validate(code, models.CodeKindReferral)
	if err != nil {
		if errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrCodeExpired) {
			logger.Infow("reconcile_referral_code_rejected",
				"order_no", order.OrderNo,
				"code", code,
				"reason", err.Error(),
			)
			return nil
		}
		return err
	}
	if referralCode.UserID == order.UserID {
		logger.Infow("reconcile_referral_self_skipped",
			"order_no", order.OrderNo,
			"user_id", order.UserID,
		)
		return nil
	}

	minAmount := decimal.NewFromFloat(setting.MinOrderAmount).Round(2)
	if minAmount.GreaterThan(decimal.Zero) && order.TotalAmount.Decimal.LessThan(minAmount) {
		logger.Infow("reconcile_referral_below_minimum",
			"order_no", order.OrderNo,
			"total", order.TotalAmount.String(),
		)
		return nil
	}

	if setting.MonthlyReferralLimit > 0 {
		now := time.Now()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		count, err := referralRepoTx.CountCompletedByReferrerSince(referralCode.UserID, monthStart)
		if err != nil {
			return err
		}
		if count >= int64(setting.MonthlyReferralLimit) {
			logger.Infow("reconcile_referral_monthly_limit_reached",
				"order_no", order.OrderNo,
				"referrer_id", referralCode.UserID,
			)
			return nil
		}
	}

	now := time.Now()
	referral := &models.Referral{
		ReferralCodeID: referralCode.ID,
		ReferrerID:     referralCode.UserID,
		RefereeID:      order.UserID,
		PointsReferrer: setting.ReferrerPoints,
		PointsReferee:  setting.RefereePoints,
		Status:         models.ReferralStatusCompleted,
		ClientIP:       order.ClientIP,
		CompletedAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := referralRepoTx.Create(referral); err != nil {
		// referee_id 唯一索引：并发重放时后到者放弃
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}

	if setting.ReferrerPoints > 0 {
		if _, _, err := s.ledgerService.CreditInTx(tx, LedgerChangeInput{
			UserID:        referralCode.UserID,
			Points:        setting.ReferrerPoints,
			EntryType:     models.PointsEntryReferral,
			Description:   fmt.Sprintf("推荐订单 %s 奖励", order.OrderNo),
			ReferenceType: "referral",
			ReferenceID:   fmt.Sprintf("%d", referral.ID),
		}); err != nil {
			return err
		}
	}
	if setting.RefereePoints > 0 {
		if _, _, err := s.ledgerService.CreditInTx(tx, LedgerChangeInput{
			UserID:        order.UserID,
			Points:        setting.RefereePoints,
			EntryType:     models.PointsEntryReferral,
			Description:   fmt.Sprintf("受邀首单 %s 奖励", order.OrderNo),
			ReferenceType: "referral",
			ReferenceID:   fmt.Sprintf("%d", referral.ID),
		}); err != nil {
			return err
		}
	}
	return s.codeRepo.WithTx(tx).BumpUsage(referralCode.ID, now)
}

func (s *ReconcileService) reverseCommissionInTx(tx *gorm.DB, order *models.Order) error {
	if s.ambassadorService == nil || s.ambassadorService.repo == nil {
		return nil
	}
	ambassadorRepoTx := s.ambassadorService.repo.WithTx(tx)
	code := strings.TrimSpace(order.AmbassadorCode)
	if code == "" {
		return nil
	}
	ownerID, err := s.codeService.ResolveOwner(code, models.CodeKindAmbassador)
	if err != nil {
		if errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrCodeExpired) {
			return nil
		}
		return err
	}
	profile, err := ambassadorRepoTx.GetProfileByUserID(ownerID)
	if err != nil {
		return err
	}
	if profile == nil {
		return nil
	}
	earning, err := ambassadorRepoTx.GetEarningByOrderAndAmbassador(order.ID, profile.ID)
	if err != nil {
		return err
	}
	if earning == nil || earning.PointsAwarded <= 0 {
		return nil
	}

	_, _, err = s.ledgerService.DebitInTx(tx, LedgerChangeInput{
		UserID:        profile.UserID,
		Points:        earning.PointsAwarded,
		EntryType:     models.PointsEntryRefund,
		Description:   fmt.Sprintf("订单 %s 退款回收佣金积分", order.OrderNo),
		ReferenceType: "order",
		ReferenceID:   order.OrderNo,
	})
	if errors.Is(err, ErrInsufficientBalance) {
		// 余额已被消费时不追负，记录后放弃回收
		logger.Warnw("reconcile_commission_clawback_insufficient",
			"order_no", order.OrderNo,
			"ambassador_id", profile.ID,
		)
		return nil
	}
	return err
}

func normalizeOrderCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return constants.SiteCurrencyDefault
	}
	return normalized
}
