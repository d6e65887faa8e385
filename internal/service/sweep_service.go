package service

import (
	"fmt"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/queue"
	"github.com/loyaltycore/internal/repository"

	"github.com/shopspring/decimal"
)

const sweepMonthStampLayout = "2006-01"

// SweepService 大使周期结算服务（月度业绩奖励与不活跃扣罚）
type SweepService struct {
	ambassadorRepo repository.AmbassadorRepository
	claimRepo      repository.RewardClaimRepository
	ledgerService  *LedgerService
	settingService *SettingService
	queueClient    *queue.Client
}

// NewSweepService 创建周期结算服务
func NewSweepService(
	ambassadorRepo repository.AmbassadorRepository,
	claimRepo repository.RewardClaimRepository,
	ledgerService *LedgerService,
	settingService *SettingService,
	queueClient *queue.Client,
) *SweepService {
	return &SweepService{
		ambassadorRepo: ambassadorRepo,
		claimRepo:      claimRepo,
		ledgerService:  ledgerService,
		settingService: settingService,
		queueClient:    queueClient,
	}
}

// RunMonthlyBonus 结算上一自然月的大使业绩奖励。
// 每位大使的 "bonus:"+月份 唯一领取记录保证重跑安全。
func (s *SweepService) RunMonthlyBonus(now time.Time) error {
	if s == nil || s.ambassadorRepo == nil || s.ledgerService == nil {
		return nil
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return err
	}
	if !setting.Enabled || setting.BonusPoints <= 0 || setting.BonusThresholdAmount <= 0 {
		return nil
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	priorStart := monthStart.AddDate(0, -1, 0)
	monthStamp := priorStart.Format(sweepMonthStampLayout)
	threshold := decimal.NewFromFloat(setting.BonusThresholdAmount)

	profiles, err := s.ambassadorRepo.ListActiveProfiles()
	if err != nil {
		return err
	}
	for i := range profiles {
		profile := &profiles[i]
		total, err := s.ambassadorRepo.SumOrderTotalByAmbassador(profile.ID, priorStart, monthStart)
		if err != nil {
			logger.Warnw("sweep_bonus_sum_failed",
				"ambassador_id", profile.ID,
				"month", monthStamp,
				"error", err,
			)
			continue
		}
		if total.LessThan(threshold) {
			continue
		}
		if err := s.creditBonus(profile, monthStamp, setting.BonusPoints); err != nil {
			logger.Warnw("sweep_bonus_credit_failed",
				"ambassador_id", profile.ID,
				"month", monthStamp,
				"error", err,
			)
		}
	}
	return nil
}

// RunInactivityPenalty 对长期无成单的大使按比例扣减积分。
// 扣罚按月幂等，余额不会被扣成负数。
func (s *SweepService) RunInactivityPenalty(now time.Time) error {
	if s == nil || s.ambassadorRepo == nil || s.ledgerService == nil {
		return nil
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return err
	}
	if !setting.Enabled || setting.InactivityMonths <= 0 || setting.PenaltyPercent <= 0 {
		return nil
	}

	monthStamp := now.Format(sweepMonthStampLayout)
	cutoff := now.AddDate(0, -setting.InactivityMonths, 0)

	profiles, err := s.ambassadorRepo.ListActiveProfiles()
	if err != nil {
		return err
	}
	for i := range profiles {
		profile := &profiles[i]
		lastActive, err := s.lastActiveAt(profile)
		if err != nil {
			logger.Warnw("sweep_penalty_last_active_failed",
				"ambassador_id", profile.ID,
				"error", err,
			)
			continue
		}
		if !lastActive.Before(cutoff) {
			continue
		}
		if err := s.applyPenalty(profile, monthStamp, setting.PenaltyPercent); err != nil {
			logger.Warnw("sweep_penalty_apply_failed",
				"ambassador_id", profile.ID,
				"month", monthStamp,
				"error", err,
			)
		}
	}
	return nil
}

// lastActiveAt 取大使最近成单时间，无成单时从档案激活时间起算
func (s *SweepService) lastActiveAt(profile *models.AmbassadorProfile) (time.Time, error) {
	latest, err := s.ambassadorRepo.GetLatestEarning(profile.ID)
	if err != nil {
		return time.Time{}, err
	}
	if latest != nil {
		return latest.CreatedAt, nil
	}
	if profile.ReviewedAt != nil {
		return *profile.ReviewedAt, nil
	}
	return profile.CreatedAt, nil
}

func (s *SweepService) creditBonus(profile *models.AmbassadorProfile, monthStamp string, points int64) error {
	claimed, err := s.claimMonth(profile.UserID, constants.RewardTypeBonus, "bonus:"+monthStamp, points)
	if err != nil || !claimed {
		return err
	}
	account, _, err := s.ledgerService.Add(LedgerChangeInput{
		UserID:        profile.UserID,
		Points:        points,
		EntryType:     models.PointsEntryBonus,
		Description:   fmt.Sprintf("%s 月度业绩奖励", monthStamp),
		ReferenceType: "ambassador",
		ReferenceID:   fmt.Sprintf("%d", profile.ID),
	})
	if err != nil {
		return err
	}
	s.notify(profile.UserID, models.PointsEntryBonus, points, account)
	return nil
}

func (s *SweepService) applyPenalty(profile *models.AmbassadorProfile, monthStamp string, percent float64) error {
	balance, err := s.ledgerService.Balance(profile.UserID)
	if err != nil {
		return err
	}
	penalty := decimal.NewFromInt(balance).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Floor().IntPart()
	if penalty <= 0 {
		return nil
	}
	if penalty > balance {
		penalty = balance
	}
	claimed, err := s.claimMonth(profile.UserID, constants.RewardTypePenalty, "penalty:"+monthStamp, penalty)
	if err != nil || !claimed {
		return err
	}
	account, _, err := s.ledgerService.Deduct(LedgerChangeInput{
		UserID:        profile.UserID,
		Points:        penalty,
		EntryType:     models.PointsEntryPenalty,
		Description:   fmt.Sprintf("%s 不活跃扣减", monthStamp),
		ReferenceType: "ambassador",
		ReferenceID:   fmt.Sprintf("%d", profile.ID),
	})
	if err != nil {
		return err
	}
	s.notify(profile.UserID, models.PointsEntryPenalty, penalty, account)
	return nil
}

// claimMonth 落月度领取记录，唯一键冲突表示本月已结算过
func (s *SweepService) claimMonth(userID uint, rewardType, claimKey string, points int64) (bool, error) {
	claim := &models.RewardClaim{
		UserID:        userID,
		RewardType:    rewardType,
		ClaimKey:      claimKey,
		PointsAwarded: points,
		ClaimStatus:   models.ClaimStatusCompleted,
		CreatedAt:     time.Now(),
	}
	if err := s.claimRepo.Create(claim); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *SweepService) notify(userID uint, entryType string, points int64, account *models.RewardAccount) {
	if s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	var balance int64
	if account != nil {
		balance = account.Balance
	}
	if err := s.queueClient.EnqueueRewardNotifyEmail(queue.RewardNotifyEmailPayload{
		UserID:    userID,
		EntryType: entryType,
		Points:    points,
		Balance:   balance,
	}); err != nil {
		logger.Warnw("sweep_notify_enqueue_failed",
			"user_id", userID,
			"entry_type", entryType,
			"error", err,
		)
	}
}
