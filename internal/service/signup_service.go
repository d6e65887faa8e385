package service

import (
	"strings"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"

	"gorm.io/gorm"
)

// SignupService 注册奖励服务
type SignupService struct {
	claimRepo      repository.RewardClaimRepository
	ledgerService  *LedgerService
	settingService *SettingService
}

// SignupClaimInput 注册奖励领取输入
type SignupClaimInput struct {
	UserID    uint
	ClientIP  string
	UserAgent string
}

// NewSignupService 创建注册奖励服务
func NewSignupService(
	claimRepo repository.RewardClaimRepository,
	ledgerService *LedgerService,
	settingService *SettingService,
) *SignupService {
	return &SignupService{
		claimRepo:      claimRepo,
		ledgerService:  ledgerService,
		settingService: settingService,
	}
}

// Claim 领取注册奖励。
// 冷却窗口为 0 时终身一次；否则按窗口起点生成幂等键，窗口内重复领取被唯一索引拒绝。
func (s *SignupService) Claim(input SignupClaimInput) (*models.RewardClaim, error) {
	if input.UserID == 0 || s.claimRepo == nil || s.ledgerService == nil {
		return nil, ErrNotFound
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled || setting.SignupPoints <= 0 {
		return nil, ErrAlreadyClaimed
	}

	now := time.Now()
	claimKey := ""
	if setting.SignupCooldownDays > 0 {
		latest, err := s.claimRepo.GetLatest(input.UserID, constants.RewardTypeSignup)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			cooldown := time.Duration(setting.SignupCooldownDays) * 24 * time.Hour
			if now.Sub(latest.CreatedAt) < cooldown {
				return nil, ErrAlreadyClaimed
			}
			claimKey = now.Format("2006-01-02")
		}
	}

	var claimResult *models.RewardClaim
	err = s.ledgerService.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		claim := &models.RewardClaim{
			UserID:        input.UserID,
			RewardType:    constants.RewardTypeSignup,
			ClaimKey:      claimKey,
			PointsAwarded: setting.SignupPoints,
			ClaimStatus:   models.ClaimStatusCompleted,
			ClientIP:      strings.TrimSpace(input.ClientIP),
			UserAgent:     strings.TrimSpace(input.UserAgent),
			CreatedAt:     now,
		}
		if err := s.claimRepo.WithTx(tx).Create(claim); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyClaimed
			}
			return err
		}
		if _, _, err := s.ledgerService.CreditInTx(tx, LedgerChangeInput{
			UserID:        input.UserID,
			Points:        setting.SignupPoints,
			EntryType:     models.PointsEntrySignup,
			Description:   "注册奖励",
			ReferenceType: "reward_claim",
		}); err != nil {
			return err
		}
		claimResult = claim
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimResult, nil
}
