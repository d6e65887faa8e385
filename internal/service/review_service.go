package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/queue"
	"github.com/loyaltycore/internal/repository"
	"github.com/loyaltycore/internal/trustpilot"

	"gorm.io/gorm"
)

const reviewVerifyRetryDelay = 10 * time.Minute

// ReviewService 评价奖励服务
type ReviewService struct {
	reviewRepo     repository.ReviewRewardRepository
	userRepo       repository.UserRepository
	ledgerService  *LedgerService
	settingService *SettingService
	queueClient    *queue.Client
}

// ReviewSubmitInput 评价奖励申报输入
type ReviewSubmitInput struct {
	UserID    uint
	Platform  string
	ReviewRef string
}

// NewReviewService 创建评价奖励服务
func NewReviewService(
	reviewRepo repository.ReviewRewardRepository,
	userRepo repository.UserRepository,
	ledgerService *LedgerService,
	settingService *SettingService,
	queueClient *queue.Client,
) *ReviewService {
	return &ReviewService{
		reviewRepo:     reviewRepo,
		userRepo:       userRepo,
		ledgerService:  ledgerService,
		settingService: settingService,
		queueClient:    queueClient,
	}
}

// Submit 申报平台评价，落为待核验记录并推送核验任务
func (s *ReviewService) Submit(input ReviewSubmitInput) (*models.ReviewReward, error) {
	if input.UserID == 0 || s.reviewRepo == nil {
		return nil, ErrNotFound
	}
	platform := strings.ToLower(strings.TrimSpace(input.Platform))
	if platform == "" {
		platform = constants.ReviewPlatformTrustpilot
	}
	reviewRef := strings.TrimSpace(input.ReviewRef)
	if reviewRef == "" {
		return nil, ErrReviewNotOwned
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return nil, err
	}
	if !setting.Enabled || setting.ReviewPoints <= 0 {
		return nil, ErrReviewAlreadyRewarded
	}

	now := time.Now()
	review := &models.ReviewReward{
		UserID:    input.UserID,
		Platform:  platform,
		ReviewRef: reviewRef,
		Status:    models.ReviewStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrReviewAlreadyRewarded
		}
		return nil, err
	}

	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueReviewVerify(queue.ReviewVerifyPayload{ReviewRewardID: review.ID}, 0); err != nil {
			logger.Warnw("review_enqueue_verify_failed",
				"review_reward_id", review.ID,
				"error", err,
			)
		}
		return review, nil
	}

	// 队列未启用时同步核验，平台侧暂不可用则保持待核验
	if err := s.Verify(context.Background(), review.ID); err != nil && !errors.Is(err, ErrReviewVerifyUnavailable) {
		return nil, err
	}
	return s.reviewRepo.GetByID(review.ID)
}

// Verify 核验评价真实性并发放奖励。
// 状态从 pending 单向推进，UPDATE 条件命中失败视为已被并发处理。
func (s *ReviewService) Verify(ctx context.Context, reviewRewardID uint) error {
	if reviewRewardID == 0 || s.reviewRepo == nil || s.ledgerService == nil {
		return nil
	}
	review, err := s.reviewRepo.GetByID(reviewRewardID)
	if err != nil {
		return err
	}
	if review == nil || review.Status != models.ReviewStatusPending {
		return nil
	}
	user, err := s.userRepo.GetByID(review.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return s.reject(review)
	}

	cfg, err := s.trustpilotConfig()
	if err != nil {
		return ErrReviewVerifyUnavailable
	}
	remote, err := trustpilot.GetReview(ctx, cfg, review.ReviewRef)
	if err != nil {
		if errors.Is(err, trustpilot.ErrReviewNotFound) {
			return s.reject(review)
		}
		// 平台侧瞬时故障，留待下次重试
		logger.Warnw("review_verify_platform_unavailable",
			"review_reward_id", review.ID,
			"error", err,
		)
		return ErrReviewVerifyUnavailable
	}
	if remote.ConsumerEmail != strings.ToLower(strings.TrimSpace(user.Email)) {
		return s.reject(review)
	}

	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return err
	}
	if setting.ReviewPoints <= 0 {
		return s.reject(review)
	}

	return s.ledgerService.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.ReviewReward{}).
			Where("id = ? AND status = ?", review.ID, models.ReviewStatusPending).
			Updates(map[string]interface{}{
				"status":         models.ReviewStatusVerified,
				"points_awarded": setting.ReviewPoints,
				"verified_at":    now,
				"updated_at":     now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		_, _, err := s.ledgerService.CreditInTx(tx, LedgerChangeInput{
			UserID:        review.UserID,
			Points:        setting.ReviewPoints,
			EntryType:     models.PointsEntryReview,
			Description:   fmt.Sprintf("%s 评价奖励", review.Platform),
			ReferenceType: "review_reward",
			ReferenceID:   review.ReviewRef,
		})
		return err
	})
}

// RetryDelay 核验重试间隔
func (s *ReviewService) RetryDelay() time.Duration {
	return reviewVerifyRetryDelay
}

// List 查询评价奖励记录
func (s *ReviewService) List(filter repository.ReviewRewardListFilter) ([]models.ReviewReward, int64, error) {
	if s.reviewRepo == nil {
		return []models.ReviewReward{}, 0, nil
	}
	return s.reviewRepo.List(filter)
}

func (s *ReviewService) reject(review *models.ReviewReward) error {
	now := time.Now()
	review.Status = models.ReviewStatusRejected
	review.UpdatedAt = now
	return s.reviewRepo.Update(review)
}

func (s *ReviewService) trustpilotConfig() (*trustpilot.Config, error) {
	value, err := s.settingService.GetByKey(constants.SettingKeyTrustpilotConfig)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, trustpilot.ErrConfigInvalid
	}
	cfg, err := trustpilot.ParseConfig(map[string]interface{}(value))
	if err != nil {
		return nil, err
	}
	if err := trustpilot.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
