package repository

import (
	"errors"
	"strings"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
)

// ReviewRewardRepository 评价奖励数据访问接口
type ReviewRewardRepository interface {
	Create(review *models.ReviewReward) error
	Update(review *models.ReviewReward) error
	GetByID(id uint) (*models.ReviewReward, error)
	GetByUserPlatformRef(userID uint, platform, reviewRef string) (*models.ReviewReward, error)
	ListPending(limit int) ([]models.ReviewReward, error)
	List(filter ReviewRewardListFilter) ([]models.ReviewReward, int64, error)
	WithTx(tx *gorm.DB) ReviewRewardRepository
}

// GormReviewRewardRepository GORM 评价奖励仓储
type GormReviewRewardRepository struct {
	db *gorm.DB
}

// NewReviewRewardRepository 创建评价奖励仓储
func NewReviewRewardRepository(db *gorm.DB) *GormReviewRewardRepository {
	return &GormReviewRewardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReviewRewardRepository) WithTx(tx *gorm.DB) ReviewRewardRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRewardRepository{db: tx}
}

// Create 插入评价奖励记录，(user_id, platform, review_ref) 唯一冲突原样返回
func (r *GormReviewRewardRepository) Create(review *models.ReviewReward) error {
	return r.db.Create(review).Error
}

// Update 更新评价奖励记录
func (r *GormReviewRewardRepository) Update(review *models.ReviewReward) error {
	return r.db.Save(review).Error
}

// GetByID 按ID获取评价奖励记录
func (r *GormReviewRewardRepository) GetByID(id uint) (*models.ReviewReward, error) {
	if id == 0 {
		return nil, nil
	}
	var review models.ReviewReward
	if err := r.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// GetByUserPlatformRef 按用户、平台和评价引用获取记录
func (r *GormReviewRewardRepository) GetByUserPlatformRef(userID uint, platform, reviewRef string) (*models.ReviewReward, error) {
	if userID == 0 {
		return nil, nil
	}
	var review models.ReviewReward
	if err := r.db.Where("user_id = ? AND platform = ? AND review_ref = ?",
		userID, strings.TrimSpace(platform), strings.TrimSpace(reviewRef)).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// ListPending 查询待核验的评价奖励记录
func (r *GormReviewRewardRepository) ListPending(limit int) ([]models.ReviewReward, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []models.ReviewReward
	if err := r.db.Where("status = ?", models.ReviewStatusPending).
		Order("id asc").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 查询评价奖励记录列表
func (r *GormReviewRewardRepository) List(filter ReviewRewardListFilter) ([]models.ReviewReward, int64, error) {
	query := r.db.Model(&models.ReviewReward{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if platform := strings.TrimSpace(filter.Platform); platform != "" {
		query = query.Where("platform = ?", platform)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.ReviewReward
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
