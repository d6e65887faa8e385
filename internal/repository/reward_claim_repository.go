package repository

import (
	"errors"
	"strings"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
)

// RewardClaimRepository 奖励领取记录数据访问接口
type RewardClaimRepository interface {
	Create(claim *models.RewardClaim) error
	GetLatest(userID uint, rewardType string) (*models.RewardClaim, error)
	Get(userID uint, rewardType, claimKey string) (*models.RewardClaim, error)
	List(filter RewardClaimListFilter) ([]models.RewardClaim, int64, error)
	WithTx(tx *gorm.DB) RewardClaimRepository
}

// GormRewardClaimRepository GORM 奖励领取仓储
type GormRewardClaimRepository struct {
	db *gorm.DB
}

// NewRewardClaimRepository 创建奖励领取仓储
func NewRewardClaimRepository(db *gorm.DB) *GormRewardClaimRepository {
	return &GormRewardClaimRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRewardClaimRepository) WithTx(tx *gorm.DB) RewardClaimRepository {
	if tx == nil {
		return r
	}
	return &GormRewardClaimRepository{db: tx}
}

// Create 插入领取记录，唯一索引冲突原样返回，由调用方判定重复领取
func (r *GormRewardClaimRepository) Create(claim *models.RewardClaim) error {
	return r.db.Create(claim).Error
}

// GetLatest 查询用户某类奖励的最近一次领取
func (r *GormRewardClaimRepository) GetLatest(userID uint, rewardType string) (*models.RewardClaim, error) {
	if userID == 0 {
		return nil, nil
	}
	var row models.RewardClaim
	if err := r.db.Where("user_id = ? AND reward_type = ?", userID, strings.TrimSpace(rewardType)).
		Order("created_at desc, id desc").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Get 按幂等键查询领取记录
func (r *GormRewardClaimRepository) Get(userID uint, rewardType, claimKey string) (*models.RewardClaim, error) {
	if userID == 0 {
		return nil, nil
	}
	var row models.RewardClaim
	if err := r.db.Where("user_id = ? AND reward_type = ? AND claim_key = ?",
		userID, strings.TrimSpace(rewardType), strings.TrimSpace(claimKey)).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询领取记录列表
func (r *GormRewardClaimRepository) List(filter RewardClaimListFilter) ([]models.RewardClaim, int64, error) {
	query := r.db.Model(&models.RewardClaim{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if rewardType := strings.TrimSpace(filter.RewardType); rewardType != "" {
		query = query.Where("reward_type = ?", rewardType)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.RewardClaim
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
