package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
)

// ReferralRepository 推荐记录数据访问接口
type ReferralRepository interface {
	Create(referral *models.Referral) error
	Update(referral *models.Referral) error
	GetByRefereeID(refereeID uint) (*models.Referral, error)
	CountCompletedByReferrerSince(referrerID uint, since time.Time) (int64, error)
	LatestCompletedByReferrer(referrerID uint) (*models.Referral, error)
	List(filter ReferralListFilter) ([]models.Referral, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralRepository
}

// GormReferralRepository GORM 推荐记录仓储
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐记录仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建推荐记录（referee 唯一索引冲突时报错，由调用方判定重复推荐）
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// Update 更新推荐记录
func (r *GormReferralRepository) Update(referral *models.Referral) error {
	return r.db.Save(referral).Error
}

// GetByRefereeID 按被推荐人查询推荐记录
func (r *GormReferralRepository) GetByRefereeID(refereeID uint) (*models.Referral, error) {
	if refereeID == 0 {
		return nil, nil
	}
	var row models.Referral
	if err := r.db.Where("referee_id = ?", refereeID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CountCompletedByReferrerSince 统计推荐人自某时刻起的已完成推荐数（月度上限用）
func (r *GormReferralRepository) CountCompletedByReferrerSince(referrerID uint, since time.Time) (int64, error) {
	if referrerID == 0 {
		return 0, nil
	}
	var total int64
	err := r.db.Model(&models.Referral{}).
		Where("referrer_id = ? AND status = ? AND completed_at >= ?",
			referrerID, models.ReferralStatusCompleted, since).
		Count(&total).Error
	return total, err
}

// LatestCompletedByReferrer 查询推荐人最近一次完成的推荐
func (r *GormReferralRepository) LatestCompletedByReferrer(referrerID uint) (*models.Referral, error) {
	if referrerID == 0 {
		return nil, nil
	}
	var row models.Referral
	if err := r.db.Where("referrer_id = ? AND status = ?", referrerID, models.ReferralStatusCompleted).
		Order("completed_at desc, id desc").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 查询推荐记录列表
func (r *GormReferralRepository) List(filter ReferralListFilter) ([]models.Referral, int64, error) {
	query := r.db.Model(&models.Referral{}).
		Preload("Referrer").
		Preload("Referee").
		Preload("ReferralCode")
	if filter.ReferrerID != 0 {
		query = query.Where("referrals.referrer_id = ?", filter.ReferrerID)
	}
	if filter.RefereeID != 0 {
		query = query.Where("referrals.referee_id = ?", filter.RefereeID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("referrals.status = ?", status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("referrals.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("referrals.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Referral
	if err := query.Order("referrals.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
