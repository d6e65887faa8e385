package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttributionRepository 推荐归因数据访问接口（点击记录与邮箱关联）
type AttributionRepository interface {
	CreateClick(click *models.ReferralClick) error
	HasRecentClick(code, visitorKey string, since time.Time) (bool, error)
	GetLatestClickByVisitorKey(visitorKey string, since time.Time) (*models.ReferralClick, error)
	UpsertEmailAssociation(assoc *models.ReferralEmailAssociation) error
	GetEmailAssociation(email string, now time.Time) (*models.ReferralEmailAssociation, error)
	DeleteEmailAssociation(email string) error
	DeleteExpiredEmailAssociations(before time.Time) (int64, error)
	WithTx(tx *gorm.DB) AttributionRepository
}

// GormAttributionRepository GORM 推荐归因仓储
type GormAttributionRepository struct {
	db *gorm.DB
}

// NewAttributionRepository 创建推荐归因仓储
func NewAttributionRepository(db *gorm.DB) *GormAttributionRepository {
	return &GormAttributionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAttributionRepository) WithTx(tx *gorm.DB) AttributionRepository {
	if tx == nil {
		return r
	}
	return &GormAttributionRepository{db: tx}
}

// CreateClick 创建点击记录
func (r *GormAttributionRepository) CreateClick(click *models.ReferralClick) error {
	return r.db.Create(click).Error
}

// HasRecentClick 查询访客近期是否已有同码点击（去重窗口）
func (r *GormAttributionRepository) HasRecentClick(code, visitorKey string, since time.Time) (bool, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	key := strings.TrimSpace(visitorKey)
	if normalized == "" || key == "" {
		return false, nil
	}
	var total int64
	err := r.db.Model(&models.ReferralClick{}).
		Where("code = ? AND visitor_key = ? AND created_at >= ?", normalized, key, since).
		Count(&total).Error
	if err != nil {
		return false, err
	}
	return total > 0, nil
}

// GetLatestClickByVisitorKey 查询访客窗口内最近一次点击
func (r *GormAttributionRepository) GetLatestClickByVisitorKey(visitorKey string, since time.Time) (*models.ReferralClick, error) {
	key := strings.TrimSpace(visitorKey)
	if key == "" {
		return nil, nil
	}
	var row models.ReferralClick
	if err := r.db.Where("visitor_key = ? AND created_at >= ?", key, since).
		Order("created_at desc, id desc").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// UpsertEmailAssociation 写入或刷新邮箱与推荐码的关联（最近记录覆盖旧记录）
func (r *GormAttributionRepository) UpsertEmailAssociation(assoc *models.ReferralEmailAssociation) error {
	if assoc == nil {
		return nil
	}
	assoc.Email = strings.ToLower(strings.TrimSpace(assoc.Email))
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at", "updated_at"}),
	}).Create(assoc).Error
}

// GetEmailAssociation 查询未过期的邮箱关联
func (r *GormAttributionRepository) GetEmailAssociation(email string, now time.Time) (*models.ReferralEmailAssociation, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, nil
	}
	var row models.ReferralEmailAssociation
	if err := r.db.Where("email = ? AND (expires_at IS NULL OR expires_at > ?)", normalized, now).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// DeleteEmailAssociation 删除邮箱关联（归因消费后清除）
func (r *GormAttributionRepository) DeleteEmailAssociation(email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil
	}
	return r.db.Where("email = ?", normalized).Delete(&models.ReferralEmailAssociation{}).Error
}

// DeleteExpiredEmailAssociations 清理过期邮箱关联
func (r *GormAttributionRepository) DeleteExpiredEmailAssociations(before time.Time) (int64, error) {
	result := r.db.Where("expires_at IS NOT NULL AND expires_at <= ?", before).
		Delete(&models.ReferralEmailAssociation{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
