package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
)

// ReferralCodeRepository 推荐码数据访问接口
type ReferralCodeRepository interface {
	Create(code *models.ReferralCode) error
	Update(code *models.ReferralCode) error
	GetByID(id uint) (*models.ReferralCode, error)
	GetByCode(code string) (*models.ReferralCode, error)
	GetActiveByUserAndKind(userID uint, kind string) (*models.ReferralCode, error)
	Deactivate(id uint, updatedAt time.Time) error
	BumpUsage(id uint, usedAt time.Time) error
	WithTx(tx *gorm.DB) ReferralCodeRepository
}

// GormReferralCodeRepository GORM 推荐码仓储
type GormReferralCodeRepository struct {
	db *gorm.DB
}

// NewReferralCodeRepository 创建推荐码仓储
func NewReferralCodeRepository(db *gorm.DB) *GormReferralCodeRepository {
	return &GormReferralCodeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralCodeRepository) WithTx(tx *gorm.DB) ReferralCodeRepository {
	if tx == nil {
		return r
	}
	return &GormReferralCodeRepository{db: tx}
}

// Create 创建推荐码
func (r *GormReferralCodeRepository) Create(code *models.ReferralCode) error {
	return r.db.Create(code).Error
}

// Update 更新推荐码
func (r *GormReferralCodeRepository) Update(code *models.ReferralCode) error {
	return r.db.Save(code).Error
}

// GetByID 按ID获取推荐码
func (r *GormReferralCodeRepository) GetByID(id uint) (*models.ReferralCode, error) {
	if id == 0 {
		return nil, nil
	}
	var code models.ReferralCode
	if err := r.db.First(&code, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

// GetByCode 按码值获取推荐码
func (r *GormReferralCodeRepository) GetByCode(code string) (*models.ReferralCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var row models.ReferralCode
	if err := r.db.Where("code = ?", normalized).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetActiveByUserAndKind 获取用户当前有效的推荐码
func (r *GormReferralCodeRepository) GetActiveByUserAndKind(userID uint, kind string) (*models.ReferralCode, error) {
	if userID == 0 {
		return nil, nil
	}
	var row models.ReferralCode
	if err := r.db.Where("user_id = ? AND kind = ? AND is_active = ?", userID, strings.TrimSpace(kind), true).
		Order("id desc").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Deactivate 软失效推荐码
func (r *GormReferralCodeRepository) Deactivate(id uint, updatedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.ReferralCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": updatedAt,
		}).Error
}

// BumpUsage 递增使用次数并记录最近使用时间
func (r *GormReferralCodeRepository) BumpUsage(id uint, usedAt time.Time) error {
	if id == 0 {
		return nil
	}
	return r.db.Model(&models.ReferralCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": usedAt,
			"updated_at":   usedAt,
		}).Error
}
