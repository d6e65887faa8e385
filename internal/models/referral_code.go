package models

import (
	"time"

	"gorm.io/gorm"
)

// 推荐码类型
const (
	CodeKindReferral   = "referral"   // 普通推荐码
	CodeKindAmbassador = "ambassador" // 品牌大使码
)

// ReferralCode 推荐码表
type ReferralCode struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                                     // 主键
	UserID     uint           `gorm:"not null;index:idx_referral_code_owner_kind" json:"user_id"`               // 所属用户ID
	Kind       string         `gorm:"type:varchar(16);not null;index:idx_referral_code_owner_kind" json:"kind"` // 码类型
	Code       string         `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`                        // 推荐码
	IsActive   bool           `gorm:"not null;default:true;index" json:"is_active"`                             // 是否有效
	UsageCount int64          `gorm:"not null;default:0" json:"usage_count"`                                    // 使用次数
	ExpiresAt  *time.Time     `gorm:"index" json:"expires_at,omitempty"`                                        // 过期时间（空=永久）
	LastUsedAt *time.Time     `json:"last_used_at,omitempty"`                                                   // 最近使用时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                                  // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                                                  // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                                           // 软删除时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 所属用户
}

// TableName 指定表名
func (ReferralCode) TableName() string {
	return "referral_codes"
}

// Expired 判断推荐码在指定时间是否已过期
func (c *ReferralCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
