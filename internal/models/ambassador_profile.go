package models

import (
	"time"

	"gorm.io/gorm"
)

// 大使档案状态
const (
	AmbassadorStatusPending  = "pending"  // 待审核
	AmbassadorStatusActive   = "active"   // 已通过
	AmbassadorStatusRejected = "rejected" // 已拒绝
)

// AmbassadorProfile 品牌大使档案
// 累计收益/累计成单不落库，读取时由 ambassador_earnings 聚合得出。
type AmbassadorProfile struct {
	ID         uint           `gorm:"primarykey" json:"id"`                          // 主键
	UserID     uint           `gorm:"not null;uniqueIndex" json:"user_id"`           // 用户ID
	CodeID     *uint          `gorm:"index" json:"code_id,omitempty"`                // 大使码ID（审核通过后签发）
	Status     string         `gorm:"type:varchar(20);not null;index" json:"status"` // 状态
	AppliedAt  time.Time      `gorm:"index" json:"applied_at"`                       // 申请时间
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`                         // 审核时间
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	User User          `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
	Code *ReferralCode `gorm:"foreignKey:CodeID" json:"code,omitempty"` // 大使码
}

// TableName 指定表名
func (AmbassadorProfile) TableName() string {
	return "ambassador_profiles"
}
