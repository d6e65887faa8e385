package models

import "time"

// ReferralEmailAssociation 推荐码与邮箱的关联（游客下单后补登记用）
type ReferralEmailAssociation struct {
	ID        uint       `gorm:"primarykey" json:"id"`                                // 主键
	Email     string     `gorm:"type:varchar(128);not null;uniqueIndex" json:"email"` // 邮箱（小写）
	Code      string     `gorm:"type:varchar(32);not null;index" json:"code"`         // 推荐码
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"`                   // 过期时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`                             // 更新时间
}

// TableName 指定表名
func (ReferralEmailAssociation) TableName() string {
	return "referral_email_associations"
}
