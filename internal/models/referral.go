package models

import "time"

// 推荐记录状态
const (
	ReferralStatusPending   = "pending"   // 待完成
	ReferralStatusCompleted = "completed" // 已完成
)

// Referral 推荐记录表（referee 唯一，一个用户只能被推荐一次）
type Referral struct {
	ID             uint       `gorm:"primarykey" json:"id"`                          // 主键
	ReferralCodeID uint       `gorm:"not null;index" json:"referral_code_id"`        // 推荐码ID
	ReferrerID     uint       `gorm:"not null;index" json:"referrer_id"`             // 推荐人ID
	RefereeID      uint       `gorm:"not null;uniqueIndex" json:"referee_id"`        // 被推荐人ID
	PointsReferrer int64      `gorm:"not null;default:0" json:"points_referrer"`     // 推荐人获得积分
	PointsReferee  int64      `gorm:"not null;default:0" json:"points_referee"`      // 被推荐人获得积分
	Status         string     `gorm:"type:varchar(20);not null;index" json:"status"` // 状态
	ClientIP       string     `gorm:"type:varchar(64)" json:"client_ip"`             // 客户端IP
	UserAgent      string     `gorm:"type:varchar(1024)" json:"user_agent"`          // 客户端UA
	CompletedAt    *time.Time `gorm:"index" json:"completed_at,omitempty"`           // 完成时间
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt      time.Time  `gorm:"index" json:"updated_at"`                       // 更新时间

	ReferralCode ReferralCode `gorm:"foreignKey:ReferralCodeID" json:"referral_code,omitempty"` // 推荐码
	Referrer     User         `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`          // 推荐人
	Referee      User         `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`            // 被推荐人
}

// TableName 指定表名
func (Referral) TableName() string {
	return "referrals"
}
