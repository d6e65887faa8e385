package models

import "time"

// 评价奖励核验状态
const (
	ReviewStatusPending  = "pending"  // 待核验
	ReviewStatusVerified = "verified" // 已核验
	ReviewStatusRejected = "rejected" // 已拒绝
)

// ReviewReward 评价奖励记录
// (user_id, platform, review_ref) 唯一索引保证同一评价只奖励一次。
type ReviewReward struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                                                                 // 主键
	UserID        uint       `gorm:"not null;index;index:idx_review_reward_unique,unique" json:"user_id"`                                  // 用户ID
	Platform      string     `gorm:"type:varchar(32);not null;default:'trustpilot';index:idx_review_reward_unique,unique" json:"platform"` // 评价平台
	ReviewRef     string     `gorm:"type:varchar(128);not null;index:idx_review_reward_unique,unique" json:"review_ref"`                   // 平台侧评价标识
	PointsAwarded int64      `gorm:"not null;default:0" json:"points_awarded"`                                                             // 发放积分
	Status        string     `gorm:"type:varchar(20);not null;index" json:"status"`                                                        // 核验状态
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`                                                                                // 核验时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                                                              // 创建时间
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`                                                                              // 更新时间
}

// TableName 指定表名
func (ReviewReward) TableName() string {
	return "review_rewards"
}
