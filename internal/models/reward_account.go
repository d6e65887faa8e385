package models

import (
	"time"
)

// RewardAccount 用户积分账户（缓存余额，真实来源为积分流水表）
type RewardAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                // 主键
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"` // 用户ID
	Balance   int64     `gorm:"not null;default:0" json:"balance"`   // 当前积分余额
	CreatedAt time.Time `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`             // 更新时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
}

// TableName 指定表名
func (RewardAccount) TableName() string {
	return "reward_accounts"
}
