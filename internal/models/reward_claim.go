package models

import "time"

// 奖励领取状态
const (
	ClaimStatusCompleted = "completed" // 已完成
	ClaimStatusReversed  = "reversed"  // 已冲销
)

// RewardClaim 奖励领取记录（唯一索引即幂等闸门：插入失败视为已领取）
type RewardClaim struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                                                       // 主键
	UserID        uint      `gorm:"not null;index;index:idx_reward_claim_unique,unique" json:"user_id"`                         // 用户ID
	RewardType    string    `gorm:"type:varchar(32);not null;index;index:idx_reward_claim_unique,unique" json:"reward_type"`    // 奖励类型
	ClaimKey      string    `gorm:"type:varchar(64);not null;default:'';index:idx_reward_claim_unique,unique" json:"claim_key"` // 幂等键（窗口标识/订单号等）
	PointsAwarded int64     `gorm:"not null;default:0" json:"points_awarded"`                                                   // 发放积分
	ClaimStatus   string    `gorm:"type:varchar(20);not null;default:'completed'" json:"claim_status"`                          // 领取状态
	ClientIP      string    `gorm:"type:varchar(64)" json:"client_ip"`                                                          // 客户端IP
	UserAgent     string    `gorm:"type:varchar(1024)" json:"user_agent"`                                                       // 客户端UA
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                                                    // 领取时间
}

// TableName 指定表名
func (RewardClaim) TableName() string {
	return "reward_claims"
}
