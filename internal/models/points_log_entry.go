package models

import "time"

// 积分流水类型
const (
	PointsEntrySignup     = "signup"                // 注册奖励
	PointsEntryReferral   = "referral"              // 推荐奖励
	PointsEntryReview     = "review"                // 评价奖励
	PointsEntryRedemption = "redemption"            // 结算抵扣
	PointsEntryManual     = "manual"                // 人工调整
	PointsEntryRefund     = "refund"                // 退款返还
	PointsEntryCommission = "ambassador_commission" // 大使佣金
	PointsEntryBonus      = "bonus"                 // 月度业绩奖励
	PointsEntryPenalty    = "penalty"               // 不活跃扣罚
)

// PointsLogEntry 积分流水表（只追加，余额快照随行记录）
type PointsLogEntry struct {
	ID            uint      `gorm:"primarykey" json:"id"`                              // 主键
	UserID        uint      `gorm:"not null;index" json:"user_id"`                     // 用户ID
	Points        int64     `gorm:"not null" json:"points"`                            // 积分变动（带符号）
	EntryType     string    `gorm:"type:varchar(32);not null;index" json:"entry_type"` // 流水类型
	Description   string    `gorm:"type:varchar(255)" json:"description"`              // 说明
	ReferenceType string    `gorm:"type:varchar(32);index" json:"reference_type"`      // 关联对象类型
	ReferenceID   string    `gorm:"type:varchar(64);index" json:"reference_id"`        // 关联对象标识
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`                    // 变动前余额
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`                     // 变动后余额
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                           // 创建时间
}

// TableName 指定表名
func (PointsLogEntry) TableName() string {
	return "points_log_entries"
}

// ValidPointsEntryType 判断流水类型是否合法
func ValidPointsEntryType(entryType string) bool {
	switch entryType {
	case PointsEntrySignup, PointsEntryReferral, PointsEntryReview,
		PointsEntryRedemption, PointsEntryManual, PointsEntryRefund,
		PointsEntryCommission, PointsEntryBonus, PointsEntryPenalty:
		return true
	}
	return false
}
