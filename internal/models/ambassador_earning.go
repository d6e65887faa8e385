package models

import "time"

// AmbassadorEarning 大使佣金记录
// (ambassador_id, order_id) 唯一索引保证同一订单对同一大使至多计佣一次。
type AmbassadorEarning struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                                           // 主键
	AmbassadorID     uint      `gorm:"not null;index;index:idx_ambassador_earning_unique,unique" json:"ambassador_id"` // 大使档案ID
	OrderID          uint      `gorm:"not null;index;index:idx_ambassador_earning_unique,unique" json:"order_id"`      // 订单ID
	OrderNo          string    `gorm:"type:varchar(64);not null;index" json:"order_no"`                                // 订单号
	OrderTotal       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"order_total"`                       // 订单金额
	BaseAmount       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"base_amount"`                       // 计佣基数
	RatePercent      Money     `gorm:"type:decimal(10,2);not null;default:0" json:"rate_percent"`                      // 佣金比例（百分比）
	CommissionAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount"`                 // 佣金金额
	PointsAwarded    int64     `gorm:"not null;default:0" json:"points_awarded"`                                       // 折算积分
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                                        // 创建时间

	Ambassador AmbassadorProfile `gorm:"foreignKey:AmbassadorID" json:"ambassador,omitempty"` // 大使档案
	Order      Order             `gorm:"foreignKey:OrderID" json:"order,omitempty"`           // 关联订单
}

// TableName 指定表名
func (AmbassadorEarning) TableName() string {
	return "ambassador_earnings"
}
