package models

import (
	"time"

	"gorm.io/gorm"
)

// 订单快照状态（以商城侧回调为准）
const (
	OrderStatusCreated   = "created"   // 已创建
	OrderStatusCompleted = "completed" // 已完成
	OrderStatusRefunded  = "refunded"  // 已退款
)

// 归因渠道
const (
	AttributionSession = "session" // 会话携带
	AttributionEmail   = "email"   // 邮箱关联
	AttributionVisitor = "visitor" // 访客点击记录
	AttributionCookie  = "cookie"  // 客户端 Cookie
)

// Order 商城订单快照（由商城侧事件回调写入，游客订单 UserID 为 0）
type Order struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo            string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID             uint           `gorm:"index;not null" json:"user_id,omitempty"`                      // 用户ID（游客订单为 0）
	BillingEmail       string         `gorm:"type:varchar(128);index" json:"billing_email,omitempty"`       // 账单邮箱（小写）
	Status             string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	Currency           string         `gorm:"not null" json:"currency"`                                     // 币种
	TotalAmount        Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 订单总额
	TaxAmount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`      // 税额
	SubtotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"` // 商品小计
	ReferralCode       string         `gorm:"type:varchar(32);index" json:"referral_code,omitempty"`        // 捕获的推荐码
	AmbassadorCode     string         `gorm:"type:varchar(32);index" json:"ambassador_code,omitempty"`      // 捕获的大使码
	AttributionChannel string         `gorm:"type:varchar(16)" json:"attribution_channel,omitempty"`        // 归因渠道
	RedeemedPoints     int64          `gorm:"not null;default:0" json:"redeemed_points"`                    // 抵扣积分
	ClientIP           string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                  // 下单客户端IP
	CompletedAt        *time.Time     `gorm:"index" json:"completed_at"`                                    // 完成时间
	RefundedAt         *time.Time     `gorm:"index" json:"refunded_at"`                                     // 退款时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt          time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// Guest 判断是否为游客订单
func (o *Order) Guest() bool {
	return o.UserID == 0
}
