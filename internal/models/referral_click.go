package models

import "time"

// ReferralClick 推荐码落地访问记录（会话/Cookie 渠道的服务端存档）
type ReferralClick struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                       // 主键
	Code        string    `gorm:"type:varchar(32);not null;index" json:"code"`                // 推荐码
	VisitorKey  string    `gorm:"type:varchar(128);index" json:"visitor_key"`                 // 访客标识
	LandingPath string    `gorm:"type:varchar(512)" json:"landing_path"`                      // 落地页面路径
	ClientIP    string    `gorm:"type:varchar(64)" json:"client_ip"`                          // 客户端IP
	UserAgent   string    `gorm:"type:varchar(1024)" json:"user_agent"`                       // 客户端UA
	CreatedAt   time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间
}

// TableName 指定表名
func (ReferralClick) TableName() string {
	return "referral_clicks"
}
