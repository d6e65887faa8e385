package repository

import (
	"time"

	"github.com/loyaltycore/internal/models"
)

// PointsLogListFilter 查询积分流水列表的过滤条件
type PointsLogListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	EntryType   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ReferralListFilter 查询推荐记录列表的过滤条件
type ReferralListFilter struct {
	Page        int
	PageSize    int
	ReferrerID  uint
	RefereeID   uint
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// RewardClaimListFilter 查询奖励领取记录列表的过滤条件
type RewardClaimListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	RewardType  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuthzAuditLogListFilter 查询权限审计日志列表的过滤条件
type AuthzAuditLogListFilter struct {
	Page            int
	PageSize        int
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
	Role            string
	Object          string
	Method          string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
}

// OrderListFilter 查询订单快照列表的过滤条件
type OrderListFilter struct {
	Page         int
	PageSize     int
	UserID       uint
	Status       string
	OrderNo      string
	BillingEmail string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// AmbassadorListFilter 查询大使档案列表的过滤条件
type AmbassadorListFilter struct {
	Page     int
	PageSize int
	Status   string
	Keyword  string
}

// AmbassadorEarningListFilter 查询大使佣金列表的过滤条件
type AmbassadorEarningListFilter struct {
	Page         int
	PageSize     int
	AmbassadorID uint
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// AmbassadorStatsAggregate 大使统计聚合结果
type AmbassadorStatsAggregate struct {
	OrderCount      int64        // 计佣订单数
	TotalCommission models.Money // 累计佣金金额
	TotalPoints     int64        // 累计折算积分
}

// ReviewRewardListFilter 查询评价奖励列表的过滤条件
type ReviewRewardListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Platform string
	Status   string
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page          int
	PageSize      int
	Keyword       string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	LastLoginFrom *time.Time
	LastLoginTo   *time.Time
}

// UserLoginLogListFilter 查询用户登录日志列表的过滤条件
type UserLoginLogListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Email       string
	Status      string
	FailReason  string
	ClientIP    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
