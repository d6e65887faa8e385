package repository

import (
	"fmt"
	"time"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetProgramStats() (DashboardProgramStatsRow, error)
	GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error)
	GetPointsTrends(startAt, endAt time.Time) ([]DashboardPointsTrendRow, error)
	GetTopReferrers(startAt, endAt time.Time, limit int) ([]DashboardReferrerRankingRow, error)
	GetTopAmbassadors(startAt, endAt time.Time, limit int) ([]DashboardAmbassadorRankingRow, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal        int64
	CompletedOrders    int64
	RefundedOrders     int64
	AttributedOrders   int64
	CompletedAmount    float64
	PointsIssued       int64
	PointsSpent        int64
	ReferralsCompleted int64
	NewUsers           int64
	Currency           string
}

// DashboardProgramStatsRow 奖励计划即时状态统计
type DashboardProgramStatsRow struct {
	ActiveAmbassadors  int64
	PendingAmbassadors int64
	PendingReviews     int64
	PointsLiability    int64
}

// DashboardOrderTrendRow 订单趋势统计
type DashboardOrderTrendRow struct {
	Day             string
	OrdersTotal     int64
	OrdersCompleted int64
}

// DashboardPointsTrendRow 积分趋势统计
type DashboardPointsTrendRow struct {
	Day          string
	PointsIssued int64
	PointsSpent  int64
}

// DashboardReferrerRankingRow 推荐人排行原始行
type DashboardReferrerRankingRow struct {
	ReferrerID     uint
	ReferrerEmail  string
	ReferralCount  int64
	PointsReferrer int64
}

// DashboardAmbassadorRankingRow 大使排行原始行
type DashboardAmbassadorRankingRow struct {
	AmbassadorID     uint
	UserID           uint
	UserEmail        string
	OrderCount       int64
	CommissionAmount float64
	PointsAwarded    int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", models.OrderStatusCompleted).Count(&result.CompletedOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", models.OrderStatusRefunded).Count(&result.RefundedOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("attribution_channel <> ''").Count(&result.AttributedOrders).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Order{}).
		Where("completed_at IS NOT NULL AND completed_at >= ? AND completed_at < ? AND status = ?", startAt, endAt, models.OrderStatusCompleted).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.CompletedAmount).Error; err != nil {
		return result, err
	}

	entryBase := func() *gorm.DB {
		return r.db.Model(&models.PointsLogEntry{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}
	if err := entryBase().Where("points > 0").
		Select("COALESCE(SUM(points), 0)").
		Scan(&result.PointsIssued).Error; err != nil {
		return result, err
	}
	if err := entryBase().Where("points < 0").
		Select("COALESCE(SUM(-points), 0)").
		Scan(&result.PointsSpent).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Referral{}).
		Where("completed_at IS NOT NULL AND completed_at >= ? AND completed_at < ? AND status = ?", startAt, endAt, models.ReferralStatusCompleted).
		Count(&result.ReferralsCompleted).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewUsers).Error; err != nil {
		return result, err
	}

	_ = r.db.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ? AND currency <> ''", startAt, endAt).
		Order("id DESC").
		Limit(1).
		Pluck("currency", &result.Currency).Error

	return result, nil
}

// GetProgramStats 获取奖励计划即时状态，不受时间窗口约束
func (r *GormDashboardRepository) GetProgramStats() (DashboardProgramStatsRow, error) {
	result := DashboardProgramStatsRow{}

	if err := r.db.Model(&models.AmbassadorProfile{}).
		Where("status = ?", models.AmbassadorStatusActive).
		Count(&result.ActiveAmbassadors).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.AmbassadorProfile{}).
		Where("status = ?", models.AmbassadorStatusPending).
		Count(&result.PendingAmbassadors).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.ReviewReward{}).
		Where("status = ?", models.ReviewStatusPending).
		Count(&result.PendingReviews).Error; err != nil {
		return result, err
	}

	// 未消费积分即平台负债
	if err := r.db.Model(&models.RewardAccount{}).
		Where("balance > 0").
		Select("COALESCE(SUM(balance), 0)").
		Scan(&result.PointsLiability).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetOrderTrends 获取订单趋势
func (r *GormDashboardRepository) GetOrderTrends(startAt, endAt time.Time) ([]DashboardOrderTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type completedRow struct {
		Day       string
		Completed int64
	}

	var totals []totalRow
	dayExpr := "CAST(date(created_at) AS TEXT)"
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var completeds []completedRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as completed", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status = ?", startAt, endAt, models.OrderStatusCompleted).
		Group(dayExpr).
		Order("day asc").
		Scan(&completeds).Error; err != nil {
		return nil, err
	}

	completedMap := make(map[string]int64, len(completeds))
	for _, item := range completeds {
		completedMap[item.Day] = item.Completed
	}

	result := make([]DashboardOrderTrendRow, 0, len(totals))
	for _, item := range totals {
		result = append(result, DashboardOrderTrendRow{
			Day:             item.Day,
			OrdersTotal:     item.Total,
			OrdersCompleted: completedMap[item.Day],
		})
	}
	return result, nil
}

// GetPointsTrends 获取积分发放与消费趋势
func (r *GormDashboardRepository) GetPointsTrends(startAt, endAt time.Time) ([]DashboardPointsTrendRow, error) {
	type sumRow struct {
		Day   string
		Total int64
	}

	dayExpr := "CAST(date(created_at) AS TEXT)"
	entryBase := func() *gorm.DB {
		return r.db.Model(&models.PointsLogEntry{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	var issuedRows []sumRow
	if err := entryBase().
		Select(fmt.Sprintf("%s as day, COALESCE(SUM(points), 0) as total", dayExpr)).
		Where("points > 0").
		Group(dayExpr).
		Order("day asc").
		Scan(&issuedRows).Error; err != nil {
		return nil, err
	}

	var spentRows []sumRow
	if err := entryBase().
		Select(fmt.Sprintf("%s as day, COALESCE(SUM(-points), 0) as total", dayExpr)).
		Where("points < 0").
		Group(dayExpr).
		Order("day asc").
		Scan(&spentRows).Error; err != nil {
		return nil, err
	}

	issuedMap := make(map[string]int64, len(issuedRows))
	for _, item := range issuedRows {
		issuedMap[item.Day] = item.Total
	}
	spentMap := make(map[string]int64, len(spentRows))
	for _, item := range spentRows {
		spentMap[item.Day] = item.Total
	}

	seen := make(map[string]struct{}, len(issuedRows)+len(spentRows))
	result := make([]DashboardPointsTrendRow, 0)
	push := func(day string) {
		if day == "" {
			return
		}
		if _, ok := seen[day]; ok {
			return
		}
		seen[day] = struct{}{}
		result = append(result, DashboardPointsTrendRow{
			Day:          day,
			PointsIssued: issuedMap[day],
			PointsSpent:  spentMap[day],
		})
	}
	for _, item := range issuedRows {
		push(item.Day)
	}
	for _, item := range spentRows {
		push(item.Day)
	}

	return result, nil
}

// GetTopReferrers 获取推荐人排行榜
func (r *GormDashboardRepository) GetTopReferrers(startAt, endAt time.Time, limit int) ([]DashboardReferrerRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardReferrerRankingRow, 0)
	if err := r.db.Model(&models.Referral{}).
		Select(`
			referrals.referrer_id as referrer_id,
			COALESCE(users.email, '') as referrer_email,
			COUNT(*) as referral_count,
			COALESCE(SUM(referrals.points_referrer), 0) as points_referrer
		`).
		Joins("LEFT JOIN users ON users.id = referrals.referrer_id").
		Where("referrals.completed_at IS NOT NULL AND referrals.completed_at >= ? AND referrals.completed_at < ? AND referrals.status = ?", startAt, endAt, models.ReferralStatusCompleted).
		Group("referrals.referrer_id, users.email").
		Order("referral_count DESC, points_referrer DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetTopAmbassadors 获取大使佣金排行榜
func (r *GormDashboardRepository) GetTopAmbassadors(startAt, endAt time.Time, limit int) ([]DashboardAmbassadorRankingRow, error) {
	if limit <= 0 {
		limit = 5
	}
	rows := make([]DashboardAmbassadorRankingRow, 0)
	if err := r.db.Model(&models.AmbassadorEarning{}).
		Select(`
			ambassador_earnings.ambassador_id as ambassador_id,
			ambassador_profiles.user_id as user_id,
			COALESCE(users.email, '') as user_email,
			COUNT(*) as order_count,
			COALESCE(SUM(ambassador_earnings.commission_amount), 0) as commission_amount,
			COALESCE(SUM(ambassador_earnings.points_awarded), 0) as points_awarded
		`).
		Joins("JOIN ambassador_profiles ON ambassador_profiles.id = ambassador_earnings.ambassador_id").
		Joins("LEFT JOIN users ON users.id = ambassador_profiles.user_id").
		Where("ambassador_earnings.created_at >= ? AND ambassador_earnings.created_at < ?", startAt, endAt).
		Group("ambassador_earnings.ambassador_id, ambassador_profiles.user_id, users.email").
		Order("commission_amount DESC, order_count DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
