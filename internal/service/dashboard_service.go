package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/loyaltycore/internal/cache"
	"github.com/loyaltycore/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页奖励计划经营数据。
type DashboardService struct {
	repo           repository.DashboardRepository
	settingService *SettingService
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, settingService *SettingService) *DashboardService {
	return &DashboardService{repo: repo, settingService: settingService}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string               `json:"range"`
	From     string               `json:"from"`
	To       string               `json:"to"`
	Timezone string               `json:"timezone"`
	Currency string               `json:"currency,omitempty"`
	KPI      DashboardKPI         `json:"kpi"`
	Funnel   DashboardFunnel      `json:"funnel"`
	Alerts   []DashboardAlertItem `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	OrdersTotal        int64  `json:"orders_total"`
	CompletedOrders    int64  `json:"completed_orders"`
	RefundedOrders     int64  `json:"refunded_orders"`
	AttributedOrders   int64  `json:"attributed_orders"`
	CompletedAmount    string `json:"completed_amount"`
	PointsIssued       int64  `json:"points_issued"`
	PointsSpent        int64  `json:"points_spent"`
	NetPointsDelta     int64  `json:"net_points_delta"`
	ReferralsCompleted int64  `json:"referrals_completed"`
	NewUsers           int64  `json:"new_users"`
	ActiveAmbassadors  int64  `json:"active_ambassadors"`
	PendingAmbassadors int64  `json:"pending_ambassadors"`
	PendingReviews     int64  `json:"pending_reviews"`
	PointsLiability    int64  `json:"points_liability"`
}

// DashboardFunnel 仪表盘归因漏斗
type DashboardFunnel struct {
	OrdersCreated      int64  `json:"orders_created"`
	OrdersAttributed   int64  `json:"orders_attributed"`
	OrdersCompleted    int64  `json:"orders_completed"`
	ReferralsCompleted int64  `json:"referrals_completed"`
	AttributionRate    string `json:"attribution_rate"`
	CompletionRate     string `json:"completion_rate"`
	ReferralRate       string `json:"referral_rate"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date            string `json:"date"`
	OrdersTotal     int64  `json:"orders_total"`
	OrdersCompleted int64  `json:"orders_completed"`
	PointsIssued    int64  `json:"points_issued"`
	PointsSpent     int64  `json:"points_spent"`
}

// DashboardRankingsResponse 仪表盘排行榜响应
type DashboardRankingsResponse struct {
	Range          string                       `json:"range"`
	From           string                       `json:"from"`
	To             string                       `json:"to"`
	Timezone       string                       `json:"timezone"`
	TopReferrers   []DashboardReferrerRanking   `json:"top_referrers"`
	TopAmbassadors []DashboardAmbassadorRanking `json:"top_ambassadors"`
}

// DashboardReferrerRanking 推荐人排行项
type DashboardReferrerRanking struct {
	ReferrerID     uint   `json:"referrer_id"`
	ReferrerEmail  string `json:"referrer_email"`
	ReferralCount  int64  `json:"referral_count"`
	PointsReferrer int64  `json:"points_referrer"`
}

// DashboardAmbassadorRanking 大使排行项
type DashboardAmbassadorRanking struct {
	AmbassadorID     uint   `json:"ambassador_id"`
	UserID           uint   `json:"user_id"`
	UserEmail        string `json:"user_email"`
	OrderCount       int64  `json:"order_count"`
	CommissionAmount string `json:"commission_amount"`
	PointsAwarded    int64  `json:"points_awarded"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	setting := s.loadDashboardSetting()

	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%d:%s:%d:%d:%d:%d",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
		setting.Alert.PendingAmbassadorsThreshold,
		setting.Alert.PendingReviewsThreshold,
		setting.Alert.RefundedOrdersThreshold,
		setting.Alert.PointsLiabilityThreshold,
	)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	programStats, err := s.repo.GetProgramStats()
	if err != nil {
		return nil, err
	}

	attributionRate := 0.0
	if overview.OrdersTotal > 0 {
		attributionRate = float64(overview.AttributedOrders) / float64(overview.OrdersTotal) * 100
	}
	completionRate := 0.0
	if overview.OrdersTotal > 0 {
		completionRate = float64(overview.CompletedOrders) / float64(overview.OrdersTotal) * 100
	}
	referralRate := 0.0
	if overview.CompletedOrders > 0 {
		referralRate = float64(overview.ReferralsCompleted) / float64(overview.CompletedOrders) * 100
	}

	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Currency: strings.ToUpper(strings.TrimSpace(overview.Currency)),
		KPI: DashboardKPI{
			OrdersTotal:        overview.OrdersTotal,
			CompletedOrders:    overview.CompletedOrders,
			RefundedOrders:     overview.RefundedOrders,
			AttributedOrders:   overview.AttributedOrders,
			CompletedAmount:    formatMoneyValue(overview.CompletedAmount),
			PointsIssued:       overview.PointsIssued,
			PointsSpent:        overview.PointsSpent,
			NetPointsDelta:     overview.PointsIssued - overview.PointsSpent,
			ReferralsCompleted: overview.ReferralsCompleted,
			NewUsers:           overview.NewUsers,
			ActiveAmbassadors:  programStats.ActiveAmbassadors,
			PendingAmbassadors: programStats.PendingAmbassadors,
			PendingReviews:     programStats.PendingReviews,
			PointsLiability:    programStats.PointsLiability,
		},
		Funnel: DashboardFunnel{
			OrdersCreated:      overview.OrdersTotal,
			OrdersAttributed:   overview.AttributedOrders,
			OrdersCompleted:    overview.CompletedOrders,
			ReferralsCompleted: overview.ReferralsCompleted,
			AttributionRate:    formatPercentValue(attributionRate),
			CompletionRate:     formatPercentValue(completionRate),
			ReferralRate:       formatPercentValue(referralRate),
		},
		Alerts: buildDashboardAlerts(overview, programStats, setting.Alert),
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取仪表盘趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	orderRows, err := s.repo.GetOrderTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	pointsRows, err := s.repo.GetPointsTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}

	orderMap := make(map[string]repository.DashboardOrderTrendRow, len(orderRows))
	for _, item := range orderRows {
		orderMap[item.Day] = item
	}
	pointsMap := make(map[string]repository.DashboardPointsTrendRow, len(pointsRows))
	for _, item := range pointsRows {
		pointsMap[item.Day] = item
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		orderItem := orderMap[day]
		pointsItem := pointsMap[day]
		points = append(points, DashboardTrendPoint{
			Date:            day,
			OrdersTotal:     orderItem.OrdersTotal,
			OrdersCompleted: orderItem.OrdersCompleted,
			PointsIssued:    pointsItem.PointsIssued,
			PointsSpent:     pointsItem.PointsSpent,
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetRankings 获取仪表盘排行榜
func (s *DashboardService) GetRankings(ctx context.Context, input DashboardQueryInput) (*DashboardRankingsResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardRankingsResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	setting := s.loadDashboardSetting()

	cacheKey := fmt.Sprintf("dashboard:rankings:%s:%d:%d:%s:%d:%d",
		window.rangeKey,
		window.startAt.Unix(),
		window.endAt.Unix(),
		window.timezone,
		setting.Ranking.TopReferrersLimit,
		setting.Ranking.TopAmbassadorsLimit,
	)
	if !input.ForceRefresh {
		var cached DashboardRankingsResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	referrerRows, err := s.repo.GetTopReferrers(window.startAt, window.endAt, setting.Ranking.TopReferrersLimit)
	if err != nil {
		return nil, err
	}
	ambassadorRows, err := s.repo.GetTopAmbassadors(window.startAt, window.endAt, setting.Ranking.TopAmbassadorsLimit)
	if err != nil {
		return nil, err
	}

	referrers := make([]DashboardReferrerRanking, 0, len(referrerRows))
	for _, item := range referrerRows {
		referrers = append(referrers, DashboardReferrerRanking{
			ReferrerID:     item.ReferrerID,
			ReferrerEmail:  strings.TrimSpace(item.ReferrerEmail),
			ReferralCount:  item.ReferralCount,
			PointsReferrer: item.PointsReferrer,
		})
	}

	ambassadors := make([]DashboardAmbassadorRanking, 0, len(ambassadorRows))
	for _, item := range ambassadorRows {
		ambassadors = append(ambassadors, DashboardAmbassadorRanking{
			AmbassadorID:     item.AmbassadorID,
			UserID:           item.UserID,
			UserEmail:        strings.TrimSpace(item.UserEmail),
			OrderCount:       item.OrderCount,
			CommissionAmount: formatMoneyValue(item.CommissionAmount),
			PointsAwarded:    item.PointsAwarded,
		})
	}

	response := &DashboardRankingsResponse{
		Range:          window.rangeKey,
		From:           window.startAt.Format(time.RFC3339),
		To:             window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone:       window.timezone,
		TopReferrers:   referrers,
		TopAmbassadors: ambassadors,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func (s *DashboardService) loadDashboardSetting() DashboardSetting {
	fallback := DashboardDefaultSetting()
	if s == nil || s.settingService == nil {
		return fallback
	}
	setting, err := s.settingService.GetDashboardSetting()
	if err != nil {
		return fallback
	}
	return NormalizeDashboardSetting(setting)
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow, programStats repository.DashboardProgramStatsRow, alertSetting DashboardAlertSetting) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 4)
	if programStats.PendingAmbassadors >= alertSetting.PendingAmbassadorsThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_ambassadors", Level: "warning", Value: programStats.PendingAmbassadors})
	}
	if programStats.PendingReviews >= alertSetting.PendingReviewsThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_reviews", Level: "warning", Value: programStats.PendingReviews})
	}
	if overview.RefundedOrders >= alertSetting.RefundedOrdersThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "refunded_orders", Level: "warning", Value: overview.RefundedOrders})
	}
	if programStats.PointsLiability >= alertSetting.PointsLiabilityThreshold {
		alerts = append(alerts, DashboardAlertItem{Type: "points_liability", Level: "error", Value: programStats.PointsLiability})
	}
	return alerts
}
