package service

import (
	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/models"
)

// DashboardAlertSetting 仪表盘告警规则配置
type DashboardAlertSetting struct {
	PendingAmbassadorsThreshold int64 `json:"pending_ambassadors_threshold"`
	PendingReviewsThreshold     int64 `json:"pending_reviews_threshold"`
	RefundedOrdersThreshold     int64 `json:"refunded_orders_threshold"`
	PointsLiabilityThreshold    int64 `json:"points_liability_threshold"`
}

// DashboardRankingSetting 仪表盘排行规则配置
type DashboardRankingSetting struct {
	TopReferrersLimit   int `json:"top_referrers_limit"`
	TopAmbassadorsLimit int `json:"top_ambassadors_limit"`
}

// DashboardSetting 仪表盘配置
type DashboardSetting struct {
	Alert   DashboardAlertSetting   `json:"alert"`
	Ranking DashboardRankingSetting `json:"ranking"`
}

// DashboardDefaultSetting 默认仪表盘配置
func DashboardDefaultSetting() DashboardSetting {
	return NormalizeDashboardSetting(DashboardSetting{
		Alert: DashboardAlertSetting{
			PendingAmbassadorsThreshold: 10,
			PendingReviewsThreshold:     20,
			RefundedOrdersThreshold:     10,
			PointsLiabilityThreshold:    1000000,
		},
		Ranking: DashboardRankingSetting{
			TopReferrersLimit:   5,
			TopAmbassadorsLimit: 5,
		},
	})
}

// NormalizeDashboardSetting 归一化仪表盘配置
func NormalizeDashboardSetting(setting DashboardSetting) DashboardSetting {
	if setting.Alert.PendingAmbassadorsThreshold < 1 || setting.Alert.PendingAmbassadorsThreshold > 100000 {
		setting.Alert.PendingAmbassadorsThreshold = 10
	}
	if setting.Alert.PendingReviewsThreshold < 1 || setting.Alert.PendingReviewsThreshold > 100000 {
		setting.Alert.PendingReviewsThreshold = 20
	}
	if setting.Alert.RefundedOrdersThreshold < 1 || setting.Alert.RefundedOrdersThreshold > 100000 {
		setting.Alert.RefundedOrdersThreshold = 10
	}
	if setting.Alert.PointsLiabilityThreshold < 1 {
		setting.Alert.PointsLiabilityThreshold = 1000000
	}

	if setting.Ranking.TopReferrersLimit < 1 || setting.Ranking.TopReferrersLimit > 20 {
		setting.Ranking.TopReferrersLimit = 5
	}
	if setting.Ranking.TopAmbassadorsLimit < 1 || setting.Ranking.TopAmbassadorsLimit > 20 {
		setting.Ranking.TopAmbassadorsLimit = 5
	}

	return setting
}

// DashboardSettingToMap 将仪表盘配置转换为设置存储结构
func DashboardSettingToMap(setting DashboardSetting) map[string]interface{} {
	normalized := NormalizeDashboardSetting(setting)
	return map[string]interface{}{
		"alert": map[string]interface{}{
			"pending_ambassadors_threshold": normalized.Alert.PendingAmbassadorsThreshold,
			"pending_reviews_threshold":     normalized.Alert.PendingReviewsThreshold,
			"refunded_orders_threshold":     normalized.Alert.RefundedOrdersThreshold,
			"points_liability_threshold":    normalized.Alert.PointsLiabilityThreshold,
		},
		"ranking": map[string]interface{}{
			"top_referrers_limit":   normalized.Ranking.TopReferrersLimit,
			"top_ambassadors_limit": normalized.Ranking.TopAmbassadorsLimit,
		},
	}
}

func dashboardSettingFromJSON(raw models.JSON, fallback DashboardSetting) DashboardSetting {
	result := fallback

	alertRaw, ok := raw["alert"].(map[string]interface{})
	if ok {
		if value, exists := alertRaw["pending_ambassadors_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.PendingAmbassadorsThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["pending_reviews_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.PendingReviewsThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["refunded_orders_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.RefundedOrdersThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["points_liability_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.PointsLiabilityThreshold = int64(parsed)
			}
		}
	}

	rankingRaw, ok := raw["ranking"].(map[string]interface{})
	if ok {
		if value, exists := rankingRaw["top_referrers_limit"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Ranking.TopReferrersLimit = parsed
			}
		}
		if value, exists := rankingRaw["top_ambassadors_limit"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Ranking.TopAmbassadorsLimit = parsed
			}
		}
	}

	return NormalizeDashboardSetting(result)
}

// GetDashboardSetting 获取仪表盘设置（优先 settings，空时回退默认）
func (s *SettingService) GetDashboardSetting() (DashboardSetting, error) {
	fallback := DashboardDefaultSetting()
	if s == nil {
		return fallback, nil
	}
	value, err := s.GetByKey(constants.SettingKeyDashboardConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return dashboardSettingFromJSON(value, fallback), nil
}
