package service

import (
	"fmt"
	"math"

	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/models"
)

const (
	rewardRatePercentMin        = 0
	rewardRatePercentMax        = 100
	rewardCodeLengthMin         = 4
	rewardCodeLengthMax         = 32
	rewardCodePrefixMaxRune     = 10
	rewardWindowDaysMax         = 3650
	rewardInactivityMonthsMax   = 120
	rewardPointsPerCurrencyMin  = 1
	rewardDefaultSignupPoints   = 100
	rewardDefaultReferrerPoints = 1000
	rewardDefaultRefereePoints  = 1000
	rewardDefaultReviewPoints   = 300
)

// RewardSetting 积分体系配置
type RewardSetting struct {
	Enabled bool `json:"enabled"`

	SignupPoints       int64 `json:"signup_points"`
	SignupCooldownDays int   `json:"signup_cooldown_days"`
	ReferrerPoints     int64 `json:"referrer_points"`
	RefereePoints      int64 `json:"referee_points"`
	ReviewPoints       int64 `json:"review_points"`

	CodeLength        int    `json:"code_length"`
	CodePrefix        string `json:"code_prefix"`
	CodeExpiryDays    int    `json:"code_expiry_days"`
	ResetExpiredCodes bool   `json:"reset_expired_codes"`

	CookieWindowDays     int `json:"cookie_window_days"`
	EmailAssociationDays int `json:"email_association_days"`

	MonthlyReferralLimit int     `json:"monthly_referral_limit"`
	MinOrderAmount       float64 `json:"min_order_amount"`

	CommissionRatePercent float64 `json:"commission_rate_percent"`
	PointsPerCurrency     int64   `json:"points_per_currency"`
	TaxHandling           string  `json:"tax_handling"`

	MaxRedemptionPercent float64 `json:"max_redemption_percent"`
	MaxPointsPerOrder    int64   `json:"max_points_per_order"`
	MinPointsRedeem      int64   `json:"min_points_redeem"`

	BonusThresholdAmount float64 `json:"bonus_threshold_amount"`
	BonusPoints          int64   `json:"bonus_points"`
	InactivityMonths     int     `json:"inactivity_months"`
	PenaltyPercent       float64 `json:"penalty_percent"`
}

// RewardDefaultSetting 默认积分体系配置
func RewardDefaultSetting() RewardSetting {
	return NormalizeRewardSetting(RewardSetting{
		Enabled:               true,
		SignupPoints:          rewardDefaultSignupPoints,
		SignupCooldownDays:    30,
		ReferrerPoints:        rewardDefaultReferrerPoints,
		RefereePoints:         rewardDefaultRefereePoints,
		ReviewPoints:          rewardDefaultReviewPoints,
		CodeLength:            8,
		CodePrefix:            "REF",
		CodeExpiryDays:        30,
		ResetExpiredCodes:     false,
		CookieWindowDays:      30,
		EmailAssociationDays:  30,
		MonthlyReferralLimit:  0,
		MinOrderAmount:        0,
		CommissionRatePercent: 6,
		PointsPerCurrency:     100,
		TaxHandling:           constants.TaxHandlingInclude,
		MaxRedemptionPercent:  50,
		MaxPointsPerOrder:     0,
		MinPointsRedeem:       1000,
		BonusThresholdAmount:  1000,
		BonusPoints:           1000,
		InactivityMonths:      3,
		PenaltyPercent:        10,
	})
}

// NormalizeRewardSetting 归一化积分体系配置
func NormalizeRewardSetting(setting RewardSetting) RewardSetting {
	if setting.SignupPoints < 0 {
		setting.SignupPoints = 0
	}
	setting.SignupCooldownDays = clampRewardDays(setting.SignupCooldownDays)
	if setting.ReferrerPoints < 0 {
		setting.ReferrerPoints = 0
	}
	if setting.RefereePoints < 0 {
		setting.RefereePoints = 0
	}
	if setting.ReviewPoints < 0 {
		setting.ReviewPoints = 0
	}

	if setting.CodeLength < rewardCodeLengthMin {
		setting.CodeLength = rewardCodeLengthMin
	}
	if setting.CodeLength > rewardCodeLengthMax {
		setting.CodeLength = rewardCodeLengthMax
	}
	setting.CodePrefix = normalizeSettingTextWithRuneLimit(setting.CodePrefix, rewardCodePrefixMaxRune)
	setting.CodeExpiryDays = clampRewardDays(setting.CodeExpiryDays)
	setting.CookieWindowDays = clampRewardDays(setting.CookieWindowDays)
	setting.EmailAssociationDays = clampRewardDays(setting.EmailAssociationDays)

	if setting.MonthlyReferralLimit < 0 {
		setting.MonthlyReferralLimit = 0
	}
	setting.MinOrderAmount = roundRewardDecimal(setting.MinOrderAmount)
	if setting.MinOrderAmount < 0 {
		setting.MinOrderAmount = 0
	}

	setting.CommissionRatePercent = clampRewardPercent(setting.CommissionRatePercent)
	if setting.PointsPerCurrency < rewardPointsPerCurrencyMin {
		setting.PointsPerCurrency = rewardPointsPerCurrencyMin
	}
	if !constants.ValidTaxHandling(setting.TaxHandling) {
		setting.TaxHandling = constants.TaxHandlingInclude
	}

	setting.MaxRedemptionPercent = clampRewardPercent(setting.MaxRedemptionPercent)
	if setting.MaxPointsPerOrder < 0 {
		setting.MaxPointsPerOrder = 0
	}
	if setting.MinPointsRedeem < 0 {
		setting.MinPointsRedeem = 0
	}

	setting.BonusThresholdAmount = roundRewardDecimal(setting.BonusThresholdAmount)
	if setting.BonusThresholdAmount < 0 {
		setting.BonusThresholdAmount = 0
	}
	if setting.BonusPoints < 0 {
		setting.BonusPoints = 0
	}
	if setting.InactivityMonths < 0 {
		setting.InactivityMonths = 0
	}
	if setting.InactivityMonths > rewardInactivityMonthsMax {
		setting.InactivityMonths = rewardInactivityMonthsMax
	}
	setting.PenaltyPercent = clampRewardPercent(setting.PenaltyPercent)
	return setting
}

// ValidateRewardSetting 校验积分体系配置
func ValidateRewardSetting(setting RewardSetting) error {
	if setting.CommissionRatePercent < rewardRatePercentMin || setting.CommissionRatePercent > rewardRatePercentMax {
		return fmt.Errorf("%w: 佣金比例必须在 0-100 之间", ErrRewardConfigInvalid)
	}
	if setting.MaxRedemptionPercent < rewardRatePercentMin || setting.MaxRedemptionPercent > rewardRatePercentMax {
		return fmt.Errorf("%w: 抵扣上限比例必须在 0-100 之间", ErrRewardConfigInvalid)
	}
	if setting.PenaltyPercent < rewardRatePercentMin || setting.PenaltyPercent > rewardRatePercentMax {
		return fmt.Errorf("%w: 扣罚比例必须在 0-100 之间", ErrRewardConfigInvalid)
	}
	if setting.CodeLength < rewardCodeLengthMin || setting.CodeLength > rewardCodeLengthMax {
		return fmt.Errorf("%w: 推荐码长度必须在 %d-%d 之间", ErrRewardConfigInvalid, rewardCodeLengthMin, rewardCodeLengthMax)
	}
	if setting.PointsPerCurrency < rewardPointsPerCurrencyMin {
		return fmt.Errorf("%w: 积分折算比例不能小于 %d", ErrRewardConfigInvalid, rewardPointsPerCurrencyMin)
	}
	if !constants.ValidTaxHandling(setting.TaxHandling) {
		return fmt.Errorf("%w: 税费处理方式不合法", ErrRewardConfigInvalid)
	}
	return nil
}

// RewardSettingToMap 将积分体系配置转换为 settings 存储结构
func RewardSettingToMap(setting RewardSetting) map[string]interface{} {
	normalized := NormalizeRewardSetting(setting)
	return map[string]interface{}{
		"enabled":                 normalized.Enabled,
		"signup_points":           normalized.SignupPoints,
		"signup_cooldown_days":    normalized.SignupCooldownDays,
		"referrer_points":         normalized.ReferrerPoints,
		"referee_points":          normalized.RefereePoints,
		"review_points":           normalized.ReviewPoints,
		"code_length":             normalized.CodeLength,
		"code_prefix":             normalized.CodePrefix,
		"code_expiry_days":        normalized.CodeExpiryDays,
		"reset_expired_codes":     normalized.ResetExpiredCodes,
		"cookie_window_days":      normalized.CookieWindowDays,
		"email_association_days":  normalized.EmailAssociationDays,
		"monthly_referral_limit":  normalized.MonthlyReferralLimit,
		"min_order_amount":        normalized.MinOrderAmount,
		"commission_rate_percent": normalized.CommissionRatePercent,
		"points_per_currency":     normalized.PointsPerCurrency,
		"tax_handling":            normalized.TaxHandling,
		"max_redemption_percent":  normalized.MaxRedemptionPercent,
		"max_points_per_order":    normalized.MaxPointsPerOrder,
		"min_points_redeem":       normalized.MinPointsRedeem,
		"bonus_threshold_amount":  normalized.BonusThresholdAmount,
		"bonus_points":            normalized.BonusPoints,
		"inactivity_months":       normalized.InactivityMonths,
		"penalty_percent":         normalized.PenaltyPercent,
	}
}

func rewardSettingFromJSON(raw models.JSON, fallback RewardSetting) RewardSetting {
	result := fallback

	if enabledRaw, ok := raw["enabled"]; ok {
		result.Enabled = parseSettingBool(enabledRaw)
	}
	if v, ok := raw["signup_points"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.SignupPoints = parsed
		}
	}
	if v, ok := raw["signup_cooldown_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.SignupCooldownDays = parsed
		}
	}
	if v, ok := raw["referrer_points"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.ReferrerPoints = parsed
		}
	}
	if v, ok := raw["referee_points"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.RefereePoints = parsed
		}
	}
	if v, ok := raw["review_points"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.ReviewPoints = parsed
		}
	}
	if v, ok := raw["code_length"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.CodeLength = parsed
		}
	}
	if v, ok := raw["code_prefix"]; ok {
		result.CodePrefix = normalizeSettingTextWithRuneLimit(v, rewardCodePrefixMaxRune)
	}
	if v, ok := raw["code_expiry_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.CodeExpiryDays = parsed
		}
	}
	if v, ok := raw["reset_expired_codes"]; ok {
		result.ResetExpiredCodes = parseSettingBool(v)
	}
	if v, ok := raw["cookie_window_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.CookieWindowDays = parsed
		}
	}
	if v, ok := raw["email_association_days"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.EmailAssociationDays = parsed
		}
	}
	if v, ok := raw["monthly_referral_limit"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.MonthlyReferralLimit = parsed
		}
	}
	if v, ok := raw["min_order_amount"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.MinOrderAmount = parsed
		}
	}
	if v, ok := raw["commission_rate_percent"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.CommissionRatePercent = parsed
		}
	}
	if v, ok := raw["points_per_currency"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.PointsPerCurrency = parsed
		}
	}
	if v, ok := raw["tax_handling"]; ok {
		result.TaxHandling = normalizeSettingText(v)
	}
	if v, ok := raw["max_redemption_percent"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.MaxRedemptionPercent = parsed
		}
	}
	if v, ok := raw["max_points_per_order"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.MaxPointsPerOrder = parsed
		}
	}
	if v, ok := raw["min_points_redeem"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.MinPointsRedeem = parsed
		}
	}
	if v, ok := raw["bonus_threshold_amount"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.BonusThresholdAmount = parsed
		}
	}
	if v, ok := raw["bonus_points"]; ok {
		if parsed, err := parseSettingInt64(v); err == nil {
			result.BonusPoints = parsed
		}
	}
	if v, ok := raw["inactivity_months"]; ok {
		if parsed, err := parseSettingInt(v); err == nil {
			result.InactivityMonths = parsed
		}
	}
	if v, ok := raw["penalty_percent"]; ok {
		if parsed, err := parseSettingFloat(v); err == nil {
			result.PenaltyPercent = parsed
		}
	}

	return NormalizeRewardSetting(result)
}

func normalizeRewardSettingMap(value map[string]interface{}) models.JSON {
	setting := rewardSettingFromJSON(models.JSON(value), RewardDefaultSetting())
	return models.JSON(RewardSettingToMap(setting))
}

// GetRewardSetting 获取积分体系设置（优先 settings，空时回退默认）
func (s *SettingService) GetRewardSetting() (RewardSetting, error) {
	fallback := RewardDefaultSetting()
	if s == nil {
		return fallback, nil
	}

	value, err := s.GetByKey(constants.SettingKeyRewardConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return rewardSettingFromJSON(value, fallback), nil
}

// UpdateRewardSetting 更新积分体系设置
func (s *SettingService) UpdateRewardSetting(setting RewardSetting) (RewardSetting, error) {
	normalized := NormalizeRewardSetting(setting)
	if err := ValidateRewardSetting(normalized); err != nil {
		return RewardDefaultSetting(), err
	}
	if _, err := s.Update(constants.SettingKeyRewardConfig, RewardSettingToMap(normalized)); err != nil {
		return RewardDefaultSetting(), err
	}
	return normalized, nil
}

func parseSettingInt64(value interface{}) (int64, error) {
	parsed, err := parseSettingFloat(value)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(parsed)), nil
}

func roundRewardDecimal(value float64) float64 {
	return math.Round(value*100) / 100
}

func clampRewardPercent(value float64) float64 {
	value = roundRewardDecimal(value)
	if value < rewardRatePercentMin {
		return rewardRatePercentMin
	}
	if value > rewardRatePercentMax {
		return rewardRatePercentMax
	}
	return value
}

func clampRewardDays(days int) int {
	if days < 0 {
		return 0
	}
	if days > rewardWindowDaysMax {
		return rewardWindowDaysMax
	}
	return days
}
