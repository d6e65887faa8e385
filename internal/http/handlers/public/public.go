package public

import (
	"time"

	"github.com/loyaltycore/internal/cache"
	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/http/response"

	"github.com/gin-gonic/gin"
)

const (
	publicConfigCacheKey = "public:config"
	publicConfigCacheTTL = 60 * time.Second
)

// GetConfig 获取全局配置
func (h *Handler) GetConfig(c *gin.Context) {
	// 默认配置
	defaults := map[string]interface{}{
		"languages":                        []string{"zh-CN", "zh-TW", "en-US"},
		constants.SettingFieldSiteCurrency: constants.SiteCurrencyDefault,
	}

	var cached map[string]interface{}
	if hit, err := cache.GetJSON(c.Request.Context(), publicConfigCacheKey, &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	data, err := h.SettingService.GetConfig(defaults)
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}

	// 奖励计划公开参数，仅暴露前台展示所需字段
	reward, err := h.SettingService.GetRewardSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "error.config_fetch_failed", err)
		return
	}
	data["reward_program"] = map[string]interface{}{
		"enabled":                reward.Enabled,
		"signup_points":          reward.SignupPoints,
		"referrer_points":        reward.ReferrerPoints,
		"referee_points":         reward.RefereePoints,
		"review_points":          reward.ReviewPoints,
		"points_per_currency":    reward.PointsPerCurrency,
		"min_points_redeem":      reward.MinPointsRedeem,
		"max_redemption_percent": reward.MaxRedemptionPercent,
		"cookie_window_days":     reward.CookieWindowDays,
	}

	if h.CaptchaService != nil {
		publicCaptcha, captchaErr := h.CaptchaService.GetPublicSetting()
		if captchaErr != nil {
			respondError(c, response.CodeInternal, "error.config_fetch_failed", captchaErr)
			return
		}
		data["captcha"] = publicCaptcha
	}

	_ = cache.SetJSON(c.Request.Context(), publicConfigCacheKey, data, publicConfigCacheTTL)
	response.Success(c, data)
}
