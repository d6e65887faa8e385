package constants

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 登录日志状态常量
const (
	LoginLogStatusSuccess = "success"
	LoginLogStatusFailed  = "failed"
)

// 登录日志失败原因常量
const (
	LoginLogFailReasonBadRequest           = "bad_request"
	LoginLogFailReasonCaptchaRequired      = "captcha_required"
	LoginLogFailReasonCaptchaInvalid       = "captcha_invalid"
	LoginLogFailReasonCaptchaConfigInvalid = "captcha_config_invalid"
	LoginLogFailReasonCaptchaVerifyFailed  = "captcha_verify_failed"
	LoginLogFailReasonInvalidEmail         = "invalid_email"
	LoginLogFailReasonInvalidCredentials   = "invalid_credentials"
	LoginLogFailReasonEmailNotVerified     = "email_not_verified"
	LoginLogFailReasonUserDisabled         = "user_disabled"
	LoginLogFailReasonInternalError        = "internal_error"
)

// 登录日志来源常量
const (
	LoginLogSourceWeb = "web"
)

// 验证码用途常量
const (
	VerifyPurposeRegister       = "register"
	VerifyPurposeReset          = "reset"
	VerifyPurposeChangeEmailOld = "change_email_old"
	VerifyPurposeChangeEmailNew = "change_email_new"
)

// 验证码提供方常量
const (
	CaptchaProviderNone      = "none"
	CaptchaProviderImage     = "image"
	CaptchaProviderTurnstile = "turnstile"
)

// 验证码校验场景常量
const (
	CaptchaSceneLogin            = "login"
	CaptchaSceneRegisterSendCode = "register_send_code"
	CaptchaSceneResetSendCode    = "reset_send_code"
	CaptchaSceneGuestCreateOrder = "guest_create_order"
)

// 奖励领取类型常量
const (
	RewardTypeSignup     = "signup"
	RewardTypeReview     = "review"
	RewardTypeRedemption = "redemption"
	RewardTypeBonus      = "monthly_bonus"
	RewardTypePenalty    = "inactivity_penalty"
)

// 税额处理模式常量（佣金计佣基数）
const (
	TaxHandlingInclude  = "include"  // 按含税总额计佣
	TaxHandlingExclude  = "exclude"  // 按去税总额计佣
	TaxHandlingSubtotal = "subtotal" // 按商品小计计佣
)

// ValidTaxHandling 判断税额处理模式是否合法
func ValidTaxHandling(mode string) bool {
	switch mode {
	case TaxHandlingInclude, TaxHandlingExclude, TaxHandlingSubtotal:
		return true
	}
	return false
}

// 限流桶常量
const (
	RateBucketRewardAction     = "reward_action"
	RateBucketAPIRequest       = "api_request"
	RateBucketReviewSubmission = "review_submission"
	RateBucketReferralClaim    = "referral_claim"
	RateBucketAmbassadorApply  = "ambassador_apply"
	RateBucketPointRedemption  = "point_redemption"
)

// 队列常量
const (
	QueueDefault          = "default"
	TaskOrderReconcile    = "order:reconcile"
	TaskGuestRetroLink    = "guest:retro_link"
	TaskReviewVerify      = "review:verify"
	TaskRewardNotifyEmail = "reward:notify_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "lc"
)

// 月度任务互斥锁键前缀
const (
	SweepLockBonus   = "sweep:bonus"
	SweepLockPenalty = "sweep:penalty"
)

// 设置键常量
const (
	SettingKeySiteConfig       = "site_config"
	SettingKeySMTPConfig       = "smtp_config"
	SettingKeyCaptchaConfig    = "captcha_config"
	SettingKeyRewardConfig     = "reward_config"
	SettingKeyTrustpilotConfig = "trustpilot_config"
	SettingKeyDashboardConfig  = "dashboard_config"
	SettingFieldSiteCurrency   = "currency"
)

// 币种常量
const (
	SiteCurrencyDefault = "USD"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleZhTW = "zh-TW"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleZhTW, LocaleEnUS}

// 评价平台常量
const (
	ReviewPlatformTrustpilot = "trustpilot"
)
