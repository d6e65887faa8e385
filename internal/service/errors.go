package service

import "errors"

// 通用错误
var (
	ErrNotFound = errors.New("record not found")
)

// 账号与认证错误
var (
	ErrInvalidEmail               = errors.New("invalid email")
	ErrInvalidPassword            = errors.New("invalid password")
	ErrInvalidCredentials         = errors.New("invalid credentials")
	ErrEmailExists                = errors.New("email already exists")
	ErrEmailNotVerified           = errors.New("email not verified")
	ErrEmailChangeExists          = errors.New("email change target exists")
	ErrEmailChangeInvalid         = errors.New("email change invalid")
	ErrUserDisabled               = errors.New("user disabled")
	ErrWeakPassword               = errors.New("password too weak")
	ErrAgreementRequired          = errors.New("agreement required")
	ErrProfileEmpty               = errors.New("profile update empty")
	ErrInvalidVerifyPurpose       = errors.New("invalid verify purpose")
	ErrVerifyCodeInvalid          = errors.New("verify code invalid")
	ErrVerifyCodeExpired          = errors.New("verify code expired")
	ErrVerifyCodeTooFrequent      = errors.New("verify code requested too frequently")
	ErrVerifyCodeAttemptsExceeded = errors.New("verify code attempts exceeded")
)

// 人机验证错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
	ErrCaptchaVerifyFailed  = errors.New("captcha verify failed")
)

// 邮件错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrSMTPConfigInvalid         = errors.New("smtp config invalid")
)

// 积分账本错误
var (
	ErrInvalidPoints       = errors.New("invalid points amount")
	ErrInvalidEntryType    = errors.New("invalid points entry type")
	ErrInsufficientBalance = errors.New("insufficient points balance")
)

// 推荐与归因错误
var (
	ErrCodeInvalid    = errors.New("referral code invalid")
	ErrCodeExpired    = errors.New("referral code expired")
	ErrSelfReferral   = errors.New("self referral not allowed")
	ErrAlreadyClaimed = errors.New("reward already claimed")
)

// 订单快照错误
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderStatusInvalid = errors.New("order status invalid")
	ErrOrderEventInvalid  = errors.New("order event invalid")
)

// 大使佣金错误
var (
	ErrAmbassadorExists        = errors.New("ambassador application exists")
	ErrAmbassadorReviewInvalid = errors.New("ambassador review action invalid")
)

// 评价奖励错误
var (
	ErrReviewVerifyUnavailable = errors.New("review verification unavailable")
	ErrReviewNotOwned          = errors.New("review not owned by account")
	ErrReviewAlreadyRewarded   = errors.New("review already rewarded")
)

// 积分抵扣错误
var (
	ErrRedemptionBelowMinimum = errors.New("redemption below minimum points")
	ErrRedemptionOverLimit    = errors.New("redemption exceeds order limit")
)

// 配置错误
var (
	ErrRewardConfigInvalid   = errors.New("reward config invalid")
	ErrDashboardRangeInvalid = errors.New("dashboard range invalid")
)
