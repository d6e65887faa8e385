package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyaltycore/internal/http/response"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"
	"github.com/loyaltycore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ReferralClickRequest 推荐落地点击请求
type ReferralClickRequest struct {
	Code        string `json:"code" binding:"required"`
	VisitorKey  string `json:"visitor_key"`
	LandingPath string `json:"landing_path"`
}

// TrackReferralClick 记录推荐码落地访问。
// 推荐码无效或过期时回传 cleared，提示客户端清除本地存储的码。
func (h *Handler) TrackReferralClick(c *gin.Context) {
	var req ReferralClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if h.AttributionService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}

	userID, _ := getOptionalUserID(c)
	err := h.AttributionService.Record(service.AttributionRecordInput{
		Code:        req.Code,
		UserID:      userID,
		VisitorKey:  req.VisitorKey,
		LandingPath: req.LandingPath,
		ClientIP:    c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeInvalid):
			response.Success(c, gin.H{"ok": false, "cleared": true, "reason": "invalid"})
		case errors.Is(err, service.ErrCodeExpired):
			response.Success(c, gin.H{"ok": false, "cleared": true, "reason": "expired"})
		case errors.Is(err, service.ErrSelfReferral):
			respondError(c, response.CodeBadRequest, "error.self_referral", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, gin.H{"ok": true, "cleared": false})
}

// AssociateGuestEmailRequest 游客结算邮箱关联请求
type AssociateGuestEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// AssociateGuestEmail 游客结算时登记邮箱与推荐码的关联
func (h *Handler) AssociateGuestEmail(c *gin.Context) {
	var req AssociateGuestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if h.AttributionService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	if err := h.AttributionService.AssociateEmail(req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			respondError(c, response.CodeBadRequest, "error.email_invalid", nil)
		case errors.Is(err, service.ErrCodeInvalid):
			response.Success(c, gin.H{"ok": false, "cleared": true, "reason": "invalid"})
		case errors.Is(err, service.ErrCodeExpired):
			response.Success(c, gin.H{"ok": false, "cleared": true, "reason": "expired"})
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, gin.H{"ok": true, "cleared": false})
}

// GetMyReferralCode 获取（必要时签发）我的推荐码
func (h *Handler) GetMyReferralCode(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.CodeService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	code, err := h.CodeService.Issue(uid, models.CodeKindReferral)
	if err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}
	response.Success(c, code)
}

// GetPointsBalance 查询积分余额
func (h *Handler) GetPointsBalance(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.LedgerService == nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", nil)
		return
	}
	balance, err := h.LedgerService.Balance(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

// ListPointsHistory 查询积分流水
func (h *Handler) ListPointsHistory(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.LedgerService == nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.LedgerService.History(repository.PointsLogListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    uid,
		EntryType: strings.TrimSpace(c.Query("entry_type")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ClaimSignupReward 领取注册奖励
func (h *Handler) ClaimSignupReward(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.SignupService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	claim, err := h.SignupService.Claim(service.SignupClaimInput{
		UserID:    uid,
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyClaimed):
			respondError(c, response.CodeBadRequest, "error.already_claimed", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, claim)
}

// ReviewSubmitRequest 评价奖励申报请求
type ReviewSubmitRequest struct {
	Platform  string `json:"platform"`
	ReviewRef string `json:"review_ref" binding:"required"`
}

// SubmitReviewReward 申报平台评价换取积分
func (h *Handler) SubmitReviewReward(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.ReviewService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	var req ReviewSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	review, err := h.ReviewService.Submit(service.ReviewSubmitInput{
		UserID:    uid,
		Platform:  req.Platform,
		ReviewRef: req.ReviewRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewAlreadyRewarded):
			respondError(c, response.CodeBadRequest, "error.review_already_rewarded", nil)
		case errors.Is(err, service.ErrReviewNotOwned):
			respondError(c, response.CodeBadRequest, "error.review_not_owned", nil)
		case errors.Is(err, service.ErrReviewVerifyUnavailable):
			respondError(c, response.CodeInternal, "error.review_verify_unavailable", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, review)
}

// ListMyReviewRewards 查询我的评价奖励记录
func (h *Handler) ListMyReviewRewards(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.ReviewService == nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.ReviewService.List(repository.ReviewRewardListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// RedemptionQuoteRequest 抵扣报价请求
type RedemptionQuoteRequest struct {
	Subtotal string `json:"subtotal" binding:"required"`
}

// QuoteRedemption 结算页积分抵扣报价
func (h *Handler) QuoteRedemption(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.RedemptionService == nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", nil)
		return
	}
	var req RedemptionQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	subtotal, err := decimal.NewFromString(strings.TrimSpace(req.Subtotal))
	if err != nil || subtotal.IsNegative() {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	quote, err := h.RedemptionService.Quote(uid, models.NewMoneyFromDecimal(subtotal))
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.Success(c, quote)
}

// RedemptionApplyRequest 抵扣提交请求
type RedemptionApplyRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
	Points  int64  `json:"points" binding:"required"`
}

// ApplyRedemption 在订单上落实积分抵扣
func (h *Handler) ApplyRedemption(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.RedemptionService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	var req RedemptionApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	discount, err := h.RedemptionService.Apply(service.RedemptionApplyInput{
		UserID:  uid,
		OrderNo: req.OrderNo,
		Points:  req.Points,
	})
	if err != nil {
		respondWithMappedError(c, err, redemptionApplyErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"discount_amount": discount})
}

var redemptionApplyErrorRules = []mappedHandlerError{
	{target: service.ErrRedemptionBelowMinimum, code: response.CodeBadRequest, key: "error.redemption_below_minimum"},
	{target: service.ErrRedemptionOverLimit, code: response.CodeBadRequest, key: "error.redemption_over_limit"},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, key: "error.points_insufficient"},
	{target: service.ErrAlreadyClaimed, code: response.CodeBadRequest, key: "error.already_claimed"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
}

// ApplyAmbassador 申请成为品牌大使
func (h *Handler) ApplyAmbassador(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	profile, err := h.AmbassadorService.Apply(uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAmbassadorExists):
			respondError(c, response.CodeBadRequest, "error.ambassador_exists", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeUnauthorized, "error.user_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, profile)
}

// GetMyAmbassador 查询我的大使档案与业绩
func (h *Handler) GetMyAmbassador(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", nil)
		return
	}
	profile, err := h.AmbassadorService.GetProfile(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	if profile == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	stats, err := h.AmbassadorService.Stats(profile.ID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"profile": profile, "stats": stats})
}
