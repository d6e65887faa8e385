package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyaltycore/internal/http/response"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"
	"github.com/loyaltycore/internal/service"

	"github.com/gin-gonic/gin"
)

// GetRewardSettings 管理端读取积分体系配置
func (h *Handler) GetRewardSettings(c *gin.Context) {
	if h.SettingService == nil {
		respondError(c, response.CodeInternal, "error.settings_fetch_failed", nil)
		return
	}
	setting, err := h.SettingService.GetRewardSetting()
	if err != nil {
		respondError(c, response.CodeInternal, "error.settings_fetch_failed", err)
		return
	}
	response.Success(c, setting)
}

// UpdateRewardSettings 管理端更新积分体系配置
func (h *Handler) UpdateRewardSettings(c *gin.Context) {
	if h.SettingService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	var req service.RewardSetting
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	saved, err := h.SettingService.UpdateRewardSetting(req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRewardConfigInvalid):
			respondError(c, response.CodeBadRequest, "error.reward_config_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, saved)
}

// ListRewardClaims 管理端奖励领取记录列表
func (h *Handler) ListRewardClaims(c *gin.Context) {
	if h.RewardClaimRepo == nil {
		respondError(c, response.CodeInternal, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("user_id")), 10, 64)
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rows, total, err := h.RewardClaimRepo.List(repository.RewardClaimListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      uint(userID),
		RewardType:  strings.TrimSpace(c.Query("reward_type")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.bad_request", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ListReferrals 管理端推荐记录列表
func (h *Handler) ListReferrals(c *gin.Context) {
	if h.ReferralRepo == nil {
		respondError(c, response.CodeInternal, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	referrerID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("referrer_id")), 10, 64)
	refereeID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("referee_id")), 10, 64)
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rows, total, err := h.ReferralRepo.List(repository.ReferralListFilter{
		Page:        page,
		PageSize:    pageSize,
		ReferrerID:  uint(referrerID),
		RefereeID:   uint(refereeID),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.bad_request", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ListRewardOrders 管理端订单快照列表
func (h *Handler) ListRewardOrders(c *gin.Context) {
	if h.OrderRepo == nil {
		respondError(c, response.CodeInternal, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("user_id")), 10, 64)
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rows, total, err := h.OrderRepo.List(repository.OrderListFilter{
		Page:         page,
		PageSize:     pageSize,
		UserID:       uint(userID),
		Status:       strings.TrimSpace(c.Query("status")),
		OrderNo:      strings.TrimSpace(c.Query("order_no")),
		BillingEmail: strings.ToLower(strings.TrimSpace(c.Query("billing_email"))),
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.bad_request", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ListUserPoints 管理端积分流水列表
func (h *Handler) ListUserPoints(c *gin.Context) {
	if h.LedgerService == nil {
		respondError(c, response.CodeInternal, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("user_id")), 10, 64)
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rows, total, err := h.LedgerService.History(repository.PointsLogListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      uint(userID),
		EntryType:   strings.TrimSpace(c.Query("entry_type")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.bad_request", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// AdjustUserPointsRequest 人工调整积分请求，正数加分负数扣分
type AdjustUserPointsRequest struct {
	UserID      uint   `json:"user_id" binding:"required"`
	Points      int64  `json:"points" binding:"required"`
	Description string `json:"description"`
}

// AdjustUserPoints 管理端人工调整用户积分
func (h *Handler) AdjustUserPoints(c *gin.Context) {
	if h.LedgerService == nil || h.UserRepo == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	var req AdjustUserPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	user, err := h.UserRepo.GetByID(req.UserID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		return
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "管理员手动调整"
	}
	input := service.LedgerChangeInput{
		UserID:      req.UserID,
		Points:      req.Points,
		EntryType:   models.PointsEntryManual,
		Description: description,
	}

	var account *models.RewardAccount
	var entry *models.PointsLogEntry
	if req.Points > 0 {
		account, entry, err = h.LedgerService.Add(input)
	} else {
		input.Points = -req.Points
		account, entry, err = h.LedgerService.Deduct(input)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPoints):
			respondError(c, response.CodeBadRequest, "error.points_invalid", nil)
		case errors.Is(err, service.ErrInsufficientBalance):
			respondError(c, response.CodeBadRequest, "error.points_insufficient", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"balance": account.Balance,
		"entry":   entry,
	})
}

// RecalculateUserPoints 管理端按流水重算用户积分余额
func (h *Handler) RecalculateUserPoints(c *gin.Context) {
	if h.LedgerService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	balance, err := h.LedgerService.RecalculateBalance(uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, gin.H{"balance": balance})
}

// ListAmbassadors 管理端大使档案列表
func (h *Handler) ListAmbassadors(c *gin.Context) {
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.AmbassadorService.ListAdmin(repository.AmbassadorListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		Keyword:  strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.bad_request", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ReviewAmbassadorRequest 大使申请审核请求
type ReviewAmbassadorRequest struct {
	Approve bool `json:"approve"`
}

// ReviewAmbassador 管理端审批大使申请
func (h *Handler) ReviewAmbassador(c *gin.Context) {
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req ReviewAmbassadorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	profile, err := h.AmbassadorService.Review(uint(id), req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "error.not_found", nil)
		case errors.Is(err, service.ErrAmbassadorReviewInvalid):
			respondError(c, response.CodeBadRequest, "error.ambassador_review_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, profile)
}

// ListAmbassadorEarnings 管理端大使佣金流水列表
func (h *Handler) ListAmbassadorEarnings(c *gin.Context) {
	if h.AmbassadorService == nil {
		respondError(c, response.CodeInternal, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	ambassadorID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("ambassador_id")), 10, 64)
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rows, total, err := h.AmbassadorService.ListEarnings(repository.AmbassadorEarningListFilter{
		Page:         page,
		PageSize:     pageSize,
		AmbassadorID: uint(ambassadorID),
		CreatedFrom:  createdFrom,
		CreatedTo:    createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.bad_request", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ListReviewRewards 管理端评价奖励列表
func (h *Handler) ListReviewRewards(c *gin.Context) {
	if h.ReviewService == nil {
		respondError(c, response.CodeInternal, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(strings.TrimSpace(c.Query("user_id")), 10, 64)

	rows, total, err := h.ReviewService.List(repository.ReviewRewardListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Platform: strings.ToLower(strings.TrimSpace(c.Query("platform"))),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.bad_request", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
