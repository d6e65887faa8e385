package public

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/loyaltycore/internal/http/response"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/queue"
	"github.com/loyaltycore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const webhookSecretHeader = "X-Webhook-Secret"

// verifyWebhookSecret 校验商城侧回调共享密钥
func (h *Handler) verifyWebhookSecret(c *gin.Context) bool {
	secret := ""
	if h.Config != nil {
		secret = strings.TrimSpace(h.Config.Webhook.Secret)
	}
	if secret == "" {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return false
	}
	provided := strings.TrimSpace(c.GetHeader(webhookSecretHeader))
	if subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
		respondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return false
	}
	return true
}

// OrderCreatedWebhookRequest 订单创建事件
type OrderCreatedWebhookRequest struct {
	OrderNo        string `json:"order_no" binding:"required"`
	UserID         uint   `json:"user_id"`
	BillingEmail   string `json:"billing_email"`
	Currency       string `json:"currency"`
	Total          string `json:"total" binding:"required"`
	Tax            string `json:"tax"`
	Subtotal       string `json:"subtotal"`
	SessionCode    string `json:"session_code"`
	VisitorKey     string `json:"visitor_key"`
	CookieCode     string `json:"cookie_code"`
	AmbassadorCode string `json:"ambassador_code"`
	RedeemedPoints int64  `json:"redeemed_points"`
}

// OrderCreatedWebhook 商城订单创建回调：落快照并解析归因
func (h *Handler) OrderCreatedWebhook(c *gin.Context) {
	if !h.verifyWebhookSecret(c) {
		return
	}
	var req OrderCreatedWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	total, err := parseWebhookAmount(req.Total)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	tax, err := parseWebhookAmount(req.Tax)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	subtotal, err := parseWebhookAmount(req.Subtotal)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if h.ReconcileService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}

	order, err := h.ReconcileService.HandleOrderCreated(service.OrderEventInput{
		OrderNo:        req.OrderNo,
		UserID:         req.UserID,
		BillingEmail:   req.BillingEmail,
		Currency:       req.Currency,
		TotalAmount:    total,
		TaxAmount:      tax,
		SubtotalAmount: subtotal,
		SessionCode:    req.SessionCode,
		VisitorKey:     req.VisitorKey,
		CookieCode:     req.CookieCode,
		AmbassadorCode: req.AmbassadorCode,
		RedeemedPoints: req.RedeemedPoints,
		ClientIP:       c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderEventInvalid):
			respondError(c, response.CodeBadRequest, "error.order_event_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"order_no":            order.OrderNo,
		"attribution_channel": order.AttributionChannel,
	})
}

// OrderEventWebhookRequest 订单完成/退款事件
type OrderEventWebhookRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

// OrderCompletedWebhook 商城订单完成回调。
// 队列可用时异步对账，失败任务由队列按退避策略重放。
func (h *Handler) OrderCompletedWebhook(c *gin.Context) {
	if !h.verifyWebhookSecret(c) {
		return
	}
	var req OrderEventWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if h.ReconcileService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}

	if h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueOrderReconcile(queue.OrderReconcilePayload{OrderNo: req.OrderNo}); err == nil {
			response.Success(c, gin.H{"accepted": true})
			return
		}
	}
	if err := h.ReconcileService.HandleOrderCompleted(req.OrderNo); err != nil {
		respondWithMappedError(c, err, orderEventErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"accepted": true})
}

// OrderRefundedWebhook 商城订单退款回调
func (h *Handler) OrderRefundedWebhook(c *gin.Context) {
	if !h.verifyWebhookSecret(c) {
		return
	}
	var req OrderEventWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if h.ReconcileService == nil {
		respondError(c, response.CodeInternal, "error.save_failed", nil)
		return
	}
	if err := h.ReconcileService.HandleOrderRefunded(req.OrderNo); err != nil {
		respondWithMappedError(c, err, orderEventErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, gin.H{"accepted": true})
}

var orderEventErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, key: "error.order_status_invalid"},
	{target: service.ErrOrderEventInvalid, code: response.CodeBadRequest, key: "error.order_event_invalid"},
}

func parseWebhookAmount(raw string) (models.Money, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return models.Money{}, nil
	}
	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return models.Money{}, err
	}
	return models.NewMoneyFromDecimal(amount), nil
}
