package queue

import (
	"encoding/json"

	"github.com/loyaltycore/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderReconcile 订单完成对账任务
	TaskOrderReconcile = constants.TaskOrderReconcile
	// TaskGuestRetroLink 游客订单回溯补记任务
	TaskGuestRetroLink = constants.TaskGuestRetroLink
	// TaskReviewVerify 评价核验任务
	TaskReviewVerify = constants.TaskReviewVerify
	// TaskRewardNotifyEmail 积分变动邮件通知任务
	TaskRewardNotifyEmail = constants.TaskRewardNotifyEmail
)

// OrderReconcilePayload 订单对账任务载荷
type OrderReconcilePayload struct {
	OrderNo string `json:"order_no"`
}

// GuestRetroLinkPayload 游客回溯补记任务载荷
type GuestRetroLinkPayload struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// ReviewVerifyPayload 评价核验任务载荷
type ReviewVerifyPayload struct {
	ReviewRewardID uint `json:"review_reward_id"`
}

// RewardNotifyEmailPayload 积分变动邮件任务载荷
type RewardNotifyEmailPayload struct {
	UserID    uint   `json:"user_id"`
	EntryType string `json:"entry_type"`
	Points    int64  `json:"points"`
	Balance   int64  `json:"balance"`
}

// NewOrderReconcileTask 创建订单对账任务
func NewOrderReconcileTask(payload OrderReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderReconcile, body), nil
}

// NewGuestRetroLinkTask 创建游客回溯补记任务
func NewGuestRetroLinkTask(payload GuestRetroLinkPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGuestRetroLink, body), nil
}

// NewReviewVerifyTask 创建评价核验任务
func NewReviewVerifyTask(payload ReviewVerifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReviewVerify, body), nil
}

// NewRewardNotifyEmailTask 创建积分变动邮件任务
func NewRewardNotifyEmailTask(payload RewardNotifyEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRewardNotifyEmail, body), nil
}
