package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/provider"
	"github.com/loyaltycore/internal/queue"
	"github.com/loyaltycore/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderReconcile, c.handleOrderReconcile)
	mux.HandleFunc(queue.TaskGuestRetroLink, c.handleGuestRetroLink)
	mux.HandleFunc(queue.TaskReviewVerify, c.handleReviewVerify)
	mux.HandleFunc(queue.TaskRewardNotifyEmail, c.handleRewardNotifyEmail)
}

func (c *Consumer) handleOrderReconcile(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if strings.TrimSpace(payload.OrderNo) == "" {
		logger.Debugw("worker_order_reconcile_skip_invalid_payload")
		return nil
	}
	if c.ReconcileService == nil {
		logger.Warnw("worker_order_reconcile_skip_service_nil", "order_no", payload.OrderNo)
		return nil
	}
	if err := c.ReconcileService.HandleOrderCompleted(payload.OrderNo); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_reconcile_skip_order_not_found", "order_no", payload.OrderNo)
			return nil
		case errors.Is(err, service.ErrOrderStatusInvalid):
			logger.Debugw("worker_order_reconcile_skip_invalid_status", "order_no", payload.OrderNo)
			return nil
		default:
			logger.Warnw("worker_order_reconcile_failed", "order_no", payload.OrderNo, "error", err)
			return err
		}
	}
	return nil
}

func (c *Consumer) handleGuestRetroLink(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_guest_retro_link_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.GuestRetroLinkPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_guest_retro_link_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 || strings.TrimSpace(payload.Email) == "" {
		logger.Debugw("worker_guest_retro_link_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.ReconcileService == nil {
		logger.Warnw("worker_guest_retro_link_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	if err := c.ReconcileService.HandleUserRegistered(payload.UserID, payload.Email); err != nil {
		logger.Warnw("worker_guest_retro_link_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleReviewVerify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_review_verify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ReviewVerifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_review_verify_unmarshal_failed", "error", err)
		return err
	}
	if payload.ReviewRewardID == 0 {
		logger.Debugw("worker_review_verify_skip_invalid_payload")
		return nil
	}
	if c.ReviewService == nil {
		logger.Warnw("worker_review_verify_skip_service_nil", "review_reward_id", payload.ReviewRewardID)
		return nil
	}
	if err := c.ReviewService.Verify(ctx, payload.ReviewRewardID); err != nil {
		if errors.Is(err, service.ErrReviewVerifyUnavailable) {
			// 平台侧暂不可用，延后重试
			if c.QueueClient != nil && c.QueueClient.Enabled() {
				if enqueueErr := c.QueueClient.EnqueueReviewVerify(payload, c.ReviewService.RetryDelay()); enqueueErr != nil {
					logger.Warnw("worker_review_verify_retry_enqueue_failed",
						"review_reward_id", payload.ReviewRewardID,
						"error", enqueueErr,
					)
					return err
				}
				return nil
			}
			return err
		}
		logger.Warnw("worker_review_verify_failed", "review_reward_id", payload.ReviewRewardID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleRewardNotifyEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_reward_notify_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RewardNotifyEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_reward_notify_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_reward_notify_email_skip_invalid_payload")
		return nil
	}
	user, err := c.UserRepo.GetByID(payload.UserID)
	if err != nil {
		logger.Warnw("worker_reward_notify_email_fetch_user_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	if user == nil {
		logger.Debugw("worker_reward_notify_email_skip_user_not_found", "user_id", payload.UserID)
		return nil
	}
	receiverEmail := strings.TrimSpace(user.Email)
	if receiverEmail == "" {
		logger.Debugw("worker_reward_notify_email_skip_empty_receiver", "user_id", payload.UserID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_reward_notify_email_skip_email_service_nil", "user_id", payload.UserID)
		return nil
	}
	input := service.RewardPointsEmailInput{
		EntryType: payload.EntryType,
		Points:    payload.Points,
		Balance:   payload.Balance,
	}
	if setting, err := c.SettingService.GetRewardSetting(); err == nil {
		input.InactivityMonths = setting.InactivityMonths
	}
	if err := c.EmailService.SendRewardPointsEmail(receiverEmail, input, strings.TrimSpace(user.Locale)); err != nil {
		logger.Warnw("worker_reward_notify_email_send_failed",
			"user_id", payload.UserID,
			"entry_type", payload.EntryType,
			"error", err,
		)
		return err
	}
	return nil
}
