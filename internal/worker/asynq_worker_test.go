package worker

import (
	"context"
	"testing"

	"github.com/loyaltycore/internal/provider"
	"github.com/loyaltycore/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandleOrderReconcileNilSafety(t *testing.T) {
	var nilConsumer *Consumer
	task := asynq.NewTask(queue.TaskOrderReconcile, []byte(`{"order_no":"ORD-1"}`))
	if err := nilConsumer.handleOrderReconcile(context.Background(), task); err != nil {
		t.Fatalf("nil consumer should skip, got %v", err)
	}

	consumer := NewConsumer(&provider.Container{})
	if err := consumer.handleOrderReconcile(context.Background(), nil); err != nil {
		t.Fatalf("nil task should skip, got %v", err)
	}
}

func TestHandleOrderReconcileInvalidPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	task := asynq.NewTask(queue.TaskOrderReconcile, []byte("not-json"))
	if err := consumer.handleOrderReconcile(context.Background(), task); err == nil {
		t.Fatal("malformed payload should be returned for retry accounting")
	}

	task = asynq.NewTask(queue.TaskOrderReconcile, []byte(`{"order_no":"   "}`))
	if err := consumer.handleOrderReconcile(context.Background(), task); err != nil {
		t.Fatalf("blank order_no should skip, got %v", err)
	}
}

func TestHandleOrderReconcileServiceMissing(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskOrderReconcile, []byte(`{"order_no":"ORD-2"}`))
	if err := consumer.handleOrderReconcile(context.Background(), task); err != nil {
		t.Fatalf("missing reconcile service should skip, got %v", err)
	}
}

func TestHandleGuestRetroLinkInvalidPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	task := asynq.NewTask(queue.TaskGuestRetroLink, []byte(`{"user_id":0,"email":"a@b.com"}`))
	if err := consumer.handleGuestRetroLink(context.Background(), task); err != nil {
		t.Fatalf("zero user_id should skip, got %v", err)
	}

	task = asynq.NewTask(queue.TaskGuestRetroLink, []byte(`{"user_id":7,"email":"  "}`))
	if err := consumer.handleGuestRetroLink(context.Background(), task); err != nil {
		t.Fatalf("blank email should skip, got %v", err)
	}
}

func TestHandleReviewVerifyInvalidPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})

	task := asynq.NewTask(queue.TaskReviewVerify, []byte(`{"review_reward_id":0}`))
	if err := consumer.handleReviewVerify(context.Background(), task); err != nil {
		t.Fatalf("zero review_reward_id should skip, got %v", err)
	}

	task = asynq.NewTask(queue.TaskReviewVerify, []byte("{"))
	if err := consumer.handleReviewVerify(context.Background(), task); err == nil {
		t.Fatal("malformed payload should be returned as error")
	}
}

func TestHandleRewardNotifyEmailInvalidPayload(t *testing.T) {
	consumer := NewConsumer(&provider.Container{})
	task := asynq.NewTask(queue.TaskRewardNotifyEmail, []byte(`{"user_id":0}`))
	if err := consumer.handleRewardNotifyEmail(context.Background(), task); err != nil {
		t.Fatalf("zero user_id should skip, got %v", err)
	}
}
