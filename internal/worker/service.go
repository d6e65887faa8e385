package worker

import (
	"context"
	"errors"
	"time"

	"github.com/loyaltycore/internal/cache"
	"github.com/loyaltycore/internal/config"
	"github.com/loyaltycore/internal/constants"
	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	sweepInterval   = time.Hour
	sweepLockTTL    = 30 * time.Minute
	cleanupInterval = 6 * time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.SweepService != nil {
		go s.runSweepLoop(ctx)
	}
	if s.consumer != nil && s.consumer.AttributionService != nil {
		go s.runCleanupLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runSweepLoop 周期触发月度结算，领取记录保证跨周期幂等
func (s *Service) runSweepLoop(ctx context.Context) {
	runOnce := func() {
		now := time.Now()
		s.runLocked(ctx, constants.SweepLockBonus, func() error {
			return s.consumer.SweepService.RunMonthlyBonus(now)
		})
		s.runLocked(ctx, constants.SweepLockPenalty, func() error {
			return s.consumer.SweepService.RunInactivityPenalty(now)
		})
	}
	runOnce()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// runLocked 多实例部署下同一轮结算只允许一个实例执行
func (s *Service) runLocked(ctx context.Context, lockKey string, fn func() error) {
	acquired, err := cache.AcquireLock(ctx, lockKey, sweepLockTTL)
	if err != nil {
		logger.Warnw("worker_sweep_lock_failed", "lock_key", lockKey, "error", err)
		return
	}
	if !acquired {
		logger.Debugw("worker_sweep_lock_held", "lock_key", lockKey)
		return
	}
	defer func() {
		if err := cache.ReleaseLock(ctx, lockKey); err != nil {
			logger.Warnw("worker_sweep_unlock_failed", "lock_key", lockKey, "error", err)
		}
	}()
	if err := fn(); err != nil {
		logger.Warnw("worker_sweep_run_failed", "lock_key", lockKey, "error", err)
	}
}

func (s *Service) runCleanupLoop(ctx context.Context) {
	runOnce := func() {
		removed, err := s.consumer.AttributionService.CleanupExpiredEmailAssociations()
		if err != nil {
			logger.Warnw("worker_email_association_cleanup_failed", "error", err)
			return
		}
		if removed > 0 {
			logger.Infow("worker_email_association_cleanup_done", "removed", removed)
		}
	}
	runOnce()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
