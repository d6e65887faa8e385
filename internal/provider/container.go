package provider

import (
	"github.com/loyaltycore/internal/authz"
	"github.com/loyaltycore/internal/cache"
	"github.com/loyaltycore/internal/config"
	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/queue"
	"github.com/loyaltycore/internal/repository"
	"github.com/loyaltycore/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo           repository.AdminRepository
	UserRepo            repository.UserRepository
	EmailVerifyCodeRepo repository.EmailVerifyCodeRepository
	OrderRepo           repository.OrderRepository
	LedgerRepo          repository.LedgerRepository
	ReferralCodeRepo    repository.ReferralCodeRepository
	ReferralRepo        repository.ReferralRepository
	AttributionRepo     repository.AttributionRepository
	AmbassadorRepo      repository.AmbassadorRepository
	RewardClaimRepo     repository.RewardClaimRepository
	ReviewRewardRepo    repository.ReviewRewardRepository
	SettingRepo         repository.SettingRepository
	UserLoginLogRepo    repository.UserLoginLogRepository
	AuthzAuditLogRepo   repository.AuthzAuditLogRepository
	DashboardRepo       repository.DashboardRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserAuthService     *service.UserAuthService
	EmailService        *service.EmailService
	CaptchaService      *service.CaptchaService
	SettingService      *service.SettingService
	LedgerService       *service.LedgerService
	CodeService         *service.CodeService
	AttributionService  *service.AttributionService
	AmbassadorService   *service.AmbassadorService
	ReconcileService    *service.ReconcileService
	SignupService       *service.SignupService
	ReviewService       *service.ReviewService
	RedemptionService   *service.RedemptionService
	SweepService        *service.SweepService
	UserLoginLogService *service.UserLoginLogService
	AuthzAuditService   *service.AuthzAuditService
	DashboardService    *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.EmailVerifyCodeRepo = repository.NewEmailVerifyCodeRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.ReferralCodeRepo = repository.NewReferralCodeRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.AttributionRepo = repository.NewAttributionRepository(db)
	c.AmbassadorRepo = repository.NewAmbassadorRepository(db)
	c.RewardClaimRepo = repository.NewRewardClaimRepository(db)
	c.ReviewRewardRepo = repository.NewReviewRewardRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.UserLoginLogRepo = repository.NewUserLoginLogRepository(db)
	c.AuthzAuditLogRepo = repository.NewAuthzAuditLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.SettingService = service.NewSettingService(c.SettingRepo)
	smtpSetting, err := c.SettingService.GetSMTPSetting(c.Config.Email)
	if err != nil {
		logger.Warnw("provider_load_smtp_setting_failed", "error", err)
	} else {
		c.Config.Email = service.SMTPSettingToConfig(smtpSetting)
	}

	captchaSetting, err := c.SettingService.GetCaptchaSetting(c.Config.Captcha)
	if err != nil {
		logger.Warnw("provider_load_captcha_setting_failed", "error", err)
	} else {
		c.Config.Captcha = service.CaptchaSettingToConfig(captchaSetting)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.SettingService, c.Config.Captcha)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo, c.EmailVerifyCodeRepo, c.EmailService)

	c.LedgerService = service.NewLedgerService(c.LedgerRepo)
	c.CodeService = service.NewCodeService(c.ReferralCodeRepo, c.SettingService)
	c.AttributionService = service.NewAttributionService(c.AttributionRepo, c.CodeService, c.SettingService)
	c.AmbassadorService = service.NewAmbassadorService(c.AmbassadorRepo, c.UserRepo, c.CodeService, c.LedgerService, c.SettingService)
	c.ReconcileService = service.NewReconcileService(
		c.OrderRepo,
		c.ReferralRepo,
		c.ReferralCodeRepo,
		c.UserRepo,
		c.CodeService,
		c.AttributionService,
		c.AmbassadorService,
		c.LedgerService,
		c.SettingService,
		c.QueueClient,
	)
	c.SignupService = service.NewSignupService(c.RewardClaimRepo, c.LedgerService, c.SettingService)
	c.ReviewService = service.NewReviewService(c.ReviewRewardRepo, c.UserRepo, c.LedgerService, c.SettingService, c.QueueClient)
	c.RedemptionService = service.NewRedemptionService(c.OrderRepo, c.RewardClaimRepo, c.LedgerService, c.SettingService)
	c.SweepService = service.NewSweepService(c.AmbassadorRepo, c.RewardClaimRepo, c.LedgerService, c.SettingService, c.QueueClient)

	c.UserLoginLogService = service.NewUserLoginLogService(c.UserLoginLogRepo)
	c.AuthzAuditService = service.NewAuthzAuditService(c.AuthzAuditLogRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.SettingService)
}
