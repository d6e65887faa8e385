package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/loyaltycore/internal/authz"
	"github.com/loyaltycore/internal/cache"
	"github.com/loyaltycore/internal/config"
	"github.com/loyaltycore/internal/constants"
	adminhandlers "github.com/loyaltycore/internal/http/handlers/admin"
	publichandlers "github.com/loyaltycore/internal/http/handlers/public"
	"github.com/loyaltycore/internal/http/response"
	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	rewardRule := func(bucket, messageKey string) RateLimitRule {
		return RateLimitRule{
			Prefix:        fmt.Sprintf("%s:rate:%s", redisPrefix, bucket),
			WindowSeconds: cfg.Security.RewardRateLimit.WindowSeconds,
			MaxRequests:   cfg.Security.RewardRateLimit.MaxRequests,
			MessageKey:    messageKey,
		}
	}
	referralClaimRule := rewardRule("referral_claim", "error.referral_claim_too_many")
	reviewSubmitRule := rewardRule("review_submission", "error.review_too_many")
	ambassadorApplyRule := rewardRule("ambassador_apply", "error.ambassador_apply_too_many")
	redemptionRule := rewardRule("point_redemption", "error.redemption_too_many")

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/config", publicHandler.GetConfig)
			public.GET("/captcha/image", publicHandler.GetImageCaptcha)
		}

		// 推荐归因接口（匿名可用）
		referral := apiV1.Group("/referral")
		referral.Use(OptionalUserJWTMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			referral.POST("/click", RateLimitMiddleware(redisClient, referralClaimRule, KeyByUserOrIP), publicHandler.TrackReferralClick)
			referral.POST("/associate-email", RateLimitMiddleware(redisClient, referralClaimRule, KeyByUserOrIP), publicHandler.AssociateGuestEmail)
		}

		// 商城事件回调（共享密钥鉴权）
		webhooks := apiV1.Group("/webhooks")
		{
			webhooks.POST("/orders/created", publicHandler.OrderCreatedWebhook)
			webhooks.POST("/orders/completed", publicHandler.OrderCompletedWebhook)
			webhooks.POST("/orders/refunded", publicHandler.OrderRefundedWebhook)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/send-verify-code", publicHandler.SendUserVerifyCode)
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
			auth.POST("/forgot-password", publicHandler.UserForgotPassword)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.GET("/me/login-logs", publicHandler.GetMyLoginLogs)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)
			user.POST("/me/email/send-verify-code", publicHandler.SendChangeEmailCode)
			user.POST("/me/email/change", publicHandler.ChangeEmail)

			user.GET("/points/balance", publicHandler.GetPointsBalance)
			user.GET("/points/history", publicHandler.ListPointsHistory)
			user.POST("/points/signup-claim", RateLimitMiddleware(redisClient, referralClaimRule, KeyByUserOrIP), publicHandler.ClaimSignupReward)
			user.GET("/referral/code", publicHandler.GetMyReferralCode)
			user.POST("/reviews", RateLimitMiddleware(redisClient, reviewSubmitRule, KeyByUserOrIP), publicHandler.SubmitReviewReward)
			user.GET("/reviews", publicHandler.ListMyReviewRewards)
			user.POST("/redemption/quote", publicHandler.QuoteRedemption)
			user.POST("/redemption/apply", RateLimitMiddleware(redisClient, redemptionRule, KeyByUserOrIP), publicHandler.ApplyRedemption)
			user.POST("/ambassador/apply", RateLimitMiddleware(redisClient, ambassadorApplyRule, KeyByUserOrIP), publicHandler.ApplyAmbassador)
			user.GET("/ambassador/me", publicHandler.GetMyAmbassador)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
				authorized.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
				authorized.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

				// 设置管理
				authorized.GET("/settings", adminHandler.GetSettings)
				authorized.PUT("/settings", adminHandler.UpdateSettings)
				authorized.GET("/settings/reward", adminHandler.GetRewardSettings)
				authorized.PUT("/settings/reward", adminHandler.UpdateRewardSettings)
				authorized.GET("/settings/smtp", adminHandler.GetSMTPSettings)
				authorized.PUT("/settings/smtp", adminHandler.UpdateSMTPSettings)
				authorized.POST("/settings/smtp/test", adminHandler.TestSMTPSettings)
				authorized.GET("/settings/captcha", adminHandler.GetCaptchaSettings)
				authorized.PUT("/settings/captcha", adminHandler.UpdateCaptchaSettings)
				authorized.PUT("/password", adminHandler.UpdateAdminPassword) // 修改密码

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.GET("/authz/audit-logs", adminHandler.ListAuthzAuditLogs)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)

				// 订单快照与推荐记录
				authorized.GET("/orders", adminHandler.ListRewardOrders)
				authorized.GET("/referrals", adminHandler.ListReferrals)
				authorized.GET("/reward-claims", adminHandler.ListRewardClaims)

				// 积分管理
				authorized.GET("/points", adminHandler.ListUserPoints)
				authorized.POST("/points/adjust", adminHandler.AdjustUserPoints)
				authorized.POST("/users/:id/points/recalculate", adminHandler.RecalculateUserPoints)

				// 大使管理
				authorized.GET("/ambassadors", adminHandler.ListAmbassadors)
				authorized.POST("/ambassadors/:id/review", adminHandler.ReviewAmbassador)
				authorized.GET("/ambassador-earnings", adminHandler.ListAmbassadorEarnings)

				// 评价奖励管理
				authorized.GET("/review-rewards", adminHandler.ListReviewRewards)

				// 用户管理
				authorized.GET("/users", adminHandler.GetAdminUsers)
				authorized.GET("/user-login-logs", adminHandler.GetUserLoginLogs)
				authorized.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
				authorized.GET("/users/:id", adminHandler.GetAdminUser)
				authorized.PUT("/users/:id", adminHandler.UpdateAdminUser)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
