package main

import (
	"fmt"
	"log"
	"time"

	"github.com/loyaltycore/internal/config"
	"github.com/loyaltycore/internal/logger"
	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/service"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加演示用户
	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}
	now := time.Now()
	verifiedAt := now.Add(-30 * 24 * time.Hour)

	users := []models.User{
		{
			Email:           "alice@example.com",
			PasswordHash:    string(passwordHash),
			DisplayName:     "Alice",
			Locale:          "en-US",
			Status:          "active",
			EmailVerifiedAt: &verifiedAt,
		},
		{
			Email:           "bob@example.com",
			PasswordHash:    string(passwordHash),
			DisplayName:     "Bob",
			Locale:          "zh-CN",
			Status:          "active",
			EmailVerifiedAt: &verifiedAt,
		},
		{
			Email:        "carol@example.com",
			PasswordHash: string(passwordHash),
			DisplayName:  "Carol",
			Locale:       "zh-TW",
			Status:       "active",
		},
	}

	for _, user := range users {
		var existing models.User
		if err := models.DB.Where("email = ?", user.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Printf("Failed to create user %s: %v", user.Email, err)
			} else {
				stdLog.Printf("Created user: %s", user.Email)
			}
		} else {
			stdLog.Printf("User already exists: %s", user.Email)
		}
	}

	// 读取用户ID
	userIDs := map[string]uint{}
	var userList []models.User
	if err := models.DB.Where("email IN ?", []string{"alice@example.com", "bob@example.com", "carol@example.com"}).Find(&userList).Error; err != nil {
		stdLog.Fatalf("Failed to load demo users: %v", err)
	}
	for _, user := range userList {
		userIDs[user.Email] = user.ID
	}
	aliceID := userIDs["alice@example.com"]
	bobID := userIDs["bob@example.com"]
	carolID := userIDs["carol@example.com"]

	// 添加推荐码与大使码
	codes := []models.ReferralCode{
		{UserID: aliceID, Kind: models.CodeKindReferral, Code: "REF1A2B3C", IsActive: true, UsageCount: 1},
		{UserID: bobID, Kind: models.CodeKindReferral, Code: "REF4D5E6F", IsActive: true},
		{UserID: carolID, Kind: models.CodeKindReferral, Code: "REF7G8H9I", IsActive: true},
		{UserID: aliceID, Kind: models.CodeKindAmbassador, Code: "AMB-ALICE", IsActive: true, UsageCount: 1},
	}

	for _, code := range codes {
		var existing models.ReferralCode
		if err := models.DB.Where("code = ?", code.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&code).Error; err != nil {
				stdLog.Printf("Failed to create referral code %s: %v", code.Code, err)
			} else {
				stdLog.Printf("Created referral code: %s", code.Code)
			}
		} else {
			stdLog.Printf("Referral code already exists: %s", code.Code)
		}
	}

	codeIDs := map[string]uint{}
	var codeList []models.ReferralCode
	if err := models.DB.Where("user_id IN ?", []uint{aliceID, bobID, carolID}).Find(&codeList).Error; err != nil {
		stdLog.Fatalf("Failed to load referral codes: %v", err)
	}
	for _, code := range codeList {
		codeIDs[code.Code] = code.ID
	}

	// 添加推荐记录（Alice 推荐 Bob，已完成）
	referralCompletedAt := now.Add(-7 * 24 * time.Hour)
	var existingReferral models.Referral
	if err := models.DB.Where("referee_id = ?", bobID).First(&existingReferral).Error; err != nil {
		referral := models.Referral{
			ReferralCodeID: codeIDs["REF1A2B3C"],
			ReferrerID:     aliceID,
			RefereeID:      bobID,
			PointsReferrer: 1000,
			PointsReferee:  1000,
			Status:         models.ReferralStatusCompleted,
			ClientIP:       "203.0.113.10",
			CompletedAt:    &referralCompletedAt,
		}
		if err := models.DB.Create(&referral).Error; err != nil {
			stdLog.Printf("Failed to create referral record: %v", err)
		} else {
			stdLog.Println("Created referral: alice -> bob")
		}
	} else {
		stdLog.Println("Referral already exists: bob")
	}

	// 添加大使档案（Alice 已通过审核）
	ambassadorCodeID := codeIDs["AMB-ALICE"]
	reviewedAt := now.Add(-20 * 24 * time.Hour)
	var existingProfile models.AmbassadorProfile
	if err := models.DB.Where("user_id = ?", aliceID).First(&existingProfile).Error; err != nil {
		profile := models.AmbassadorProfile{
			UserID:     aliceID,
			CodeID:     &ambassadorCodeID,
			Status:     models.AmbassadorStatusActive,
			AppliedAt:  now.Add(-25 * 24 * time.Hour),
			ReviewedAt: &reviewedAt,
		}
		if err := models.DB.Create(&profile).Error; err != nil {
			stdLog.Printf("Failed to create ambassador profile: %v", err)
		} else {
			stdLog.Println("Created ambassador profile: alice (active)")
		}
	} else {
		stdLog.Println("Ambassador profile already exists: alice")
	}

	var aliceProfile models.AmbassadorProfile
	if err := models.DB.Where("user_id = ?", aliceID).First(&aliceProfile).Error; err != nil {
		stdLog.Fatalf("Failed to load ambassador profile: %v", err)
	}

	// 添加订单快照（一笔已完成的大使归因订单，一笔游客订单）
	orderCompletedAt := now.Add(-5 * 24 * time.Hour)
	orders := []models.Order{
		{
			OrderNo:            "ORD-DEMO-0001",
			UserID:             bobID,
			BillingEmail:       "bob@example.com",
			Status:             models.OrderStatusCompleted,
			Currency:           "USD",
			TotalAmount:        models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
			TaxAmount:          models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
			SubtotalAmount:     models.NewMoneyFromDecimal(decimal.NewFromInt(180)),
			AmbassadorCode:     "AMB-ALICE",
			AttributionChannel: models.AttributionSession,
			ClientIP:           "203.0.113.10",
			CompletedAt:        &orderCompletedAt,
		},
		{
			OrderNo:        "ORD-DEMO-0002",
			UserID:         0,
			BillingEmail:   "guest@example.com",
			Status:         models.OrderStatusCreated,
			Currency:       "USD",
			TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			SubtotalAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
			ReferralCode:   "REF1A2B3C",
			ClientIP:       "198.51.100.24",
		},
	}

	for _, order := range orders {
		var existing models.Order
		if err := models.DB.Where("order_no = ?", order.OrderNo).First(&existing).Error; err != nil {
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", order.OrderNo, err)
			} else {
				stdLog.Printf("Created order: %s", order.OrderNo)
			}
		} else {
			stdLog.Printf("Order already exists: %s", order.OrderNo)
		}
	}

	// 添加大使佣金记录（200.00 含税基数 6% = 12.00，折算 1200 积分）
	var completedOrder models.Order
	if err := models.DB.Where("order_no = ?", "ORD-DEMO-0001").First(&completedOrder).Error; err != nil {
		stdLog.Fatalf("Failed to load demo order: %v", err)
	}
	var existingEarning models.AmbassadorEarning
	if err := models.DB.Where("ambassador_id = ? AND order_id = ?", aliceProfile.ID, completedOrder.ID).First(&existingEarning).Error; err != nil {
		earning := models.AmbassadorEarning{
			AmbassadorID:     aliceProfile.ID,
			OrderID:          completedOrder.ID,
			OrderNo:          completedOrder.OrderNo,
			OrderTotal:       completedOrder.TotalAmount,
			BaseAmount:       completedOrder.TotalAmount,
			RatePercent:      models.NewMoneyFromDecimal(decimal.NewFromInt(6)),
			CommissionAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(12)),
			PointsAwarded:    1200,
		}
		if err := models.DB.Create(&earning).Error; err != nil {
			stdLog.Printf("Failed to create ambassador earning: %v", err)
		} else {
			stdLog.Printf("Created ambassador earning for order: %s", completedOrder.OrderNo)
		}
	} else {
		stdLog.Printf("Ambassador earning already exists for order: %s", completedOrder.OrderNo)
	}

	// 添加积分流水与账户余额（流水为事实来源，余额快照随行记录）
	type ledgerSeed struct {
		userID  uint
		entries []models.PointsLogEntry
	}
	ledgers := []ledgerSeed{
		{
			userID: aliceID,
			entries: []models.PointsLogEntry{
				{Points: 100, EntryType: models.PointsEntrySignup, Description: "注册奖励", ReferenceType: "reward_claim", ReferenceID: "signup"},
				{Points: 1000, EntryType: models.PointsEntryReferral, Description: "推荐奖励", ReferenceType: "referral", ReferenceID: "bob@example.com"},
				{Points: 1200, EntryType: models.PointsEntryCommission, Description: "大使佣金", ReferenceType: "order", ReferenceID: "ORD-DEMO-0001"},
			},
		},
		{
			userID: bobID,
			entries: []models.PointsLogEntry{
				{Points: 100, EntryType: models.PointsEntrySignup, Description: "注册奖励", ReferenceType: "reward_claim", ReferenceID: "signup"},
				{Points: 1000, EntryType: models.PointsEntryReferral, Description: "被推荐奖励", ReferenceType: "referral", ReferenceID: "REF1A2B3C"},
			},
		},
		{
			userID: carolID,
			entries: []models.PointsLogEntry{
				{Points: 100, EntryType: models.PointsEntrySignup, Description: "注册奖励", ReferenceType: "reward_claim", ReferenceID: "signup"},
			},
		},
	}

	for _, seed := range ledgers {
		var count int64
		models.DB.Model(&models.PointsLogEntry{}).Where("user_id = ?", seed.userID).Count(&count)
		if count > 0 {
			stdLog.Printf("Points ledger already exists for user %d", seed.userID)
			continue
		}
		balance := int64(0)
		for _, entry := range seed.entries {
			entry.UserID = seed.userID
			entry.BalanceBefore = balance
			balance += entry.Points
			entry.BalanceAfter = balance
			if err := models.DB.Create(&entry).Error; err != nil {
				stdLog.Printf("Failed to create points entry for user %d: %v", seed.userID, err)
			}
		}
		account := models.RewardAccount{UserID: seed.userID, Balance: balance}
		var existingAccount models.RewardAccount
		if err := models.DB.Where("user_id = ?", seed.userID).First(&existingAccount).Error; err != nil {
			if err := models.DB.Create(&account).Error; err != nil {
				stdLog.Printf("Failed to create reward account for user %d: %v", seed.userID, err)
			}
		} else {
			existingAccount.Balance = balance
			if err := models.DB.Save(&existingAccount).Error; err != nil {
				stdLog.Printf("Failed to update reward account for user %d: %v", seed.userID, err)
			}
		}
		stdLog.Printf("Created points ledger for user %d (balance %d)", seed.userID, balance)
	}

	// 添加注册奖励领取记录（唯一索引保证重复执行幂等）
	for _, userID := range []uint{aliceID, bobID, carolID} {
		claim := models.RewardClaim{
			UserID:        userID,
			RewardType:    models.PointsEntrySignup,
			ClaimKey:      "signup",
			PointsAwarded: 100,
			ClaimStatus:   models.ClaimStatusCompleted,
		}
		var existing models.RewardClaim
		if err := models.DB.Where("user_id = ? AND reward_type = ? AND claim_key = ?", claim.UserID, claim.RewardType, claim.ClaimKey).First(&existing).Error; err != nil {
			if err := models.DB.Create(&claim).Error; err != nil {
				stdLog.Printf("Failed to create reward claim for user %d: %v", userID, err)
			} else {
				stdLog.Printf("Created signup reward claim for user %d", userID)
			}
		} else {
			stdLog.Printf("Signup reward claim already exists for user %d", userID)
		}
	}

	// 写入奖励计划配置
	upsertSetting(stdLog, "reward_config", service.RewardSettingToMap(service.RewardDefaultSetting()))

	// 写入网站配置
	upsertSetting(stdLog, "site_config", map[string]interface{}{
		"languages": []string{"zh-CN", "zh-TW", "en-US"},
		"currency":  "USD",
	})

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Users (password: password123)")
	fmt.Println("- 4 Referral codes (含 1 个大使码)")
	fmt.Println("- 1 Completed referral (alice -> bob)")
	fmt.Println("- 1 Active ambassador with commission earning")
	fmt.Println("- 2 Orders (1 attributed, 1 guest)")
	fmt.Println("- Points ledgers with signup claims")
	fmt.Println("- Reward and site configuration")
}

// upsertSetting 创建或更新配置项
func upsertSetting(stdLog *log.Logger, key string, value map[string]interface{}) {
	var setting models.Setting
	if err := models.DB.Where("key = ?", key).First(&setting).Error; err != nil {
		setting = models.Setting{
			Key:       key,
			ValueJSON: models.JSON(value),
		}
		if err := models.DB.Create(&setting).Error; err != nil {
			stdLog.Printf("Failed to create setting %s: %v", key, err)
		} else {
			stdLog.Printf("Created setting: %s", key)
		}
		return
	}
	setting.ValueJSON = models.JSON(value)
	if err := models.DB.Save(&setting).Error; err != nil {
		stdLog.Printf("Failed to update setting %s: %v", key, err)
	} else {
		stdLog.Printf("Updated setting: %s", key)
	}
}
