package i18n

// messages 各语言文案表，key 缺失时由 T 回退处理
var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":         "请求参数错误",
		"error.not_found":           "记录不存在",
		"error.unauthorized":        "未登录或登录已过期",
		"error.forbidden":           "没有权限执行该操作",
		"error.jwt_secret_missing":  "服务配置缺失",
		"error.token_invalid":       "登录凭证无效",
		"error.token_revoked":       "登录凭证已失效",
		"error.auth_header_missing": "缺少认证信息",
		"error.auth_header_invalid": "认证信息格式错误",
		"error.user_disabled":       "账号已被禁用",

		"error.rate_limited":              "操作过于频繁，请稍后再试",
		"error.rate_limit_unavailable":    "限流服务不可用，请稍后再试",
		"error.login_too_many":            "登录尝试过于频繁，请稍后再试",
		"error.referral_claim_too_many":   "推荐操作过于频繁，请稍后再试",
		"error.review_too_many":           "评价提交过于频繁，请稍后再试",
		"error.ambassador_apply_too_many": "大使申请过于频繁，请稍后再试",
		"error.redemption_too_many":       "积分抵扣操作过于频繁，请稍后再试",

		"error.login_failed":                  "登录失败，请稍后重试",
		"error.login_invalid":                 "邮箱或密码错误",
		"error.register_failed":               "注册失败，请稍后重试",
		"error.email_exists":                  "该邮箱已注册",
		"error.email_invalid":                 "邮箱格式不正确",
		"error.email_not_verified":            "邮箱尚未验证",
		"error.email_change_exists":           "新邮箱已被占用",
		"error.email_change_invalid":          "邮箱更换请求无效",
		"error.agreement_required":            "请先同意服务协议",
		"error.profile_empty":                 "没有需要更新的内容",
		"error.password_weak":                 "密码强度不足",
		"error.password_min_length":           "密码长度不能少于 %d 位",
		"error.password_require_upper":        "密码需要包含大写字母",
		"error.password_require_lower":        "密码需要包含小写字母",
		"error.password_require_number":       "密码需要包含数字",
		"error.password_require_special":      "密码需要包含特殊字符",
		"error.password_old_invalid":          "原密码错误",
		"error.verify_code_invalid":           "验证码错误",
		"error.verify_code_expired":           "验证码已过期",
		"error.verify_code_too_frequent":      "验证码请求过于频繁",
		"error.verify_code_attempts_exceeded": "验证码尝试次数过多",
		"error.verify_purpose_invalid":        "验证码用途无效",
		"error.send_verify_code_failed":       "验证码发送失败",

		"error.captcha_required":        "请完成人机验证",
		"error.captcha_invalid":         "人机验证未通过",
		"error.captcha_unavailable":     "人机验证服务不可用",
		"error.captcha_generate_failed": "人机验证生成失败",
		"error.captcha_config_invalid":  "人机验证配置错误",
		"error.captcha_verify_failed":   "人机验证校验失败",

		"error.admin_login_invalid":         "管理员账号或密码错误",
		"error.admin_create_failed":         "管理员创建失败",
		"error.admin_update_failed":         "管理员更新失败",
		"error.admin_delete_failed":         "管理员删除失败",
		"error.admin_delete_last_forbidden": "不能删除最后一个管理员",
		"error.admin_delete_protected":      "该管理员受保护，不能删除",
		"error.admin_delete_self_forbidden": "不能删除当前登录的管理员",
		"error.admin_id_invalid":            "管理员ID无效",
		"error.admin_username_exists":       "管理员用户名已存在",
		"error.admin_username_invalid":      "管理员用户名无效",

		"error.user_not_found":     "用户不存在",
		"error.user_id_invalid":    "用户ID无效",
		"error.user_fetch_failed":  "用户查询失败",
		"error.user_update_failed": "用户更新失败",

		"error.email_service_not_configured": "邮件服务未配置",
		"error.email_recipient_not_found":    "收件人不存在",
		"error.settings_fetch_failed":        "设置读取失败",
		"error.settings_save_failed":         "设置保存失败",
		"error.config_fetch_failed":          "配置读取失败",
		"error.dashboard_fetch_failed":       "数据看板读取失败",
		"error.save_failed":                  "保存失败",

		"error.points_invalid":      "积分数值无效",
		"error.points_insufficient": "积分余额不足",

		"error.self_referral":   "不能使用自己的推荐码",
		"error.already_claimed": "该奖励已领取过",

		"error.order_not_found":      "订单不存在",
		"error.order_status_invalid": "订单状态不支持该操作",
		"error.order_event_invalid":  "订单事件无效",

		"error.ambassador_exists":         "已提交过大使申请",
		"error.ambassador_review_invalid": "大使审核操作无效",

		"error.review_verify_unavailable": "评价核验服务暂不可用，请稍后重试",
		"error.review_not_owned":          "该评价不属于当前账号",
		"error.review_already_rewarded":   "该评价已奖励过",

		"error.redemption_below_minimum": "积分抵扣未达到最低起兑数量",
		"error.redemption_over_limit":    "积分抵扣超过订单允许上限",
		"error.reward_config_invalid":    "奖励配置无效",

		"points.entry.signup":                "注册奖励",
		"points.entry.referral":              "推荐奖励",
		"points.entry.review":                "评价奖励",
		"points.entry.redemption":            "结算抵扣",
		"points.entry.manual":                "人工调整",
		"points.entry.refund":                "退款返还",
		"points.entry.ambassador_commission": "大使佣金",

		"email.points_changed.subject":     "积分变动通知",
		"email.points_changed.body":        "您的积分发生变动：%+d（当前余额 %d）。\n事由：%s",
		"email.monthly_bonus.subject":      "月度业绩奖励到账",
		"email.monthly_bonus.body":         "恭喜！您上月推荐成交达到业绩门槛，已发放 %d 奖励积分（当前余额 %d）。",
		"email.inactivity_penalty.subject": "积分账户不活跃提醒",
		"email.inactivity_penalty.body":    "您已超过 %d 个月没有完成推荐成交，本月扣除 %d 积分（当前余额 %d）。",
	},
	LocaleTW: {
		"error.bad_request":         "請求參數錯誤",
		"error.not_found":           "記錄不存在",
		"error.unauthorized":        "未登入或登入已過期",
		"error.forbidden":           "沒有權限執行該操作",
		"error.token_invalid":       "登入憑證無效",
		"error.token_revoked":       "登入憑證已失效",
		"error.auth_header_missing": "缺少認證資訊",
		"error.auth_header_invalid": "認證資訊格式錯誤",
		"error.user_disabled":       "帳號已被停用",

		"error.rate_limited":           "操作過於頻繁，請稍後再試",
		"error.rate_limit_unavailable": "限流服務不可用，請稍後再試",
		"error.login_too_many":         "登入嘗試過於頻繁，請稍後再試",

		"error.login_failed":        "登入失敗，請稍後重試",
		"error.login_invalid":       "信箱或密碼錯誤",
		"error.email_exists":        "該信箱已註冊",
		"error.email_invalid":       "信箱格式不正確",
		"error.email_not_verified":  "信箱尚未驗證",
		"error.password_weak":       "密碼強度不足",
		"error.verify_code_invalid": "驗證碼錯誤",
		"error.verify_code_expired": "驗證碼已過期",
		"error.captcha_required":    "請完成人機驗證",
		"error.captcha_invalid":     "人機驗證未通過",

		"error.points_invalid":      "積分數值無效",
		"error.points_insufficient": "積分餘額不足",

		"error.self_referral":             "不能使用自己的推薦碼",
		"error.already_claimed":           "該獎勵已領取過",
		"error.order_not_found":           "訂單不存在",
		"error.ambassador_exists":         "已提交過大使申請",
		"error.review_verify_unavailable": "評價核驗服務暫不可用，請稍後重試",
		"error.review_not_owned":          "該評價不屬於當前帳號",
		"error.redemption_below_minimum":  "積分抵扣未達到最低起兌數量",
		"error.redemption_over_limit":     "積分抵扣超過訂單允許上限",

		"points.entry.signup":                "註冊獎勵",
		"points.entry.referral":              "推薦獎勵",
		"points.entry.review":                "評價獎勵",
		"points.entry.redemption":            "結算抵扣",
		"points.entry.manual":                "人工調整",
		"points.entry.refund":                "退款返還",
		"points.entry.ambassador_commission": "大使佣金",

		"email.points_changed.subject":     "積分變動通知",
		"email.points_changed.body":        "您的積分發生變動：%+d（當前餘額 %d）。\n事由：%s",
		"email.monthly_bonus.subject":      "月度業績獎勵到賬",
		"email.monthly_bonus.body":         "恭喜！您上月推薦成交達到業績門檻，已發放 %d 獎勵積分（當前餘額 %d）。",
		"email.inactivity_penalty.subject": "積分帳戶不活躍提醒",
		"email.inactivity_penalty.body":    "您已超過 %d 個月沒有完成推薦成交，本月扣除 %d 積分（當前餘額 %d）。",
	},
	LocaleEN: {
		"error.bad_request":         "Invalid request",
		"error.not_found":           "Record not found",
		"error.unauthorized":        "Not logged in or session expired",
		"error.forbidden":           "Permission denied",
		"error.jwt_secret_missing":  "Service misconfigured",
		"error.token_invalid":       "Invalid token",
		"error.token_revoked":       "Token revoked",
		"error.auth_header_missing": "Missing authorization header",
		"error.auth_header_invalid": "Invalid authorization header",
		"error.user_disabled":       "Account disabled",

		"error.rate_limited":              "Too many requests, please try again later",
		"error.rate_limit_unavailable":    "Rate limiter unavailable, please try again later",
		"error.login_too_many":            "Too many login attempts, please try again later",
		"error.referral_claim_too_many":   "Too many referral attempts, please try again later",
		"error.review_too_many":           "Too many review submissions, please try again later",
		"error.ambassador_apply_too_many": "Too many ambassador applications, please try again later",
		"error.redemption_too_many":       "Too many redemption attempts, please try again later",

		"error.login_failed":                  "Login failed, please try again",
		"error.login_invalid":                 "Incorrect email or password",
		"error.register_failed":               "Registration failed, please try again",
		"error.email_exists":                  "Email already registered",
		"error.email_invalid":                 "Invalid email address",
		"error.email_not_verified":            "Email not verified",
		"error.email_change_exists":           "New email already in use",
		"error.email_change_invalid":          "Invalid email change request",
		"error.agreement_required":            "Please accept the terms of service",
		"error.profile_empty":                 "Nothing to update",
		"error.password_weak":                 "Password too weak",
		"error.password_min_length":           "Password must be at least %d characters",
		"error.password_require_upper":        "Password must contain an uppercase letter",
		"error.password_require_lower":        "Password must contain a lowercase letter",
		"error.password_require_number":       "Password must contain a number",
		"error.password_require_special":      "Password must contain a special character",
		"error.password_old_invalid":          "Current password is incorrect",
		"error.verify_code_invalid":           "Invalid verification code",
		"error.verify_code_expired":           "Verification code expired",
		"error.verify_code_too_frequent":      "Verification code requested too frequently",
		"error.verify_code_attempts_exceeded": "Too many verification attempts",
		"error.verify_purpose_invalid":        "Invalid verification purpose",
		"error.send_verify_code_failed":       "Failed to send verification code",

		"error.captcha_required":        "Please complete the captcha",
		"error.captcha_invalid":         "Captcha verification failed",
		"error.captcha_unavailable":     "Captcha service unavailable",
		"error.captcha_generate_failed": "Failed to generate captcha",
		"error.captcha_config_invalid":  "Captcha misconfigured",
		"error.captcha_verify_failed":   "Captcha verification error",

		"error.admin_login_invalid":         "Incorrect admin username or password",
		"error.admin_create_failed":         "Failed to create admin",
		"error.admin_update_failed":         "Failed to update admin",
		"error.admin_delete_failed":         "Failed to delete admin",
		"error.admin_delete_last_forbidden": "Cannot delete the last admin",
		"error.admin_delete_protected":      "This admin is protected",
		"error.admin_delete_self_forbidden": "Cannot delete the current admin",
		"error.admin_id_invalid":            "Invalid admin id",
		"error.admin_username_exists":       "Admin username already exists",
		"error.admin_username_invalid":      "Invalid admin username",

		"error.user_not_found":     "User not found",
		"error.user_id_invalid":    "Invalid user id",
		"error.user_fetch_failed":  "Failed to fetch user",
		"error.user_update_failed": "Failed to update user",

		"error.email_service_not_configured": "Email service not configured",
		"error.email_recipient_not_found":    "Recipient not found",
		"error.settings_fetch_failed":        "Failed to load settings",
		"error.settings_save_failed":         "Failed to save settings",
		"error.config_fetch_failed":          "Failed to load configuration",
		"error.dashboard_fetch_failed":       "Failed to load dashboard",
		"error.save_failed":                  "Save failed",

		"error.points_invalid":      "Invalid points amount",
		"error.points_insufficient": "Insufficient points balance",

		"error.self_referral":   "You cannot use your own referral code",
		"error.already_claimed": "Reward already claimed",

		"error.order_not_found":      "Order not found",
		"error.order_status_invalid": "Order status does not allow this operation",
		"error.order_event_invalid":  "Invalid order event",

		"error.ambassador_exists":         "Ambassador application already submitted",
		"error.ambassador_review_invalid": "Invalid ambassador review action",

		"error.review_verify_unavailable": "Review verification is temporarily unavailable, please try again later",
		"error.review_not_owned":          "This review does not belong to your account",
		"error.review_already_rewarded":   "This review has already been rewarded",

		"error.redemption_below_minimum": "Below the minimum redeemable points",
		"error.redemption_over_limit":    "Redemption exceeds the order limit",
		"error.reward_config_invalid":    "Invalid reward configuration",

		"points.entry.signup":                "Signup reward",
		"points.entry.referral":              "Referral reward",
		"points.entry.review":                "Review reward",
		"points.entry.redemption":            "Checkout redemption",
		"points.entry.manual":                "Manual adjustment",
		"points.entry.refund":                "Refund reversal",
		"points.entry.ambassador_commission": "Ambassador commission",

		"email.points_changed.subject":     "Points balance update",
		"email.points_changed.body":        "Your points balance changed by %+d (current balance %d).\nReason: %s",
		"email.monthly_bonus.subject":      "Monthly performance bonus awarded",
		"email.monthly_bonus.body":         "Congratulations! Your referred sales last month met the performance threshold. %d bonus points have been added (current balance %d).",
		"email.inactivity_penalty.subject": "Account inactivity notice",
		"email.inactivity_penalty.body":    "You have had no completed referrals for over %d months. %d points were deducted this month (current balance %d).",
	},
}
