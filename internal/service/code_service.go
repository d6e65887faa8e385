package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"
)

const (
	codeGenerateMaxRetry = 8
	ambassadorCodePrefix = "AMB"
	codeAlphabet         = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// CodeService 推荐码服务
type CodeService struct {
	codeRepo       repository.ReferralCodeRepository
	settingService *SettingService
}

// NewCodeService 创建推荐码服务
func NewCodeService(codeRepo repository.ReferralCodeRepository, settingService *SettingService) *CodeService {
	return &CodeService{
		codeRepo:       codeRepo,
		settingService: settingService,
	}
}

// Issue 签发推荐码；用户已持有未过期的同类码时直接返回
func (s *CodeService) Issue(userID uint, kind string) (*models.ReferralCode, error) {
	if userID == 0 || s.codeRepo == nil {
		return nil, ErrNotFound
	}
	kind = normalizeCodeKind(kind)
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	existing, err := s.codeRepo.GetActiveByUserAndKind(userID, kind)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Expired(now) {
			return existing, nil
		}
		if err := s.codeRepo.Deactivate(existing.ID, now); err != nil {
			return nil, err
		}
	}
	return s.generate(userID, kind, setting, now)
}

// Validate 校验推荐码；过期码惰性作废，按配置决定是否静默换发
func (s *CodeService) Validate(rawCode, kind string) (*models.ReferralCode, error) {
	code, err := s.lookup(rawCode, kind)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !code.Expired(now) {
		return code, nil
	}

	if err := s.codeRepo.Deactivate(code.ID, now); err != nil {
		return nil, err
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return nil, err
	}
	if !setting.ResetExpiredCodes {
		return nil, ErrCodeExpired
	}
	return s.generate(code.UserID, code.Kind, setting, now)
}

// ResolveOwner 解析推荐码归属用户，不触发换发
func (s *CodeService) ResolveOwner(rawCode, kind string) (uint, error) {
	code, err := s.lookup(rawCode, kind)
	if err != nil {
		return 0, err
	}
	if code.Expired(time.Now()) {
		return 0, ErrCodeExpired
	}
	return code.UserID, nil
}

// MarkUsed 记录推荐码的一次使用
func (s *CodeService) MarkUsed(codeID uint) error {
	if codeID == 0 || s.codeRepo == nil {
		return nil
	}
	return s.codeRepo.BumpUsage(codeID, time.Now())
}

func (s *CodeService) lookup(rawCode, kind string) (*models.ReferralCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(rawCode))
	if normalized == "" || s.codeRepo == nil {
		return nil, ErrCodeInvalid
	}
	code, err := s.codeRepo.GetByCode(normalized)
	if err != nil {
		return nil, err
	}
	if code == nil || !code.IsActive {
		return nil, ErrCodeInvalid
	}
	if code.Kind != normalizeCodeKind(kind) {
		return nil, ErrCodeInvalid
	}
	return code, nil
}

func (s *CodeService) generate(userID uint, kind string, setting RewardSetting, now time.Time) (*models.ReferralCode, error) {
	prefix := strings.ToUpper(strings.TrimSpace(setting.CodePrefix))
	if kind == models.CodeKindAmbassador {
		prefix = ambassadorCodePrefix
	}
	var expiresAt *time.Time
	if setting.CodeExpiryDays > 0 {
		t := now.Add(time.Duration(setting.CodeExpiryDays) * 24 * time.Hour)
		expiresAt = &t
	}

	for i := 0; i < codeGenerateMaxRetry; i++ {
		suffix, err := randomCodeSuffix(setting.CodeLength)
		if err != nil {
			return nil, err
		}
		code := &models.ReferralCode{
			UserID:    userID,
			Kind:      kind,
			Code:      prefix + suffix,
			IsActive:  true,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.codeRepo.Create(code); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		return code, nil
	}
	return nil, ErrCodeInvalid
}

func normalizeCodeKind(kind string) string {
	if strings.TrimSpace(kind) == models.CodeKindAmbassador {
		return models.CodeKindAmbassador
	}
	return models.CodeKindReferral
}

func randomCodeSuffix(length int) (string, error) {
	var builder strings.Builder
	builder.Grow(length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(codeAlphabet[n.Int64()])
	}
	return builder.String(), nil
}

// isUniqueViolation 判断是否唯一索引冲突（sqlite 与 postgres 错误文案均覆盖）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
