package service

import (
	"errors"
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"
)

const attributionClickDedupeWindow = 10 * time.Minute

// AttributionService 推荐归因服务
type AttributionService struct {
	attributionRepo repository.AttributionRepository
	codeService     *CodeService
	settingService  *SettingService
}

// AttributionRecordInput 落地点击记录输入
type AttributionRecordInput struct {
	Code        string
	UserID      uint
	VisitorKey  string
	LandingPath string
	ClientIP    string
	UserAgent   string
}

// AttributionQuery 归因解析输入（各渠道线索的显式快照）
type AttributionQuery struct {
	SessionCode string
	VisitorKey  string
	Email       string
	CookieCode  string
}

// Attribution 归因解析结果
type Attribution struct {
	Code    string
	OwnerID uint
	Channel string
}

// NewAttributionService 创建推荐归因服务
func NewAttributionService(
	attributionRepo repository.AttributionRepository,
	codeService *CodeService,
	settingService *SettingService,
) *AttributionService {
	return &AttributionService{
		attributionRepo: attributionRepo,
		codeService:     codeService,
		settingService:  settingService,
	}
}

// Record 记录推荐码落地访问；去重窗口内的重复点击静默丢弃
func (s *AttributionService) Record(input AttributionRecordInput) error {
	if s.attributionRepo == nil || s.codeService == nil {
		return nil
	}
	code, err := s.codeService.Validate(input.Code, models.CodeKindReferral)
	if err != nil {
		return err
	}
	if input.UserID > 0 && code.UserID == input.UserID {
		return ErrSelfReferral
	}

	visitorKey := strings.TrimSpace(input.VisitorKey)
	if visitorKey != "" {
		duplicated, err := s.attributionRepo.HasRecentClick(code.Code, visitorKey, time.Now().Add(-attributionClickDedupeWindow))
		if err != nil {
			return err
		}
		if duplicated {
			return nil
		}
	}

	click := &models.ReferralClick{
		Code:        code.Code,
		VisitorKey:  visitorKey,
		LandingPath: strings.TrimSpace(input.LandingPath),
		ClientIP:    strings.TrimSpace(input.ClientIP),
		UserAgent:   strings.TrimSpace(input.UserAgent),
		CreatedAt:   time.Now(),
	}
	return s.attributionRepo.CreateClick(click)
}

// AssociateEmail 登记邮箱与推荐码的关联（游客下单链路）
func (s *AttributionService) AssociateEmail(email, rawCode string) error {
	if s.attributionRepo == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if normalized == "" || code == "" {
		return nil
	}
	setting, err := s.settingService.GetRewardSetting()
	if err != nil {
		return err
	}

	now := time.Now()
	var expiresAt *time.Time
	if setting.EmailAssociationDays > 0 {
		t := now.Add(time.Duration(setting.EmailAssociationDays) * 24 * time.Hour)
		expiresAt = &t
	}
	return s.attributionRepo.UpsertEmailAssociation(&models.ReferralEmailAssociation{
		Email:     normalized,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// ClearEmailAssociation 删除邮箱关联（归因被消费后调用）
func (s *AttributionService) ClearEmailAssociation(email string) error {
	if s.attributionRepo == nil {
		return nil
	}
	return s.attributionRepo.DeleteEmailAssociation(email)
}

// Resolve 按渠道优先级解析下单归因：
// 会话携带 > 邮箱关联 > 访客点击（窗口内最近一次）> 历史 Cookie。
// 同一渠道内以最近记录为准。
func (s *AttributionService) Resolve(query AttributionQuery) (*Attribution, error) {
	if s.codeService == nil {
		return nil, nil
	}

	if attr, err := s.resolveBareCode(query.SessionCode, models.AttributionSession); err != nil || attr != nil {
		return attr, err
	}

	if email := strings.ToLower(strings.TrimSpace(query.Email)); email != "" && s.attributionRepo != nil {
		assoc, err := s.attributionRepo.GetEmailAssociation(email, time.Now())
		if err != nil {
			return nil, err
		}
		if assoc != nil {
			if attr, err := s.resolveBareCode(assoc.Code, models.AttributionEmail); err != nil || attr != nil {
				return attr, err
			}
		}
	}

	if visitorKey := strings.TrimSpace(query.VisitorKey); visitorKey != "" && s.attributionRepo != nil {
		setting, err := s.settingService.GetRewardSetting()
		if err != nil {
			return nil, err
		}
		if setting.CookieWindowDays > 0 {
			since := time.Now().Add(-time.Duration(setting.CookieWindowDays) * 24 * time.Hour)
			click, err := s.attributionRepo.GetLatestClickByVisitorKey(visitorKey, since)
			if err != nil {
				return nil, err
			}
			if click != nil {
				if attr, err := s.resolveBareCode(click.Code, models.AttributionVisitor); err != nil || attr != nil {
					return attr, err
				}
			}
		}
	}

	return s.resolveBareCode(query.CookieCode, models.AttributionCookie)
}

// CleanupExpiredEmailAssociations 清理过期邮箱关联，返回清理条数
func (s *AttributionService) CleanupExpiredEmailAssociations() (int64, error) {
	if s.attributionRepo == nil {
		return 0, nil
	}
	return s.attributionRepo.DeleteExpiredEmailAssociations(time.Now())
}

func (s *AttributionService) resolveBareCode(rawCode, channel string) (*Attribution, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, nil
	}
	ownerID, err := s.codeService.ResolveOwner(code, models.CodeKindReferral)
	if err != nil {
		// 失效线索跳过，继续尝试下一渠道
		if errors.Is(err, ErrCodeInvalid) || errors.Is(err, ErrCodeExpired) {
			return nil, nil
		}
		return nil, err
	}
	return &Attribution{
		Code:    code,
		OwnerID: ownerID,
		Channel: channel,
	}, nil
}
