package service

import (
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"
	"github.com/loyaltycore/internal/repository"

	"gorm.io/gorm"
)

// LedgerService 积分账本服务
type LedgerService struct {
	ledgerRepo repository.LedgerRepository
}

// LedgerChangeInput 积分变动输入
type LedgerChangeInput struct {
	UserID        uint
	Points        int64
	EntryType     string
	Description   string
	ReferenceType string
	ReferenceID   string
}

// NewLedgerService 创建积分账本服务
func NewLedgerService(ledgerRepo repository.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// GetAccount 获取积分账户（不存在时自动创建）
func (s *LedgerService) GetAccount(userID uint) (*models.RewardAccount, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	return s.getOrCreateAccount(userID)
}

// Balance 查询用户当前积分余额
func (s *LedgerService) Balance(userID uint) (int64, error) {
	account, err := s.GetAccount(userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// GetBalancesByUserIDs 批量查询用户积分余额
func (s *LedgerService) GetBalancesByUserIDs(userIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	accounts, err := s.ledgerRepo.GetAccountsByUserIDs(userIDs)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		result[account.UserID] = account.Balance
	}
	return result, nil
}

// History 查询积分流水
func (s *LedgerService) History(filter repository.PointsLogListFilter) ([]models.PointsLogEntry, int64, error) {
	return s.ledgerRepo.ListEntries(filter)
}

// Add 增加用户积分
func (s *LedgerService) Add(input LedgerChangeInput) (*models.RewardAccount, *models.PointsLogEntry, error) {
	var accountResult *models.RewardAccount
	var entryResult *models.PointsLogEntry
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		account, entry, err := s.CreditInTx(tx, input)
		if err != nil {
			return err
		}
		accountResult = account
		entryResult = entry
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, entryResult, nil
}

// Deduct 扣减用户积分，余额不足时失败
func (s *LedgerService) Deduct(input LedgerChangeInput) (*models.RewardAccount, *models.PointsLogEntry, error) {
	var accountResult *models.RewardAccount
	var entryResult *models.PointsLogEntry
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		account, entry, err := s.DebitInTx(tx, input)
		if err != nil {
			return err
		}
		accountResult = account
		entryResult = entry
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return accountResult, entryResult, nil
}

// CreditInTx 在事务内增加积分并写入流水
func (s *LedgerService) CreditInTx(tx *gorm.DB, input LedgerChangeInput) (*models.RewardAccount, *models.PointsLogEntry, error) {
	return s.changeBalanceInTx(tx, input, input.Points)
}

// DebitInTx 在事务内扣减积分并写入流水
func (s *LedgerService) DebitInTx(tx *gorm.DB, input LedgerChangeInput) (*models.RewardAccount, *models.PointsLogEntry, error) {
	return s.changeBalanceInTx(tx, input, -input.Points)
}

// RecalculateBalance 按流水重算余额并回写账户，返回重算后的余额
func (s *LedgerService) RecalculateBalance(userID uint) (int64, error) {
	if userID == 0 {
		return 0, ErrNotFound
	}
	var balance int64
	if err := s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.ledgerRepo.WithTx(tx)
		account, err := s.ensureAccountForUpdate(repo, userID, time.Now())
		if err != nil {
			return err
		}
		sum, err := repo.SumEntries(userID)
		if err != nil {
			return err
		}
		if account.Balance != sum {
			account.Balance = sum
			account.UpdatedAt = time.Now()
			if err := repo.UpdateAccount(account); err != nil {
				return err
			}
		}
		balance = sum
		return nil
	}); err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *LedgerService) changeBalanceInTx(tx *gorm.DB, input LedgerChangeInput, delta int64) (*models.RewardAccount, *models.PointsLogEntry, error) {
	if tx == nil {
		return nil, nil, ErrInvalidPoints
	}
	if input.UserID == 0 {
		return nil, nil, ErrNotFound
	}
	if input.Points <= 0 {
		return nil, nil, ErrInvalidPoints
	}
	entryType := strings.TrimSpace(input.EntryType)
	if !models.ValidPointsEntryType(entryType) {
		return nil, nil, ErrInvalidEntryType
	}

	now := time.Now()
	repo := s.ledgerRepo.WithTx(tx)
	account, err := s.ensureAccountForUpdate(repo, input.UserID, now)
	if err != nil {
		return nil, nil, err
	}

	before := account.Balance
	after := before + delta
	if after < 0 {
		return nil, nil, ErrInsufficientBalance
	}
	account.Balance = after
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, err
	}

	entry := &models.PointsLogEntry{
		UserID:        input.UserID,
		Points:        delta,
		EntryType:     entryType,
		Description:   strings.TrimSpace(input.Description),
		ReferenceType: strings.TrimSpace(input.ReferenceType),
		ReferenceID:   strings.TrimSpace(input.ReferenceID),
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     now,
	}
	if err := repo.CreateEntry(entry); err != nil {
		return nil, nil, err
	}
	return account, entry, nil
}

func (s *LedgerService) getOrCreateAccount(userID uint) (*models.RewardAccount, error) {
	account, err := s.ledgerRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = &models.RewardAccount{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ledgerRepo.CreateAccount(account); err != nil {
		created, queryErr := s.ledgerRepo.GetAccountByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, err
	}
	return account, nil
}

func (s *LedgerService) ensureAccountForUpdate(repo *repository.GormLedgerRepository, userID uint, now time.Time) (*models.RewardAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.RewardAccount{
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, err
	}
	return account, nil
}
