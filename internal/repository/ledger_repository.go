package repository

import (
	"errors"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 积分账本数据访问接口
type LedgerRepository interface {
	GetAccountByUserID(userID uint) (*models.RewardAccount, error)
	GetAccountByUserIDForUpdate(userID uint) (*models.RewardAccount, error)
	GetAccountsByUserIDs(userIDs []uint) ([]models.RewardAccount, error)
	CreateAccount(account *models.RewardAccount) error
	UpdateAccount(account *models.RewardAccount) error
	CreateEntry(entry *models.PointsLogEntry) error
	ListEntries(filter PointsLogListFilter) ([]models.PointsLogEntry, int64, error)
	SumEntries(userID uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormLedgerRepository
}

// GormLedgerRepository GORM 积分账本仓储实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建积分账本仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Transaction 执行事务
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetAccountByUserID 按用户ID获取积分账户
func (r *GormLedgerRepository) GetAccountByUserID(userID uint) (*models.RewardAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.RewardAccount
	if err := r.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByUserIDForUpdate 按用户ID加锁获取积分账户
func (r *GormLedgerRepository) GetAccountByUserIDForUpdate(userID uint) (*models.RewardAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	var account models.RewardAccount
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountsByUserIDs 批量获取积分账户
func (r *GormLedgerRepository) GetAccountsByUserIDs(userIDs []uint) ([]models.RewardAccount, error) {
	if len(userIDs) == 0 {
		return []models.RewardAccount{}, nil
	}
	var accounts []models.RewardAccount
	if err := r.db.Where("user_id IN ?", userIDs).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount 创建积分账户
func (r *GormLedgerRepository) CreateAccount(account *models.RewardAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新积分账户
func (r *GormLedgerRepository) UpdateAccount(account *models.RewardAccount) error {
	return r.db.Save(account).Error
}

// CreateEntry 追加积分流水
func (r *GormLedgerRepository) CreateEntry(entry *models.PointsLogEntry) error {
	return r.db.Create(entry).Error
}

// ListEntries 分页查询积分流水（新到旧）
func (r *GormLedgerRepository) ListEntries(filter PointsLogListFilter) ([]models.PointsLogEntry, int64, error) {
	query := r.db.Model(&models.PointsLogEntry{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.EntryType != "" {
		query = query.Where("entry_type = ?", filter.EntryType)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.PointsLogEntry
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// SumEntries 汇总用户全部流水（用于与缓存余额对账）
func (r *GormLedgerRepository) SumEntries(userID uint) (int64, error) {
	if userID == 0 {
		return 0, nil
	}
	var sum int64
	err := r.db.Model(&models.PointsLogEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&sum).Error
	return sum, err
}
