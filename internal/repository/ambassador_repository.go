package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AmbassadorRepository 品牌大使数据访问接口
type AmbassadorRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) AmbassadorRepository

	GetProfileByID(id uint) (*models.AmbassadorProfile, error)
	GetProfileByUserID(userID uint) (*models.AmbassadorProfile, error)
	CreateProfile(profile *models.AmbassadorProfile) error
	UpdateProfile(profile *models.AmbassadorProfile) error
	ListProfiles(filter AmbassadorListFilter) ([]models.AmbassadorProfile, int64, error)
	ListActiveProfiles() ([]models.AmbassadorProfile, error)

	CreateEarning(earning *models.AmbassadorEarning) error
	GetEarningByOrderAndAmbassador(orderID, ambassadorID uint) (*models.AmbassadorEarning, error)
	ListEarnings(filter AmbassadorEarningListFilter) ([]models.AmbassadorEarning, int64, error)
	GetLatestEarning(ambassadorID uint) (*models.AmbassadorEarning, error)
	SumOrderTotalByAmbassador(ambassadorID uint, from, to time.Time) (decimal.Decimal, error)
	GetStatsBatch(ambassadorIDs []uint) (map[uint]AmbassadorStatsAggregate, error)
}

// GormAmbassadorRepository GORM 品牌大使仓储
type GormAmbassadorRepository struct {
	db *gorm.DB
}

// NewAmbassadorRepository 创建品牌大使仓储
func NewAmbassadorRepository(db *gorm.DB) *GormAmbassadorRepository {
	return &GormAmbassadorRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAmbassadorRepository) WithTx(tx *gorm.DB) AmbassadorRepository {
	if tx == nil {
		return r
	}
	return &GormAmbassadorRepository{db: tx}
}

// Transaction 执行事务
func (r *GormAmbassadorRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetProfileByID 按ID获取大使档案
func (r *GormAmbassadorRepository) GetProfileByID(id uint) (*models.AmbassadorProfile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.AmbassadorProfile
	if err := r.db.Preload("User").Preload("Code").First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetProfileByUserID 按用户ID获取大使档案
func (r *GormAmbassadorRepository) GetProfileByUserID(userID uint) (*models.AmbassadorProfile, error) {
	if userID == 0 {
		return nil, nil
	}
	var profile models.AmbassadorProfile
	if err := r.db.Preload("User").Preload("Code").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// CreateProfile 创建大使档案
func (r *GormAmbassadorRepository) CreateProfile(profile *models.AmbassadorProfile) error {
	return r.db.Create(profile).Error
}

// UpdateProfile 更新大使档案
func (r *GormAmbassadorRepository) UpdateProfile(profile *models.AmbassadorProfile) error {
	return r.db.Save(profile).Error
}

// ListProfiles 查询大使档案列表
func (r *GormAmbassadorRepository) ListProfiles(filter AmbassadorListFilter) ([]models.AmbassadorProfile, int64, error) {
	query := r.db.Model(&models.AmbassadorProfile{}).Preload("User").Preload("Code")
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("ambassador_profiles.status = ?", status)
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		condition, argCount := keywordLikeCondition(r.db, "users.email", "users.display_name")
		query = query.
			Joins("LEFT JOIN users ON users.id = ambassador_profiles.user_id").
			Where("("+condition+")", repeatLikeArgs("%"+keyword+"%", argCount)...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AmbassadorProfile
	if err := query.Order("ambassador_profiles.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListActiveProfiles 查询全部已通过的大使档案，供周期结算遍历
func (r *GormAmbassadorRepository) ListActiveProfiles() ([]models.AmbassadorProfile, error) {
	var rows []models.AmbassadorProfile
	if err := r.db.Where("status = ?", models.AmbassadorStatusActive).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateEarning 插入佣金记录，(ambassador_id, order_id) 唯一冲突原样返回
func (r *GormAmbassadorRepository) CreateEarning(earning *models.AmbassadorEarning) error {
	return r.db.Create(earning).Error
}

// GetEarningByOrderAndAmbassador 按订单和大使查询佣金记录
func (r *GormAmbassadorRepository) GetEarningByOrderAndAmbassador(orderID, ambassadorID uint) (*models.AmbassadorEarning, error) {
	if orderID == 0 || ambassadorID == 0 {
		return nil, nil
	}
	var earning models.AmbassadorEarning
	if err := r.db.Where("order_id = ? AND ambassador_id = ?", orderID, ambassadorID).
		First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// ListEarnings 查询佣金记录列表
func (r *GormAmbassadorRepository) ListEarnings(filter AmbassadorEarningListFilter) ([]models.AmbassadorEarning, int64, error) {
	query := r.db.Model(&models.AmbassadorEarning{}).
		Preload("Ambassador").
		Preload("Ambassador.User")
	if filter.AmbassadorID != 0 {
		query = query.Where("ambassador_earnings.ambassador_id = ?", filter.AmbassadorID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("ambassador_earnings.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("ambassador_earnings.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.AmbassadorEarning
	if err := query.Order("ambassador_earnings.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetLatestEarning 查询大使最近一笔佣金记录
func (r *GormAmbassadorRepository) GetLatestEarning(ambassadorID uint) (*models.AmbassadorEarning, error) {
	if ambassadorID == 0 {
		return nil, nil
	}
	var earning models.AmbassadorEarning
	if err := r.db.Where("ambassador_id = ?", ambassadorID).
		Order("created_at desc, id desc").
		First(&earning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &earning, nil
}

// SumOrderTotalByAmbassador 汇总大使在指定时间窗内的计佣订单金额
func (r *GormAmbassadorRepository) SumOrderTotalByAmbassador(ambassadorID uint, from, to time.Time) (decimal.Decimal, error) {
	if ambassadorID == 0 {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	if err := r.db.Model(&models.AmbassadorEarning{}).
		Select("COALESCE(SUM(order_total), 0) AS total").
		Where("ambassador_id = ? AND created_at >= ? AND created_at < ?", ambassadorID, from, to).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

// GetStatsBatch 批量汇总大使统计信息
func (r *GormAmbassadorRepository) GetStatsBatch(ambassadorIDs []uint) (map[uint]AmbassadorStatsAggregate, error) {
	result := make(map[uint]AmbassadorStatsAggregate, len(ambassadorIDs))
	if len(ambassadorIDs) == 0 {
		return result, nil
	}

	for _, id := range ambassadorIDs {
		if id == 0 {
			continue
		}
		result[id] = AmbassadorStatsAggregate{
			TotalCommission: models.NewMoneyFromDecimal(decimal.Zero),
		}
	}

	var rows []struct {
		AmbassadorID    uint            `gorm:"column:ambassador_id"`
		OrderCount      int64           `gorm:"column:order_count"`
		TotalCommission decimal.Decimal `gorm:"column:total_commission"`
		TotalPoints     int64           `gorm:"column:total_points"`
	}
	if err := r.db.Model(&models.AmbassadorEarning{}).
		Select("ambassador_id, COUNT(DISTINCT order_id) AS order_count, COALESCE(SUM(commission_amount), 0) AS total_commission, COALESCE(SUM(points_awarded), 0) AS total_points").
		Where("ambassador_id IN ?", ambassadorIDs).
		Group("ambassador_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		item := result[row.AmbassadorID]
		item.OrderCount = row.OrderCount
		item.TotalCommission = models.NewMoneyFromDecimal(row.TotalCommission)
		item.TotalPoints = row.TotalPoints
		result[row.AmbassadorID] = item
	}

	return result, nil
}
