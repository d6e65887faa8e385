package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/loyaltycore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单快照数据访问接口
type OrderRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *models.Order) error
	Update(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByOrderNoForUpdate(orderNo string) (*models.Order, error)
	ListGuestOrdersByEmailSince(email string, since time.Time) ([]models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
}

// GormOrderRepository GORM 订单快照仓储
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单快照仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建订单快照
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// Update 更新订单快照
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// GetByID 按ID获取订单快照
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 按订单号获取订单快照
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	no := strings.TrimSpace(orderNo)
	if no == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("order_no = ?", no).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNoForUpdate 按订单号锁定查询订单快照
func (r *GormOrderRepository) GetByOrderNoForUpdate(orderNo string) (*models.Order, error) {
	no := strings.TrimSpace(orderNo)
	if no == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_no = ?", no).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListGuestOrdersByEmailSince 查询指定时间之后的游客已完成订单，供注册回溯补记
func (r *GormOrderRepository) ListGuestOrdersByEmailSince(email string, since time.Time) ([]models.Order, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return []models.Order{}, nil
	}
	var orders []models.Order
	if err := r.db.Where("user_id = 0 AND billing_email = ? AND status = ? AND created_at >= ?",
		normalized, models.OrderStatusCompleted, since).
		Order("id asc").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// List 查询订单快照列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		condition, argCount := keywordLikeCondition(r.db, "order_no")
		query = query.Where(condition, repeatLikeArgs("%"+orderNo+"%", argCount)...)
	}
	if email := strings.TrimSpace(filter.BillingEmail); email != "" {
		query = query.Where("billing_email = ?", strings.ToLower(email))
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

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
