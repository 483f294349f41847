package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// OrderRepository 销售单仓储
type OrderRepository interface {
	Create(ctx context.Context, order *model.SalesOrder) error
	GetByID(ctx context.Context, id int64) (*model.SalesOrder, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.SalesOrder, error)
	Update(ctx context.Context, order *model.SalesOrder) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter OrderFilter) ([]model.SalesOrder, int64, error)

	WithTx(tx *gorm.DB) OrderRepository
}

// OrderFilter 销售单查询条件
type OrderFilter struct {
	StoreID  int64
	MemberID int64
	Keyword  string
	DateFrom string
	DateTo   string
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建销售单仓储
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.SalesOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*model.SalesOrder, error) {
	var order model.SalesOrder
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.SalesOrder, error) {
	var order model.SalesOrder
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) Update(ctx context.Context, order *model.SalesOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&model.SalesOrderItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.SalesOrder{}, id).Error
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.SalesOrder, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&model.SalesOrder{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.MemberID > 0 {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if filter.Keyword != "" {
		query = query.Where("order_number LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.DateFrom != "" {
		query = query.Where("order_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("order_date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.SalesOrder
	err := query.Preload("Items").
		Order("order_date DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepo{db: tx}
}
