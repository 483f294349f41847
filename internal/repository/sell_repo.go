package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// SellRepository 销售过账行仓储（商品 + 疗程）
type SellRepository interface {
	// 商品销售
	CreateProductSell(ctx context.Context, sell *model.ProductSell) error
	GetProductSell(ctx context.Context, id int64) (*model.ProductSell, error)
	UpdateProductSell(ctx context.Context, sell *model.ProductSell) error
	DeleteProductSell(ctx context.Context, id int64) error
	ListProductSells(ctx context.Context, filter SellFilter) ([]model.ProductSell, int64, error)
	ListProductSellsByReference(ctx context.Context, orderReference string) ([]model.ProductSell, error)
	// 商品删除前的快照处理: 名字落到行上、外键置空
	DetachProduct(ctx context.Context, productID int64, nameSnapshot string) error

	// 疗程销售
	CreateTherapySell(ctx context.Context, sell *model.TherapySell) error
	GetTherapySell(ctx context.Context, id int64) (*model.TherapySell, error)
	UpdateTherapySell(ctx context.Context, sell *model.TherapySell) error
	DeleteTherapySell(ctx context.Context, id int64) error
	ListTherapySells(ctx context.Context, filter SellFilter) ([]model.TherapySell, int64, error)
	DetachTherapy(ctx context.Context, therapyID int64, nameSnapshot string) error

	// 会员剩余次数: Σ therapy_sell.amount − Σ therapy_record.deduct_sessions
	SumTherapyPurchases(ctx context.Context, memberID int64) (map[int64]int, error)
	SumTherapyDeductions(ctx context.Context, memberID int64) (map[int64]int, error)

	WithTx(tx *gorm.DB) SellRepository
	Transaction(ctx context.Context, fn func(txRepo SellRepository) error) error
}

// SellFilter 销售行查询条件
type SellFilter struct {
	StoreID  int64
	MemberID int64
	Keyword  string
	DateFrom string
	DateTo   string
	Page     int
	PageSize int
}

func (f *SellFilter) normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 500 {
		f.PageSize = 20
	}
}

// ==================== 仓储实现 ====================

type sellRepo struct {
	db *gorm.DB
}

// NewSellRepository 创建销售仓储
func NewSellRepository(db *gorm.DB) SellRepository {
	return &sellRepo{db: db}
}

func (r *sellRepo) CreateProductSell(ctx context.Context, sell *model.ProductSell) error {
	return r.db.WithContext(ctx).Create(sell).Error
}

func (r *sellRepo) GetProductSell(ctx context.Context, id int64) (*model.ProductSell, error) {
	var sell model.ProductSell
	if err := r.db.WithContext(ctx).First(&sell, id).Error; err != nil {
		return nil, err
	}
	return &sell, nil
}

func (r *sellRepo) UpdateProductSell(ctx context.Context, sell *model.ProductSell) error {
	return r.db.WithContext(ctx).Save(sell).Error
}

func (r *sellRepo) DeleteProductSell(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ProductSell{}, id).Error
}

func (r *sellRepo) ListProductSells(ctx context.Context, filter SellFilter) ([]model.ProductSell, int64, error) {
	filter.normalize()

	query := r.db.WithContext(ctx).Model(&model.ProductSell{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.MemberID > 0 {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if filter.Keyword != "" {
		query = query.Where("product_name LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.DateFrom != "" {
		query = query.Where("sell_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("sell_date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sells []model.ProductSell
	err := query.Order("sell_date DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&sells).Error
	return sells, total, err
}

func (r *sellRepo) ListProductSellsByReference(ctx context.Context, orderReference string) ([]model.ProductSell, error) {
	var sells []model.ProductSell
	err := r.db.WithContext(ctx).
		Where("order_reference = ?", orderReference).
		Order("id ASC").
		Find(&sells).Error
	return sells, err
}

func (r *sellRepo) DetachProduct(ctx context.Context, productID int64, nameSnapshot string) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductSell{}).
		Where("product_id = ?", productID).
		Updates(map[string]interface{}{
			"product_name": nameSnapshot,
			"product_id":   nil,
		}).Error
}

func (r *sellRepo) CreateTherapySell(ctx context.Context, sell *model.TherapySell) error {
	return r.db.WithContext(ctx).Create(sell).Error
}

func (r *sellRepo) GetTherapySell(ctx context.Context, id int64) (*model.TherapySell, error) {
	var sell model.TherapySell
	if err := r.db.WithContext(ctx).First(&sell, id).Error; err != nil {
		return nil, err
	}
	return &sell, nil
}

func (r *sellRepo) UpdateTherapySell(ctx context.Context, sell *model.TherapySell) error {
	return r.db.WithContext(ctx).Save(sell).Error
}

func (r *sellRepo) DeleteTherapySell(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.TherapySell{}, id).Error
}

func (r *sellRepo) ListTherapySells(ctx context.Context, filter SellFilter) ([]model.TherapySell, int64, error) {
	filter.normalize()

	query := r.db.WithContext(ctx).Model(&model.TherapySell{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.MemberID > 0 {
		query = query.Where("member_id = ?", filter.MemberID)
	}
	if filter.Keyword != "" {
		query = query.Where("therapy_name LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.DateFrom != "" {
		query = query.Where("sell_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("sell_date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sells []model.TherapySell
	err := query.Order("sell_date DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&sells).Error
	return sells, total, err
}

func (r *sellRepo) DetachTherapy(ctx context.Context, therapyID int64, nameSnapshot string) error {
	return r.db.WithContext(ctx).
		Model(&model.TherapySell{}).
		Where("therapy_id = ?", therapyID).
		Updates(map[string]interface{}{
			"therapy_name": nameSnapshot,
			"therapy_id":   nil,
		}).Error
}

type therapySumRow struct {
	TherapyID int64
	Total     int
}

func (r *sellRepo) SumTherapyPurchases(ctx context.Context, memberID int64) (map[int64]int, error) {
	var rows []therapySumRow
	err := r.db.WithContext(ctx).
		Model(&model.TherapySell{}).
		Select("therapy_id, SUM(amount) AS total").
		Where("member_id = ? AND therapy_id IS NOT NULL", memberID).
		Group("therapy_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[int64]int, len(rows))
	for _, row := range rows {
		result[row.TherapyID] = row.Total
	}
	return result, nil
}

func (r *sellRepo) SumTherapyDeductions(ctx context.Context, memberID int64) (map[int64]int, error) {
	var rows []therapySumRow
	err := r.db.WithContext(ctx).
		Model(&model.TherapyRecord{}).
		Select("therapy_id, SUM(deduct_sessions) AS total").
		Where("member_id = ?", memberID).
		Group("therapy_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[int64]int, len(rows))
	for _, row := range rows {
		result[row.TherapyID] = row.Total
	}
	return result, nil
}

func (r *sellRepo) WithTx(tx *gorm.DB) SellRepository {
	return &sellRepo{db: tx}
}

func (r *sellRepo) Transaction(ctx context.Context, fn func(txRepo SellRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
