package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	GetByCode(ctx context.Context, code string) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter CatalogFilter) ([]model.Product, int64, error)

	// 价格档位整组替换: 先删后插
	ReplacePriceTiers(ctx context.Context, productID int64, tiers []model.PriceTier) error
	GetPriceTiers(ctx context.Context, productID int64) ([]model.PriceTier, error)

	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// CatalogFilter 目录列表过滤条件
type CatalogFilter struct {
	Status   string
	Keyword  string
	Page     int
	PageSize int
}

// Normalize 补全分页默认值
func (f *CatalogFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 200 {
		f.PageSize = 20
	}
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByCode(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

func (r *productRepo) List(ctx context.Context, filter CatalogFilter) ([]model.Product, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := query.
		Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&products).Error
	return products, total, err
}

func (r *productRepo) ReplacePriceTiers(ctx context.Context, productID int64, tiers []model.PriceTier) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("owner_id = ? AND owner_type = ?", productID, model.OwnerTypeProduct).
		Delete(&model.PriceTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].OwnerID = productID
		tiers[i].OwnerType = model.OwnerTypeProduct
	}
	return db.Create(&tiers).Error
}

func (r *productRepo) GetPriceTiers(ctx context.Context, productID int64) ([]model.PriceTier, error) {
	var tiers []model.PriceTier
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND owner_type = ?", productID, model.OwnerTypeProduct).
		Find(&tiers).Error
	return tiers, err
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
