package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// 套组类型（bundle_items.bundle_type）
const (
	BundleTypeProduct = "PRODUCT_BUNDLE"
	BundleTypeTherapy = "THERAPY_BUNDLE"
)

// ==================== 接口定义 ====================

// BundleRepository 套组仓储接口，商品套组与疗程套组共用组件表
type BundleRepository interface {
	// 商品套组
	CreateProductBundle(ctx context.Context, bundle *model.ProductBundle) error
	GetProductBundle(ctx context.Context, id int64) (*model.ProductBundle, error)
	GetProductBundleByCode(ctx context.Context, code string) (*model.ProductBundle, error)
	UpdateProductBundle(ctx context.Context, bundle *model.ProductBundle) error
	DeleteProductBundle(ctx context.Context, id int64) error
	ListProductBundles(ctx context.Context, filter CatalogFilter) ([]model.ProductBundle, int64, error)

	// 疗程套组
	CreateTherapyBundle(ctx context.Context, bundle *model.TherapyBundle) error
	GetTherapyBundle(ctx context.Context, id int64) (*model.TherapyBundle, error)
	GetTherapyBundleByCode(ctx context.Context, code string) (*model.TherapyBundle, error)
	UpdateTherapyBundle(ctx context.Context, bundle *model.TherapyBundle) error
	DeleteTherapyBundle(ctx context.Context, id int64) error
	ListTherapyBundles(ctx context.Context, filter CatalogFilter) ([]model.TherapyBundle, int64, error)

	// 组件
	ReplaceItems(ctx context.Context, bundleID int64, bundleType string, items []model.BundleItem) error
	GetItems(ctx context.Context, bundleID int64, bundleType string) ([]model.BundleItem, error)

	// 套组价格档位
	ReplacePriceTiers(ctx context.Context, bundleID int64, ownerType string, tiers []model.PriceTier) error
	GetPriceTiers(ctx context.Context, bundleID int64, ownerType string) ([]model.PriceTier, error)

	WithTx(tx *gorm.DB) BundleRepository
}

// ==================== 仓储实现 ====================

type bundleRepo struct {
	db *gorm.DB
}

// NewBundleRepository 创建套组仓储
func NewBundleRepository(db *gorm.DB) BundleRepository {
	return &bundleRepo{db: db}
}

func (r *bundleRepo) CreateProductBundle(ctx context.Context, bundle *model.ProductBundle) error {
	return r.db.WithContext(ctx).Create(bundle).Error
}

func (r *bundleRepo) GetProductBundle(ctx context.Context, id int64) (*model.ProductBundle, error) {
	var bundle model.ProductBundle
	if err := r.db.WithContext(ctx).First(&bundle, id).Error; err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *bundleRepo) GetProductBundleByCode(ctx context.Context, code string) (*model.ProductBundle, error) {
	var bundle model.ProductBundle
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&bundle).Error; err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *bundleRepo) UpdateProductBundle(ctx context.Context, bundle *model.ProductBundle) error {
	return r.db.WithContext(ctx).Save(bundle).Error
}

func (r *bundleRepo) DeleteProductBundle(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ProductBundle{}, id).Error
}

func (r *bundleRepo) ListProductBundles(ctx context.Context, filter CatalogFilter) ([]model.ProductBundle, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&model.ProductBundle{})
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

	var bundles []model.ProductBundle
	err := query.Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&bundles).Error
	return bundles, total, err
}

func (r *bundleRepo) CreateTherapyBundle(ctx context.Context, bundle *model.TherapyBundle) error {
	return r.db.WithContext(ctx).Create(bundle).Error
}

func (r *bundleRepo) GetTherapyBundle(ctx context.Context, id int64) (*model.TherapyBundle, error) {
	var bundle model.TherapyBundle
	if err := r.db.WithContext(ctx).First(&bundle, id).Error; err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *bundleRepo) GetTherapyBundleByCode(ctx context.Context, code string) (*model.TherapyBundle, error) {
	var bundle model.TherapyBundle
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&bundle).Error; err != nil {
		return nil, err
	}
	return &bundle, nil
}

func (r *bundleRepo) UpdateTherapyBundle(ctx context.Context, bundle *model.TherapyBundle) error {
	return r.db.WithContext(ctx).Save(bundle).Error
}

func (r *bundleRepo) DeleteTherapyBundle(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.TherapyBundle{}, id).Error
}

func (r *bundleRepo) ListTherapyBundles(ctx context.Context, filter CatalogFilter) ([]model.TherapyBundle, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&model.TherapyBundle{})
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

	var bundles []model.TherapyBundle
	err := query.Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&bundles).Error
	return bundles, total, err
}

func (r *bundleRepo) ReplaceItems(ctx context.Context, bundleID int64, bundleType string, items []model.BundleItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("bundle_id = ? AND bundle_type = ?", bundleID, bundleType).
		Delete(&model.BundleItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].BundleID = bundleID
		items[i].BundleType = bundleType
	}
	return db.Create(&items).Error
}

func (r *bundleRepo) GetItems(ctx context.Context, bundleID int64, bundleType string) ([]model.BundleItem, error) {
	var items []model.BundleItem
	err := r.db.WithContext(ctx).
		Where("bundle_id = ? AND bundle_type = ?", bundleID, bundleType).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *bundleRepo) ReplacePriceTiers(ctx context.Context, bundleID int64, ownerType string, tiers []model.PriceTier) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("owner_id = ? AND owner_type = ?", bundleID, ownerType).
		Delete(&model.PriceTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].OwnerID = bundleID
		tiers[i].OwnerType = ownerType
	}
	return db.Create(&tiers).Error
}

func (r *bundleRepo) GetPriceTiers(ctx context.Context, bundleID int64, ownerType string) ([]model.PriceTier, error) {
	var tiers []model.PriceTier
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND owner_type = ?", bundleID, ownerType).
		Find(&tiers).Error
	return tiers, err
}

func (r *bundleRepo) WithTx(tx *gorm.DB) BundleRepository {
	return &bundleRepo{db: tx}
}
