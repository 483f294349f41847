package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// MasterRepository 主商品/变体注册表仓储
type MasterRepository interface {
	// 主商品
	GetMasterByCode(ctx context.Context, code string) (*model.MasterProduct, error)
	GetMasterByID(ctx context.Context, id int64) (*model.MasterProduct, error)
	SaveMaster(ctx context.Context, master *model.MasterProduct) error
	ListMasters(ctx context.Context, keyword string, page, pageSize int) ([]model.MasterProduct, int64, error)

	// 变体
	UpsertVariant(ctx context.Context, variant *model.ProductVariant) error
	GetVariant(ctx context.Context, variantID int64) (*model.ProductVariant, error)
	ListVariantsByMaster(ctx context.Context, masterID int64) ([]model.ProductVariant, error)
	DeleteVariant(ctx context.Context, variantID int64) error

	// 库存单元
	GetInventoryItemByMaster(ctx context.Context, masterID int64) (*model.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id int64) (*model.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, item *model.InventoryItem) error
	ListInventoryItemsByCodePrefix(ctx context.Context, prefix string) ([]model.InventoryItem, error)

	// 门店类型成本价，tableName 由启动时探测决定
	UpsertStoreTypePrice(ctx context.Context, tableName string, price *model.StoreTypePrice) error
	GetStoreTypePrices(ctx context.Context, tableName string, masterID int64) ([]model.StoreTypePrice, error)

	WithTx(tx *gorm.DB) MasterRepository
}

// ==================== 仓储实现 ====================

type masterRepo struct {
	db *gorm.DB
}

// NewMasterRepository 创建主商品仓储
func NewMasterRepository(db *gorm.DB) MasterRepository {
	return &masterRepo{db: db}
}

func (r *masterRepo) GetMasterByCode(ctx context.Context, code string) (*model.MasterProduct, error) {
	var master model.MasterProduct
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&master).Error; err != nil {
		return nil, err
	}
	return &master, nil
}

func (r *masterRepo) GetMasterByID(ctx context.Context, id int64) (*model.MasterProduct, error) {
	var master model.MasterProduct
	if err := r.db.WithContext(ctx).First(&master, id).Error; err != nil {
		return nil, err
	}
	return &master, nil
}

func (r *masterRepo) SaveMaster(ctx context.Context, master *model.MasterProduct) error {
	return r.db.WithContext(ctx).Save(master).Error
}

func (r *masterRepo) ListMasters(ctx context.Context, keyword string, page, pageSize int) ([]model.MasterProduct, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&model.MasterProduct{})
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var masters []model.MasterProduct
	err := query.Order("code ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&masters).Error
	return masters, total, err
}

func (r *masterRepo) UpsertVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "variant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"master_id", "variant_code", "display_name", "sale_price", "status", "updated_at",
		}),
	}).Create(variant).Error
}

func (r *masterRepo) GetVariant(ctx context.Context, variantID int64) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	if err := r.db.WithContext(ctx).Where("variant_id = ?", variantID).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *masterRepo) ListVariantsByMaster(ctx context.Context, masterID int64) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("master_id = ?", masterID).
		Order("variant_code ASC").
		Find(&variants).Error
	return variants, err
}

func (r *masterRepo) DeleteVariant(ctx context.Context, variantID int64) error {
	return r.db.WithContext(ctx).Where("variant_id = ?", variantID).Delete(&model.ProductVariant{}).Error
}

func (r *masterRepo) GetInventoryItemByMaster(ctx context.Context, masterID int64) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).Where("master_id = ?", masterID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *masterRepo) GetInventoryItem(ctx context.Context, id int64) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *masterRepo) CreateInventoryItem(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *masterRepo) ListInventoryItemsByCodePrefix(ctx context.Context, prefix string) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("code LIKE ?", prefix+"%").
		Order("code ASC").
		Find(&items).Error
	return items, err
}

func (r *masterRepo) UpsertStoreTypePrice(ctx context.Context, tableName string, price *model.StoreTypePrice) error {
	return r.db.WithContext(ctx).Table(tableName).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "master_id"}, {Name: "store_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cost_price", "customized", "updated_at",
		}),
	}).Create(price).Error
}

func (r *masterRepo) GetStoreTypePrices(ctx context.Context, tableName string, masterID int64) ([]model.StoreTypePrice, error) {
	var prices []model.StoreTypePrice
	err := r.db.WithContext(ctx).Table(tableName).
		Where("master_id = ?", masterID).
		Find(&prices).Error
	return prices, err
}

func (r *masterRepo) WithTx(tx *gorm.DB) MasterRepository {
	return &masterRepo{db: tx}
}
