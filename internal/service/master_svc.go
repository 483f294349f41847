package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/pkg/logger"
)

// ==================== 主商品/变体注册表 ====================

// MasterService 主商品注册表
// 商品的创建/更新通过 SyncFromProduct 同步到这里:
// 推导主编码、upsert 主商品和变体、联动两档成本价
type MasterService struct {
	masterRepo repository.MasterRepository
	// 成本价表物理名，启动时在两个历史写法里探测
	priceTable string
}

// NewMasterService 创建注册表服务，启动时探测成本价表名
func NewMasterService(db *gorm.DB, masterRepo repository.MasterRepository) *MasterService {
	table := model.StoreTypePriceTable
	migrator := db.Migrator()
	if !migrator.HasTable(model.StoreTypePriceTable) && migrator.HasTable(model.StoreTypePriceTableLegacy) {
		table = model.StoreTypePriceTableLegacy
		logger.L.Info("成本价表使用历史表名", zap.String("table", table))
	}
	return &MasterService{masterRepo: masterRepo, priceTable: table}
}

// PriceTable 探测到的成本价表名
func (s *MasterService) PriceTable() string { return s.priceTable }

// WithTx 绑定到调用方事务的副本，表名探测结果沿用
// 注册表同步必须和商品写入同事务提交，调用方在事务回调里用这个副本
func (s *MasterService) WithTx(tx *gorm.DB) *MasterService {
	return &MasterService{masterRepo: s.masterRepo.WithTx(tx), priceTable: s.priceTable}
}

// SyncFromProduct 商品创建/更新后同步注册表
// 1. 推导主编码并 upsert 主商品（保留已有名字，除非为空或等于编码）
// 2. upsert 变体行，variant_id = product_id
// 3. 确保库存单元存在
// 4. 两个门店类型的成本价联动采购价（人工改过的不动）
func (s *MasterService) SyncFromProduct(ctx context.Context, product *model.Product) error {
	masterCode := model.DeriveMasterCode(product.Code)
	if masterCode == "" {
		return errs.Validation("商品编码为空，无法推导主编码")
	}

	masterStatus := model.StatusInactive
	if product.Status == model.StatusPublished {
		masterStatus = model.StatusActive
	}

	master, err := s.masterRepo.GetMasterByCode(ctx, masterCode)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		master = &model.MasterProduct{
			Code:   masterCode,
			Name:   product.Name,
			Status: masterStatus,
		}
		if err := s.masterRepo.SaveMaster(ctx, master); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		// 已有名字保留，空名或名字等于编码时才覆盖；状态始终跟随变体
		if master.Name == "" || master.Name == master.Code {
			master.Name = product.Name
		}
		master.Status = masterStatus
		if err := s.masterRepo.SaveMaster(ctx, master); err != nil {
			return err
		}
	}

	variantStatus := model.StatusInactive
	if product.Status == model.StatusPublished {
		variantStatus = model.StatusActive
	}
	variant := &model.ProductVariant{
		VariantID:   product.ID,
		MasterID:    master.ID,
		VariantCode: product.Code,
		DisplayName: product.Name,
		SalePrice:   product.Price,
		Status:      variantStatus,
	}
	if err := s.masterRepo.UpsertVariant(ctx, variant); err != nil {
		return err
	}

	if _, err := s.ensureInventoryItem(ctx, master); err != nil {
		return err
	}

	return s.syncCostPrices(ctx, master.ID, product.PurchasePrice)
}

// ensureInventoryItem 库存单元不存在时补建
func (s *MasterService) ensureInventoryItem(ctx context.Context, master *model.MasterProduct) (*model.InventoryItem, error) {
	item, err := s.masterRepo.GetInventoryItemByMaster(ctx, master.ID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	item = &model.InventoryItem{
		MasterID: master.ID,
		Code:     master.Code,
		Name:     master.Name,
	}
	if err := s.masterRepo.CreateInventoryItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// syncCostPrices 采购价写入 DIRECT/FRANCHISE 两档成本价，人工定制过的档位跳过
func (s *MasterService) syncCostPrices(ctx context.Context, masterID int64, purchasePrice float64) error {
	existing, err := s.masterRepo.GetStoreTypePrices(ctx, s.priceTable, masterID)
	if err != nil {
		return err
	}
	customized := make(map[string]bool, 2)
	for _, p := range existing {
		if p.Customized {
			customized[p.StoreType] = true
		}
	}

	for _, storeType := range []string{model.StoreTypeDirect, model.StoreTypeFranchise} {
		if customized[storeType] {
			continue
		}
		price := &model.StoreTypePrice{
			MasterID:  masterID,
			StoreType: storeType,
			CostPrice: purchasePrice,
		}
		if err := s.masterRepo.UpsertStoreTypePrice(ctx, s.priceTable, price); err != nil {
			return err
		}
	}
	return nil
}

// SetCostPrice 人工设置成本价，之后不再随采购价联动
func (s *MasterService) SetCostPrice(ctx context.Context, masterID int64, storeType string, costPrice float64) error {
	if storeType != model.StoreTypeDirect && storeType != model.StoreTypeFranchise {
		return errs.Validation("未知的门店类型: %s", storeType)
	}
	if costPrice < 0 {
		return errs.Validation("成本价不能为负数")
	}
	if _, err := s.masterRepo.GetMasterByID(ctx, masterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("主商品不存在: %d", masterID)
		}
		return err
	}
	return s.masterRepo.UpsertStoreTypePrice(ctx, s.priceTable, &model.StoreTypePrice{
		MasterID:   masterID,
		StoreType:  storeType,
		CostPrice:  costPrice,
		Customized: true,
	})
}

// GetCostPrices 查主商品的两档成本价
func (s *MasterService) GetCostPrices(ctx context.Context, masterID int64) ([]model.StoreTypePrice, error) {
	return s.masterRepo.GetStoreTypePrices(ctx, s.priceTable, masterID)
}

// RemoveVariant 商品删除时移除变体行
func (s *MasterService) RemoveVariant(ctx context.Context, variantID int64) error {
	return s.masterRepo.DeleteVariant(ctx, variantID)
}

// ResolveInventoryItemByVariant 变体 → 库存单元
func (s *MasterService) ResolveInventoryItemByVariant(ctx context.Context, variantID int64) (*model.InventoryItem, *model.ProductVariant, error) {
	variant, err := s.masterRepo.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.NotFound("变体不存在: %d", variantID)
		}
		return nil, nil, err
	}
	item, err := s.masterRepo.GetInventoryItemByMaster(ctx, variant.MasterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.NotFound("变体 %d 没有对应的库存单元", variantID)
		}
		return nil, nil, err
	}
	return item, variant, nil
}

// CollectPrefixFamily 按 5 位前缀收集同族库存单元
// 要求族内名字归一化后完全一致（忽略大小写和空白），否则拒绝整族操作
func (s *MasterService) CollectPrefixFamily(ctx context.Context, code string) ([]model.InventoryItem, error) {
	prefix := model.DeriveMasterCode(code)
	items, err := s.masterRepo.ListInventoryItemsByCodePrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errs.NotFound("前缀 %s 没有库存单元", prefix)
	}

	base := normalizeName(items[0].Name)
	for _, item := range items[1:] {
		if normalizeName(item.Name) != base {
			return nil, errs.PrefixConflict(
				"前缀 %s 下名称不一致（%q vs %q），无法整族入库，请对单个条目操作",
				prefix, items[0].Name, item.Name)
		}
	}
	return items, nil
}

// normalizeName 名称归一化: 去空白、转小写
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}
