package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

// ==================== 目录服务: 商品 / 疗程 ====================

// CatalogService 商品与疗程的目录维护
// 商品的创建/更新联动主商品注册表；删除对销售做逻辑处理:
// 名字快照落到销售行、外键置空，销售历史不随商品消失
type CatalogService struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	therapyRepo repository.TherapyRepository
	sellRepo    repository.SellRepository
	masterSvc   *MasterService
	stockSvc    *StockService
}

// NewCatalogService 创建目录服务
func NewCatalogService(db *gorm.DB, productRepo repository.ProductRepository,
	therapyRepo repository.TherapyRepository, sellRepo repository.SellRepository,
	masterSvc *MasterService, stockSvc *StockService) *CatalogService {
	return &CatalogService{
		db:          db,
		productRepo: productRepo,
		therapyRepo: therapyRepo,
		sellRepo:    sellRepo,
		masterSvc:   masterSvc,
		stockSvc:    stockSvc,
	}
}

// ==================== 商品 ====================

// CreateProduct 创建商品并同步注册表
func (s *CatalogService) CreateProduct(ctx context.Context, product *model.Product, tiers []model.PriceTier) error {
	if product.Code == "" || product.Name == "" {
		return errs.Validation("商品编码和名称不能为空")
	}
	if existing, err := s.productRepo.GetByCode(ctx, product.Code); err == nil && existing != nil {
		return errs.Conflict("商品编码已存在: %s", product.Code)
	}
	if product.Status == "" {
		product.Status = model.StatusPublished
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txProductRepo := s.productRepo.WithTx(tx)
		if err := txProductRepo.Create(ctx, product); err != nil {
			return err
		}
		if err := txProductRepo.ReplacePriceTiers(ctx, product.ID, tiers); err != nil {
			return err
		}
		return s.masterSvc.WithTx(tx).SyncFromProduct(ctx, product)
	})
}

// UpdateProduct 更新商品并同步注册表，价格档位整组替换
func (s *CatalogService) UpdateProduct(ctx context.Context, product *model.Product, tiers []model.PriceTier) error {
	existing, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("商品不存在: %d", product.ID)
		}
		return err
	}
	if product.Code != existing.Code {
		if dup, err := s.productRepo.GetByCode(ctx, product.Code); err == nil && dup != nil && dup.ID != product.ID {
			return errs.Conflict("商品编码已存在: %s", product.Code)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txProductRepo := s.productRepo.WithTx(tx)
		if err := txProductRepo.Update(ctx, product); err != nil {
			return err
		}
		if tiers != nil {
			if err := txProductRepo.ReplacePriceTiers(ctx, product.ID, tiers); err != nil {
				return err
			}
		}
		return s.masterSvc.WithTx(tx).SyncFromProduct(ctx, product)
	})
}

// DeleteProduct 删除商品
// 1. 名字快照写进历史销售行，外键置空
// 2. 移除分类关联和变体行
// 3. 删除商品本体
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("商品不存在: %d", id)
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sellRepo.WithTx(tx).DetachProduct(ctx, id, product.Name); err != nil {
			return err
		}
		if err := tx.Where("item_id = ? AND item_type = ?", id, model.OwnerTypeProduct).
			Delete(&model.CategoryLink{}).Error; err != nil {
			return err
		}
		if err := s.masterSvc.WithTx(tx).RemoveVariant(ctx, id); err != nil {
			return err
		}
		txProductRepo := s.productRepo.WithTx(tx)
		// 档位价随商品一起清掉，不留孤儿行
		if err := txProductRepo.ReplacePriceTiers(ctx, id, nil); err != nil {
			return err
		}
		return txProductRepo.Delete(ctx, id)
	})
}

// ProductView 列表视图行
type ProductView struct {
	model.Product
	PriceTierMap      map[string]float64 `json:"price_tier_map"`
	InventoryQuantity int                `json:"inventory_quantity"`
	Categories        []model.Category   `json:"categories"`
}

// ListProducts 按调用者可见性过滤的商品列表，带档位映射和在库数
func (s *CatalogService) ListProducts(ctx context.Context, claims *middleware.StoreClaims,
	filter repository.CatalogFilter) ([]ProductView, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		if !RowVisible(claims, p.VisibleStoreIDs, p.VisiblePermissions) {
			continue
		}
		view := ProductView{Product: p, PriceTierMap: map[string]float64{}}

		tiers, err := s.productRepo.GetPriceTiers(ctx, p.ID)
		if err != nil {
			return nil, 0, err
		}
		for _, t := range tiers {
			view.PriceTierMap[t.IdentityType] = t.Price
		}

		storeID := int64(0)
		if claims != nil {
			storeID = claims.StoreID
		}
		if qty, err := s.stockSvc.OnHandByVariant(ctx, p.ID, storeID); err == nil {
			view.InventoryQuantity = qty
		}

		if cats, err := s.categoriesOf(ctx, p.ID, model.OwnerTypeProduct); err == nil {
			view.Categories = cats
		}
		views = append(views, view)
	}
	return views, total, nil
}

// GetProduct 商品详情
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductView, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("商品不存在: %d", id)
		}
		return nil, err
	}
	view := &ProductView{Product: *product, PriceTierMap: map[string]float64{}}
	tiers, err := s.productRepo.GetPriceTiers(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range tiers {
		view.PriceTierMap[t.IdentityType] = t.Price
	}
	if cats, err := s.categoriesOf(ctx, id, model.OwnerTypeProduct); err == nil {
		view.Categories = cats
	}
	return view, nil
}

// ==================== 疗程 ====================

// CreateTherapy 创建疗程
func (s *CatalogService) CreateTherapy(ctx context.Context, therapy *model.Therapy, tiers []model.PriceTier) error {
	if therapy.Code == "" || therapy.Name == "" {
		return errs.Validation("疗程编码和名称不能为空")
	}
	if existing, err := s.therapyRepo.GetByCode(ctx, therapy.Code); err == nil && existing != nil {
		return errs.Conflict("疗程编码已存在: %s", therapy.Code)
	}
	if therapy.Status == "" {
		therapy.Status = model.StatusPublished
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txTherapyRepo := s.therapyRepo.WithTx(tx)
		if err := txTherapyRepo.Create(ctx, therapy); err != nil {
			return err
		}
		return txTherapyRepo.ReplacePriceTiers(ctx, therapy.ID, tiers)
	})
}

// UpdateTherapy 更新疗程
func (s *CatalogService) UpdateTherapy(ctx context.Context, therapy *model.Therapy, tiers []model.PriceTier) error {
	if _, err := s.therapyRepo.GetByID(ctx, therapy.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("疗程不存在: %d", therapy.ID)
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txTherapyRepo := s.therapyRepo.WithTx(tx)
		if err := txTherapyRepo.Update(ctx, therapy); err != nil {
			return err
		}
		if tiers != nil {
			return txTherapyRepo.ReplacePriceTiers(ctx, therapy.ID, tiers)
		}
		return nil
	})
}

// DeleteTherapy 删除疗程，销售历史处理与商品一致
func (s *CatalogService) DeleteTherapy(ctx context.Context, id int64) error {
	therapy, err := s.therapyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("疗程不存在: %d", id)
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sellRepo.WithTx(tx).DetachTherapy(ctx, id, therapy.Name); err != nil {
			return err
		}
		if err := tx.Where("item_id = ? AND item_type = ?", id, model.OwnerTypeTherapy).
			Delete(&model.CategoryLink{}).Error; err != nil {
			return err
		}
		txTherapyRepo := s.therapyRepo.WithTx(tx)
		if err := txTherapyRepo.ReplacePriceTiers(ctx, id, nil); err != nil {
			return err
		}
		return txTherapyRepo.Delete(ctx, id)
	})
}

// TherapyView 疗程列表视图行
type TherapyView struct {
	model.Therapy
	PriceTierMap map[string]float64 `json:"price_tier_map"`
	Categories   []model.Category   `json:"categories"`
}

// ListTherapies 可见性过滤的疗程列表
func (s *CatalogService) ListTherapies(ctx context.Context, claims *middleware.StoreClaims,
	filter repository.CatalogFilter) ([]TherapyView, int64, error) {
	therapies, total, err := s.therapyRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]TherapyView, 0, len(therapies))
	for _, t := range therapies {
		if !RowVisible(claims, t.VisibleStoreIDs, t.VisiblePermissions) {
			continue
		}
		view := TherapyView{Therapy: t, PriceTierMap: map[string]float64{}}
		tiers, err := s.therapyRepo.GetPriceTiers(ctx, t.ID)
		if err != nil {
			return nil, 0, err
		}
		for _, tier := range tiers {
			view.PriceTierMap[tier.IdentityType] = tier.Price
		}
		if cats, err := s.categoriesOf(ctx, t.ID, model.OwnerTypeTherapy); err == nil {
			view.Categories = cats
		}
		views = append(views, view)
	}
	return views, total, nil
}

// ==================== 上下架 ====================

// SetPublishStatus 统一的上下架开关
// itemType: PRODUCT / THERAPY / PRODUCT_BUNDLE / THERAPY_BUNDLE
func (s *CatalogService) SetPublishStatus(ctx context.Context, itemType string, id int64, publish bool, reason string) error {
	status := model.StatusUnpublished
	if publish {
		status = model.StatusPublished
		reason = ""
	}
	fields := map[string]interface{}{
		"status":             status,
		"unpublished_reason": reason,
	}

	var err error
	switch itemType {
	case model.OwnerTypeProduct:
		// 主商品状态跟随变体，和商品状态同事务落库
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txProductRepo := s.productRepo.WithTx(tx)
			if err := txProductRepo.UpdateFields(ctx, id, fields); err != nil {
				return err
			}
			product, err := txProductRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			return s.masterSvc.WithTx(tx).SyncFromProduct(ctx, product)
		})
	case model.OwnerTypeTherapy:
		err = s.therapyRepo.UpdateFields(ctx, id, fields)
	case model.OwnerTypeProductBundle:
		err = s.db.WithContext(ctx).Model(&model.ProductBundle{}).Where("id = ?", id).Updates(fields).Error
	case model.OwnerTypeTherapyBundle:
		err = s.db.WithContext(ctx).Model(&model.TherapyBundle{}).Where("id = ?", id).Updates(fields).Error
	default:
		return errs.Validation("未知的条目类型: %s", itemType)
	}
	return err
}

// ==================== 分类关联 ====================

func (s *CatalogService) categoriesOf(ctx context.Context, itemID int64, itemType string) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).
		Joins("JOIN category_links cl ON cl.category_id = categories.id").
		Where("cl.item_id = ? AND cl.item_type = ?", itemID, itemType).
		Find(&categories).Error
	return categories, err
}
