package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/pkg/utils"
)

// ==================== 套组 / 分类 ====================

// BundleService 套组与分类维护
type BundleService struct {
	db          *gorm.DB
	bundleRepo  repository.BundleRepository
	productRepo repository.ProductRepository
	therapyRepo repository.TherapyRepository
}

// NewBundleService 创建套组服务
func NewBundleService(db *gorm.DB, bundleRepo repository.BundleRepository,
	productRepo repository.ProductRepository, therapyRepo repository.TherapyRepository) *BundleService {
	return &BundleService{
		db:          db,
		bundleRepo:  bundleRepo,
		productRepo: productRepo,
		therapyRepo: therapyRepo,
	}
}

// ==================== 商品套组 ====================

// CreateProductBundle 创建商品套组，组件可混合商品/疗程
func (s *BundleService) CreateProductBundle(ctx context.Context, bundle *model.ProductBundle,
	items []model.BundleItem, tiers []model.PriceTier) error {
	if bundle.Code == "" || bundle.Name == "" {
		return errs.Validation("套组编码和名称不能为空")
	}
	if existing, err := s.bundleRepo.GetProductBundleByCode(ctx, bundle.Code); err == nil && existing != nil {
		return errs.Conflict("套组编码已存在: %s", bundle.Code)
	}
	if bundle.Status == "" {
		bundle.Status = model.StatusPublished
	}

	calculated, err := s.calcComponentTotal(ctx, items)
	if err != nil {
		return err
	}
	bundle.CalculatedPrice = calculated

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bundleRepo.WithTx(tx)
		if err := txRepo.CreateProductBundle(ctx, bundle); err != nil {
			return err
		}
		if err := txRepo.ReplaceItems(ctx, bundle.ID, repository.BundleTypeProduct, items); err != nil {
			return err
		}
		return txRepo.ReplacePriceTiers(ctx, bundle.ID, model.OwnerTypeProductBundle, tiers)
	})
}

// UpdateProductBundle 更新商品套组
func (s *BundleService) UpdateProductBundle(ctx context.Context, bundle *model.ProductBundle,
	items []model.BundleItem, tiers []model.PriceTier) error {
	if _, err := s.bundleRepo.GetProductBundle(ctx, bundle.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("套组不存在: %d", bundle.ID)
		}
		return err
	}

	if items != nil {
		calculated, err := s.calcComponentTotal(ctx, items)
		if err != nil {
			return err
		}
		bundle.CalculatedPrice = calculated
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bundleRepo.WithTx(tx)
		if err := txRepo.UpdateProductBundle(ctx, bundle); err != nil {
			return err
		}
		if items != nil {
			if err := txRepo.ReplaceItems(ctx, bundle.ID, repository.BundleTypeProduct, items); err != nil {
				return err
			}
		}
		if tiers != nil {
			return txRepo.ReplacePriceTiers(ctx, bundle.ID, model.OwnerTypeProductBundle, tiers)
		}
		return nil
	})
}

// DeleteProductBundle 删除商品套组及其组件与档位
func (s *BundleService) DeleteProductBundle(ctx context.Context, id int64) error {
	if _, err := s.bundleRepo.GetProductBundle(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("套组不存在: %d", id)
		}
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bundleRepo.WithTx(tx)
		if err := txRepo.ReplaceItems(ctx, id, repository.BundleTypeProduct, nil); err != nil {
			return err
		}
		if err := txRepo.ReplacePriceTiers(ctx, id, model.OwnerTypeProductBundle, nil); err != nil {
			return err
		}
		return txRepo.DeleteProductBundle(ctx, id)
	})
}

// BundleView 套组视图
type BundleView struct {
	ID              int64              `json:"id"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	SellingPrice    float64            `json:"selling_price"`
	CalculatedPrice float64            `json:"calculated_price"`
	Status          string             `json:"status"`
	Items           []model.BundleItem `json:"items"`
	PriceTierMap    map[string]float64 `json:"price_tier_map"`
}

// ListProductBundles 可见性过滤的商品套组列表
func (s *BundleService) ListProductBundles(ctx context.Context, claims *middleware.StoreClaims,
	filter repository.CatalogFilter) ([]BundleView, int64, error) {
	bundles, total, err := s.bundleRepo.ListProductBundles(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]BundleView, 0, len(bundles))
	for _, b := range bundles {
		if !RowVisible(claims, b.VisibleStoreIDs, b.VisiblePermissions) {
			continue
		}
		view, err := s.buildBundleView(ctx, b.ID, repository.BundleTypeProduct, model.OwnerTypeProductBundle,
			b.Code, b.Name, b.SellingPrice, b.CalculatedPrice, b.Status)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
	}
	return views, total, nil
}

// ==================== 疗程套组 ====================

// CreateTherapyBundle 创建疗程套组，组件只能是疗程
func (s *BundleService) CreateTherapyBundle(ctx context.Context, bundle *model.TherapyBundle,
	items []model.BundleItem, tiers []model.PriceTier) error {
	if bundle.Code == "" || bundle.Name == "" {
		return errs.Validation("套组编码和名称不能为空")
	}
	for _, item := range items {
		if item.ItemType != model.OwnerTypeTherapy {
			return errs.Validation("疗程套组的组件必须是疗程")
		}
	}
	if existing, err := s.bundleRepo.GetTherapyBundleByCode(ctx, bundle.Code); err == nil && existing != nil {
		return errs.Conflict("套组编码已存在: %s", bundle.Code)
	}
	if bundle.Status == "" {
		bundle.Status = model.StatusPublished
	}

	calculated, err := s.calcComponentTotal(ctx, items)
	if err != nil {
		return err
	}
	bundle.CalculatedPrice = calculated

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bundleRepo.WithTx(tx)
		if err := txRepo.CreateTherapyBundle(ctx, bundle); err != nil {
			return err
		}
		if err := txRepo.ReplaceItems(ctx, bundle.ID, repository.BundleTypeTherapy, items); err != nil {
			return err
		}
		return txRepo.ReplacePriceTiers(ctx, bundle.ID, model.OwnerTypeTherapyBundle, tiers)
	})
}

// UpdateTherapyBundle 更新疗程套组
func (s *BundleService) UpdateTherapyBundle(ctx context.Context, bundle *model.TherapyBundle,
	items []model.BundleItem, tiers []model.PriceTier) error {
	if _, err := s.bundleRepo.GetTherapyBundle(ctx, bundle.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("套组不存在: %d", bundle.ID)
		}
		return err
	}
	for _, item := range items {
		if item.ItemType != model.OwnerTypeTherapy {
			return errs.Validation("疗程套组的组件必须是疗程")
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bundleRepo.WithTx(tx)
		if err := txRepo.UpdateTherapyBundle(ctx, bundle); err != nil {
			return err
		}
		if items != nil {
			if err := txRepo.ReplaceItems(ctx, bundle.ID, repository.BundleTypeTherapy, items); err != nil {
				return err
			}
		}
		if tiers != nil {
			return txRepo.ReplacePriceTiers(ctx, bundle.ID, model.OwnerTypeTherapyBundle, tiers)
		}
		return nil
	})
}

// DeleteTherapyBundle 删除疗程套组
func (s *BundleService) DeleteTherapyBundle(ctx context.Context, id int64) error {
	if _, err := s.bundleRepo.GetTherapyBundle(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("套组不存在: %d", id)
		}
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.bundleRepo.WithTx(tx)
		if err := txRepo.ReplaceItems(ctx, id, repository.BundleTypeTherapy, nil); err != nil {
			return err
		}
		if err := txRepo.ReplacePriceTiers(ctx, id, model.OwnerTypeTherapyBundle, nil); err != nil {
			return err
		}
		return txRepo.DeleteTherapyBundle(ctx, id)
	})
}

// ListTherapyBundles 可见性过滤的疗程套组列表
func (s *BundleService) ListTherapyBundles(ctx context.Context, claims *middleware.StoreClaims,
	filter repository.CatalogFilter) ([]BundleView, int64, error) {
	bundles, total, err := s.bundleRepo.ListTherapyBundles(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	views := make([]BundleView, 0, len(bundles))
	for _, b := range bundles {
		if !RowVisible(claims, b.VisibleStoreIDs, b.VisiblePermissions) {
			continue
		}
		view, err := s.buildBundleView(ctx, b.ID, repository.BundleTypeTherapy, model.OwnerTypeTherapyBundle,
			b.Code, b.Name, b.SellingPrice, b.CalculatedPrice, b.Status)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
	}
	return views, total, nil
}

// ==================== 分类 ====================

// CreateCategory 创建分类
func (s *BundleService) CreateCategory(ctx context.Context, category *model.Category) error {
	if category.Name == "" {
		return errs.Validation("分类名称不能为空")
	}
	return s.db.WithContext(ctx).Create(category).Error
}

// UpdateCategory 更新分类
func (s *BundleService) UpdateCategory(ctx context.Context, category *model.Category) error {
	return s.db.WithContext(ctx).Save(category).Error
}

// DeleteCategory 删除分类及其关联
func (s *BundleService) DeleteCategory(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&model.CategoryLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Category{}, id).Error
	})
}

// ListCategories 分类列表
func (s *BundleService) ListCategories(ctx context.Context, targetType string) ([]model.Category, error) {
	query := s.db.WithContext(ctx).Model(&model.Category{})
	if targetType != "" {
		query = query.Where("target_type = ?", targetType)
	}
	var categories []model.Category
	err := query.Order("id ASC").Find(&categories).Error
	return categories, err
}

// LinkCategories 条目的分类关联整组替换
func (s *BundleService) LinkCategories(ctx context.Context, itemID int64, itemType string, categoryIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ? AND item_type = ?", itemID, itemType).
			Delete(&model.CategoryLink{}).Error; err != nil {
			return err
		}
		for _, categoryID := range categoryIDs {
			link := model.CategoryLink{CategoryID: categoryID, ItemID: itemID, ItemType: itemType}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ==================== 内部 ====================

func (s *BundleService) buildBundleView(ctx context.Context, id int64, bundleType, ownerType,
	code, name string, sellingPrice, calculatedPrice float64, status string) (*BundleView, error) {
	items, err := s.bundleRepo.GetItems(ctx, id, bundleType)
	if err != nil {
		return nil, err
	}
	tiers, err := s.bundleRepo.GetPriceTiers(ctx, id, ownerType)
	if err != nil {
		return nil, err
	}
	view := &BundleView{
		ID:              id,
		Code:            code,
		Name:            name,
		SellingPrice:    sellingPrice,
		CalculatedPrice: calculatedPrice,
		Status:          status,
		Items:           items,
		PriceTierMap:    map[string]float64{},
	}
	for _, t := range tiers {
		view.PriceTierMap[t.IdentityType] = t.Price
	}
	return view, nil
}

// calcComponentTotal 组件牌价合计（calculated_price 展示值）
func (s *BundleService) calcComponentTotal(ctx context.Context, items []model.BundleItem) (float64, error) {
	var total float64
	for _, item := range items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		switch item.ItemType {
		case model.OwnerTypeProduct:
			product, err := s.productRepo.GetByID(ctx, item.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return 0, errs.NotFound("套组组件商品不存在: %d", item.ItemID)
				}
				return 0, err
			}
			total += product.Price * float64(qty)
		case model.OwnerTypeTherapy:
			therapy, err := s.therapyRepo.GetByID(ctx, item.ItemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return 0, errs.NotFound("套组组件疗程不存在: %d", item.ItemID)
				}
				return 0, err
			}
			total += therapy.Price * float64(qty)
		default:
			return 0, errs.Validation("未知的组件类型: %s", item.ItemType)
		}
	}
	return utils.Round2(total), nil
}
