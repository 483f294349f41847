package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/pkg/utils"
)

// ==================== 销售过账 ====================

// SellService 销售过账
// 单品和套组统一走这里。套组展开成组件行，整组金额按组件牌价
// 占比分摊（末项找差），组件行共享一个 order_reference。
// 商品行联动库存出库；疗程行只计次不动库存。
// 任何一步失败整个事务回滚，不存在部分过账。
type SellService struct {
	db          *gorm.DB
	sellRepo    repository.SellRepository
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	therapyRepo repository.TherapyRepository
	bundleRepo  repository.BundleRepository
	stockSvc    *StockService
	resolver    *PriceResolver
}

// NewSellService 创建销售过账服务
func NewSellService(db *gorm.DB, sellRepo repository.SellRepository,
	stockRepo repository.StockRepository, productRepo repository.ProductRepository,
	therapyRepo repository.TherapyRepository, bundleRepo repository.BundleRepository,
	stockSvc *StockService, resolver *PriceResolver) *SellService {
	return &SellService{
		db:          db,
		sellRepo:    sellRepo,
		stockRepo:   stockRepo,
		productRepo: productRepo,
		therapyRepo: therapyRepo,
		bundleRepo:  bundleRepo,
		stockSvc:    stockSvc,
		resolver:    resolver,
	}
}

// ==================== 过账参数 ====================

// ProductSellInput 单品销售
type ProductSellInput struct {
	ProductID      int64
	MemberID       int64
	StaffID        int64
	StoreID        int64
	UnitPrice      float64
	Quantity       int
	Discount       float64
	FinalPrice     float64
	OrderReference string
	Note           string
	SellDate       time.Time
}

// BundleSellInput 套组销售
type BundleSellInput struct {
	BundleID       int64
	BundleQty      int
	MemberID       int64
	StaffID        int64
	StoreID        int64
	IdentityType   string
	UnitPrice      float64 // 提供时视为整组总价
	Discount       float64
	FinalPrice     float64 // 客付整组总价，优先级最高
	OrderReference string
	Note           string
	SellDate       time.Time
}

// ==================== 单品商品销售 ====================

// PostProductSell 过账单品商品销售: 快照名字、落行、出库
func (s *SellService) PostProductSell(ctx context.Context, in ProductSellInput) (*model.ProductSell, error) {
	if in.Quantity <= 0 {
		return nil, errs.Validation("销售数量必须为正数")
	}
	product, err := s.mustPublishedProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}

	if in.SellDate.IsZero() {
		in.SellDate = time.Now()
	}
	if in.UnitPrice <= 0 {
		in.UnitPrice = product.Price
	}
	if in.FinalPrice <= 0 {
		in.FinalPrice = utils.Round2(in.UnitPrice*float64(in.Quantity) - in.Discount)
	}

	productID := product.ID
	sell := &model.ProductSell{
		ProductID:      &productID,
		ProductName:    product.Name,
		StoreID:        in.StoreID,
		UnitPrice:      in.UnitPrice,
		Quantity:       in.Quantity,
		Discount:       in.Discount,
		FinalPrice:     in.FinalPrice,
		StockOut:       -in.Quantity,
		OrderReference: in.OrderReference,
		Note:           in.Note,
		SellDate:       in.SellDate,
	}
	if in.MemberID > 0 {
		sell.MemberID = &in.MemberID
	}
	if in.StaffID > 0 {
		sell.StaffID = &in.StaffID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.sellRepo.WithTx(tx).CreateProductSell(ctx, sell); err != nil {
			return err
		}
		return s.stockSvc.ShipTx(ctx, tx, product.ID, in.Quantity,
			in.StoreID, in.StaffID, sell.OrderReference,
			fmt.Sprintf("销售出库 #%d", sell.ID))
	})
	if err != nil {
		return nil, err
	}
	return sell, nil
}

// ==================== 套组商品销售 ====================

// PostProductBundleSell 过账商品套组销售
// 组件展开 → 金额分摊 → 每个商品组件落行并出库，疗程组件跳过库存
func (s *SellService) PostProductBundleSell(ctx context.Context, in BundleSellInput) ([]model.ProductSell, error) {
	if in.BundleQty <= 0 {
		in.BundleQty = 1
	}
	bundle, err := s.bundleRepo.GetProductBundle(ctx, in.BundleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("套组不存在: %d", in.BundleID)
		}
		return nil, err
	}
	if bundle.Status != model.StatusPublished {
		return nil, errs.Unpublished("套组已下架: %s", bundle.Name)
	}

	items, err := s.bundleRepo.GetItems(ctx, in.BundleID, repository.BundleTypeProduct)
	if err != nil {
		return nil, err
	}
	// 只有商品组件参与落行与出库
	var components []model.BundleItem
	for _, item := range items {
		if item.ItemType == model.OwnerTypeProduct {
			components = append(components, item)
		}
	}

	if in.SellDate.IsZero() {
		in.SellDate = time.Now()
	}
	orderRef := in.OrderReference
	if orderRef == "" {
		orderRef = fmt.Sprintf("bundle-%d-%s", in.BundleID, uuid.NewString())
	}

	// 组件为空: 写占位行，不动库存
	if len(components) == 0 {
		placeholder := &model.ProductSell{
			ProductName:    bundle.Name,
			StoreID:        in.StoreID,
			UnitPrice:      in.FinalPrice,
			Quantity:       in.BundleQty,
			FinalPrice:     in.FinalPrice,
			OrderReference: orderRef,
			Note:           appendBundleTag(in.Note, in.BundleID),
			SellDate:       in.SellDate,
		}
		if in.MemberID > 0 {
			placeholder.MemberID = &in.MemberID
		}
		if in.StaffID > 0 {
			placeholder.StaffID = &in.StaffID
		}
		if err := s.sellRepo.CreateProductSell(ctx, placeholder); err != nil {
			return nil, err
		}
		return []model.ProductSell{*placeholder}, nil
	}

	// 逐组件解析现价并计算牌价合计
	type pricedComponent struct {
		product   *model.Product
		unitPrice float64
		qty       int
		itemTotal float64
	}
	priced := make([]pricedComponent, 0, len(components))
	var baseTotal float64
	for _, comp := range components {
		product, err := s.mustPublishedProduct(ctx, comp.ItemID)
		if err != nil {
			return nil, err
		}
		qty := comp.Quantity
		if qty <= 0 {
			qty = 1
		}
		unitPrice, err := s.resolveProductUnitPrice(ctx, product, in.IdentityType, in.StoreID, qty*in.BundleQty)
		if err != nil {
			return nil, err
		}
		itemTotal := utils.Round2(unitPrice * float64(qty) * float64(in.BundleQty))
		priced = append(priced, pricedComponent{product: product, unitPrice: unitPrice, qty: qty, itemTotal: itemTotal})
		baseTotal += itemTotal
	}
	baseTotal = utils.Round2(baseTotal)
	if baseTotal <= 0 {
		return nil, errs.Validation("套组组件合计金额为 0，无法分摊")
	}

	targetTotal, discountTotal := bundleTotals(baseTotal, in.FinalPrice, in.UnitPrice, in.Discount)

	meta := BundleMeta{ID: bundle.ID, Qty: in.BundleQty, Total: targetTotal, Name: bundle.Name}
	metaJSON, _ := json.Marshal(meta)

	var sells []model.ProductSell
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txSellRepo := s.sellRepo.WithTx(tx)

		var allocatedPrice, allocatedDiscount float64
		for i, comp := range priced {
			// 按牌价占比分摊，末项找差保证合计严丝合缝
			var linePrice, lineDiscount float64
			if i == len(priced)-1 {
				linePrice = utils.Round2(targetTotal - allocatedPrice)
				lineDiscount = utils.Round2(discountTotal - allocatedDiscount)
			} else {
				share := comp.itemTotal / baseTotal
				linePrice = utils.Round2(targetTotal * share)
				lineDiscount = utils.Round2(discountTotal * share)
				allocatedPrice += linePrice
				allocatedDiscount += lineDiscount
			}

			totalQty := comp.qty * in.BundleQty
			productID := comp.product.ID
			sell := model.ProductSell{
				ProductID:      &productID,
				ProductName:    comp.product.Name,
				StoreID:        in.StoreID,
				UnitPrice:      comp.unitPrice,
				Quantity:       totalQty,
				Discount:       lineDiscount,
				FinalPrice:     linePrice,
				StockOut:       -totalQty,
				OrderReference: orderRef,
				Note:           ComposeBundleNote(in.Note, meta),
				SellDate:       in.SellDate,
				BundleMeta:     metaJSON,
			}
			if in.MemberID > 0 {
				sell.MemberID = &in.MemberID
			}
			if in.StaffID > 0 {
				sell.StaffID = &in.StaffID
			}
			if err := txSellRepo.CreateProductSell(ctx, &sell); err != nil {
				return err
			}
			if err := s.stockSvc.ShipTx(ctx, tx, comp.product.ID, totalQty,
				in.StoreID, in.StaffID, orderRef,
				fmt.Sprintf("套组销售出库 %s", BundleTag(bundle.ID))); err != nil {
				return err
			}
			sells = append(sells, sell)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sells, nil
}

// bundleTotals 确定整组客付总额与折扣总额
// final_price > 0 优先；否则 unit_price > 0 视为整组总价；
// 都没有时用调用方折扣额
func bundleTotals(baseTotal, finalPrice, unitPrice, providedDiscount float64) (target, discount float64) {
	switch {
	case finalPrice > 0:
		target = finalPrice
		discount = utils.Round2(baseTotal - target)
	case unitPrice > 0:
		target = unitPrice
		discount = utils.Round2(baseTotal - target)
	default:
		// 历史口径: 单独给折扣额时客付总额仍按牌价合计落库
		discount = providedDiscount
		target = math.Max(baseTotal-discount, baseTotal)
	}
	return utils.Round2(target), utils.Round2(discount)
}

// ==================== 单品疗程销售 ====================

// TherapySellInput 疗程销售
type TherapySellInput struct {
	TherapyID      int64
	MemberID       int64
	StaffID        int64
	StoreID        int64
	UnitPrice      float64
	Amount         int
	Discount       float64
	FinalPrice     float64
	OrderReference string
	Note           string
	SellDate       time.Time
}

// PostTherapySell 过账疗程销售，疗程按次计，不动库存
func (s *SellService) PostTherapySell(ctx context.Context, in TherapySellInput) (*model.TherapySell, error) {
	if in.Amount <= 0 {
		return nil, errs.Validation("购买次数必须为正数")
	}
	therapy, err := s.mustPublishedTherapy(ctx, in.TherapyID)
	if err != nil {
		return nil, err
	}

	if in.SellDate.IsZero() {
		in.SellDate = time.Now()
	}
	if in.UnitPrice <= 0 {
		in.UnitPrice = therapy.Price
	}
	if in.FinalPrice <= 0 {
		in.FinalPrice = utils.Round2(in.UnitPrice*float64(in.Amount) - in.Discount)
	}

	therapyID := therapy.ID
	sell := &model.TherapySell{
		TherapyID:      &therapyID,
		TherapyName:    therapy.Name,
		StoreID:        in.StoreID,
		UnitPrice:      in.UnitPrice,
		Amount:         in.Amount,
		Discount:       in.Discount,
		FinalPrice:     in.FinalPrice,
		OrderReference: in.OrderReference,
		Note:           in.Note,
		SellDate:       in.SellDate,
	}
	if in.MemberID > 0 {
		sell.MemberID = &in.MemberID
	}
	if in.StaffID > 0 {
		sell.StaffID = &in.StaffID
	}

	if err := s.sellRepo.CreateTherapySell(ctx, sell); err != nil {
		return nil, err
	}
	return sell, nil
}

// ==================== 套组疗程销售 ====================

// PostTherapyBundleSell 过账疗程套组，分摊逻辑与商品套组一致，不动库存
func (s *SellService) PostTherapyBundleSell(ctx context.Context, in BundleSellInput) ([]model.TherapySell, error) {
	if in.BundleQty <= 0 {
		in.BundleQty = 1
	}
	bundle, err := s.bundleRepo.GetTherapyBundle(ctx, in.BundleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("套组不存在: %d", in.BundleID)
		}
		return nil, err
	}
	if bundle.Status != model.StatusPublished {
		return nil, errs.Unpublished("套组已下架: %s", bundle.Name)
	}

	items, err := s.bundleRepo.GetItems(ctx, in.BundleID, repository.BundleTypeTherapy)
	if err != nil {
		return nil, err
	}

	if in.SellDate.IsZero() {
		in.SellDate = time.Now()
	}
	orderRef := in.OrderReference
	if orderRef == "" {
		orderRef = fmt.Sprintf("bundle-%d-%s", in.BundleID, uuid.NewString())
	}

	if len(items) == 0 {
		placeholder := &model.TherapySell{
			TherapyName:    bundle.Name,
			StoreID:        in.StoreID,
			UnitPrice:      in.FinalPrice,
			Amount:         in.BundleQty,
			FinalPrice:     in.FinalPrice,
			OrderReference: orderRef,
			Note:           appendBundleTag(in.Note, in.BundleID),
			SellDate:       in.SellDate,
		}
		if in.MemberID > 0 {
			placeholder.MemberID = &in.MemberID
		}
		if in.StaffID > 0 {
			placeholder.StaffID = &in.StaffID
		}
		if err := s.sellRepo.CreateTherapySell(ctx, placeholder); err != nil {
			return nil, err
		}
		return []model.TherapySell{*placeholder}, nil
	}

	type pricedComponent struct {
		therapy   *model.Therapy
		unitPrice float64
		qty       int
		itemTotal float64
	}
	priced := make([]pricedComponent, 0, len(items))
	var baseTotal float64
	for _, comp := range items {
		therapy, err := s.mustPublishedTherapy(ctx, comp.ItemID)
		if err != nil {
			return nil, err
		}
		qty := comp.Quantity
		if qty <= 0 {
			qty = 1
		}
		unitPrice, err := s.resolveTherapyUnitPrice(ctx, therapy, in.IdentityType, in.StoreID, qty*in.BundleQty)
		if err != nil {
			return nil, err
		}
		itemTotal := utils.Round2(unitPrice * float64(qty) * float64(in.BundleQty))
		priced = append(priced, pricedComponent{therapy: therapy, unitPrice: unitPrice, qty: qty, itemTotal: itemTotal})
		baseTotal += itemTotal
	}
	baseTotal = utils.Round2(baseTotal)
	if baseTotal <= 0 {
		return nil, errs.Validation("套组组件合计金额为 0，无法分摊")
	}

	targetTotal, discountTotal := bundleTotals(baseTotal, in.FinalPrice, in.UnitPrice, in.Discount)
	meta := BundleMeta{ID: bundle.ID, Qty: in.BundleQty, Total: targetTotal, Name: bundle.Name}
	metaJSON, _ := json.Marshal(meta)

	var sells []model.TherapySell
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txSellRepo := s.sellRepo.WithTx(tx)

		var allocatedPrice, allocatedDiscount float64
		for i, comp := range priced {
			var linePrice, lineDiscount float64
			if i == len(priced)-1 {
				linePrice = utils.Round2(targetTotal - allocatedPrice)
				lineDiscount = utils.Round2(discountTotal - allocatedDiscount)
			} else {
				share := comp.itemTotal / baseTotal
				linePrice = utils.Round2(targetTotal * share)
				lineDiscount = utils.Round2(discountTotal * share)
				allocatedPrice += linePrice
				allocatedDiscount += lineDiscount
			}

			therapyID := comp.therapy.ID
			sell := model.TherapySell{
				TherapyID:      &therapyID,
				TherapyName:    comp.therapy.Name,
				StoreID:        in.StoreID,
				UnitPrice:      comp.unitPrice,
				Amount:         comp.qty * in.BundleQty,
				Discount:       lineDiscount,
				FinalPrice:     linePrice,
				OrderReference: orderRef,
				Note:           ComposeBundleNote(in.Note, meta),
				SellDate:       in.SellDate,
				BundleMeta:     metaJSON,
			}
			if in.MemberID > 0 {
				sell.MemberID = &in.MemberID
			}
			if in.StaffID > 0 {
				sell.StaffID = &in.StaffID
			}
			if err := txSellRepo.CreateTherapySell(ctx, &sell); err != nil {
				return err
			}
			sells = append(sells, sell)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sells, nil
}

// ==================== 编辑 ====================

// UpdateProductSell 编辑商品销售行
// 同一事务里: 回冲旧出库 → 按新数量出库 → 更新行
// 备注更新时原有标签重新追加，不允许被编辑掉
func (s *SellService) UpdateProductSell(ctx context.Context, id int64, in ProductSellInput) (*model.ProductSell, error) {
	existing, err := s.sellRepo.GetProductSell(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("销售记录不存在: %d", id)
		}
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, errs.Validation("销售数量必须为正数")
	}

	newProductID := in.ProductID
	if newProductID == 0 && existing.ProductID != nil {
		newProductID = *existing.ProductID
	}
	product, err := s.mustPublishedProduct(ctx, newProductID)
	if err != nil {
		return nil, err
	}

	newStoreID := in.StoreID
	if newStoreID == 0 {
		newStoreID = existing.StoreID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 回冲旧库存效果
		if existing.ProductID != nil && existing.Quantity > 0 {
			if err := s.stockSvc.ReceiveTx(ctx, tx, *existing.ProductID, existing.Quantity,
				existing.StoreID, in.StaffID, existing.OrderReference,
				fmt.Sprintf("销售编辑回冲 #%d", existing.ID)); err != nil {
				return err
			}
		}
		// 应用新库存效果
		if err := s.stockSvc.ShipTx(ctx, tx, product.ID, in.Quantity,
			newStoreID, in.StaffID, existing.OrderReference,
			fmt.Sprintf("销售编辑出库 #%d", existing.ID)); err != nil {
			return err
		}

		productID := product.ID
		existing.ProductID = &productID
		existing.ProductName = product.Name
		existing.StoreID = newStoreID
		if in.UnitPrice > 0 {
			existing.UnitPrice = in.UnitPrice
		}
		existing.Quantity = in.Quantity
		existing.StockOut = -in.Quantity
		existing.Discount = in.Discount
		if in.FinalPrice > 0 {
			existing.FinalPrice = in.FinalPrice
		} else {
			existing.FinalPrice = utils.Round2(existing.UnitPrice*float64(in.Quantity) - in.Discount)
		}
		existing.Note = PreserveTags(existing.Note, in.Note)
		if in.MemberID > 0 {
			existing.MemberID = &in.MemberID
		}
		if !in.SellDate.IsZero() {
			existing.SellDate = in.SellDate
		}

		return s.sellRepo.WithTx(tx).UpdateProductSell(ctx, existing)
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// UpdateTherapySell 编辑疗程销售行，无库存联动
func (s *SellService) UpdateTherapySell(ctx context.Context, id int64, in TherapySellInput) (*model.TherapySell, error) {
	existing, err := s.sellRepo.GetTherapySell(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("销售记录不存在: %d", id)
		}
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, errs.Validation("购买次数必须为正数")
	}

	newTherapyID := in.TherapyID
	if newTherapyID == 0 && existing.TherapyID != nil {
		newTherapyID = *existing.TherapyID
	}
	therapy, err := s.mustPublishedTherapy(ctx, newTherapyID)
	if err != nil {
		return nil, err
	}

	therapyID := therapy.ID
	existing.TherapyID = &therapyID
	existing.TherapyName = therapy.Name
	if in.StoreID > 0 {
		existing.StoreID = in.StoreID
	}
	if in.UnitPrice > 0 {
		existing.UnitPrice = in.UnitPrice
	}
	existing.Amount = in.Amount
	existing.Discount = in.Discount
	if in.FinalPrice > 0 {
		existing.FinalPrice = in.FinalPrice
	} else {
		existing.FinalPrice = utils.Round2(existing.UnitPrice*float64(in.Amount) - in.Discount)
	}
	existing.Note = PreserveTags(existing.Note, in.Note)
	if in.MemberID > 0 {
		existing.MemberID = &in.MemberID
	}
	if !in.SellDate.IsZero() {
		existing.SellDate = in.SellDate
	}

	if err := s.sellRepo.UpdateTherapySell(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// ==================== 删除 ====================

// DeleteProductSell 删除商品销售行: 先按原单回冲入库，再删行，同一事务
func (s *SellService) DeleteProductSell(ctx context.Context, id int64, staffID int64) error {
	existing, err := s.sellRepo.GetProductSell(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("销售记录不存在: %d", id)
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if existing.ProductID != nil && existing.Quantity > 0 {
			if err := s.stockSvc.ReceiveTx(ctx, tx,
				*existing.ProductID, existing.Quantity, existing.StoreID, staffID,
				existing.OrderReference,
				fmt.Sprintf("销售删除回冲 #%d", existing.ID)); err != nil {
				return err
			}
		}
		return s.sellRepo.WithTx(tx).DeleteProductSell(ctx, id)
	})
}

// DeleteTherapySell 删除疗程销售行
func (s *SellService) DeleteTherapySell(ctx context.Context, id int64) error {
	if _, err := s.sellRepo.GetTherapySell(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("销售记录不存在: %d", id)
		}
		return err
	}
	return s.sellRepo.DeleteTherapySell(ctx, id)
}

// ==================== 查询 ====================

// ListProductSells 商品销售列表
func (s *SellService) ListProductSells(ctx context.Context, filter repository.SellFilter) ([]model.ProductSell, int64, error) {
	return s.sellRepo.ListProductSells(ctx, filter)
}

// GetProductSell 商品销售详情
func (s *SellService) GetProductSell(ctx context.Context, id int64) (*model.ProductSell, error) {
	sell, err := s.sellRepo.GetProductSell(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("销售记录不存在: %d", id)
		}
		return nil, err
	}
	return sell, nil
}

// ListTherapySells 疗程销售列表
func (s *SellService) ListTherapySells(ctx context.Context, filter repository.SellFilter) ([]model.TherapySell, int64, error) {
	return s.sellRepo.ListTherapySells(ctx, filter)
}

// RemainingSessionRow 会员剩余次数行
type RemainingSessionRow struct {
	TherapyID int64 `json:"therapy_id"`
	Purchased int   `json:"purchased"`
	Deducted  int   `json:"deducted"`
	Remaining int   `json:"remaining"`
}

// RemainingSessions 会员剩余疗程次数
// 读时推导: Σ therapy_sell.amount − Σ therapy_record.deduct_sessions
func (s *SellService) RemainingSessions(ctx context.Context, memberID int64) ([]RemainingSessionRow, error) {
	purchased, err := s.sellRepo.SumTherapyPurchases(ctx, memberID)
	if err != nil {
		return nil, err
	}
	deducted, err := s.sellRepo.SumTherapyDeductions(ctx, memberID)
	if err != nil {
		return nil, err
	}

	rows := make([]RemainingSessionRow, 0, len(purchased))
	for therapyID, bought := range purchased {
		used := deducted[therapyID]
		rows = append(rows, RemainingSessionRow{
			TherapyID: therapyID,
			Purchased: bought,
			Deducted:  used,
			Remaining: bought - used,
		})
	}
	return rows, nil
}

// ==================== 内部 ====================

func (s *SellService) mustPublishedProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("商品不存在: %d", id)
		}
		return nil, err
	}
	if product.Status != model.StatusPublished {
		return nil, errs.Unpublished("商品已下架，不可销售: %s", product.Name)
	}
	return product, nil
}

func (s *SellService) mustPublishedTherapy(ctx context.Context, id int64) (*model.Therapy, error) {
	therapy, err := s.therapyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("疗程不存在: %d", id)
		}
		return nil, err
	}
	if therapy.Status != model.StatusPublished {
		return nil, errs.Unpublished("疗程已下架，不可销售: %s", therapy.Name)
	}
	return therapy, nil
}

// resolveProductUnitPrice 套组组件现价: 价格本 → 默认档位 → 牌价
func (s *SellService) resolveProductUnitPrice(ctx context.Context, product *model.Product,
	identityType string, storeID int64, quantity int) (float64, error) {
	if identityType != "" {
		resolved, err := s.resolver.ResolveOne(ctx, model.OwnerTypeProduct, product.ID, identityType, storeID, quantity)
		if err != nil {
			return 0, err
		}
		if resolved != nil {
			return resolved.Price, nil
		}
		tiers, err := s.productRepo.GetPriceTiers(ctx, product.ID)
		if err != nil {
			return 0, err
		}
		for _, t := range tiers {
			if t.IdentityType == identityType {
				return t.Price, nil
			}
		}
	}
	return product.Price, nil
}

// resolveTherapyUnitPrice 同上，疗程口径
func (s *SellService) resolveTherapyUnitPrice(ctx context.Context, therapy *model.Therapy,
	identityType string, storeID int64, quantity int) (float64, error) {
	if identityType != "" {
		resolved, err := s.resolver.ResolveOne(ctx, model.OwnerTypeTherapy, therapy.ID, identityType, storeID, quantity)
		if err != nil {
			return 0, err
		}
		if resolved != nil {
			return resolved.Price, nil
		}
		tiers, err := s.therapyRepo.GetPriceTiers(ctx, therapy.ID)
		if err != nil {
			return 0, err
		}
		for _, t := range tiers {
			if t.IdentityType == identityType {
				return t.Price, nil
			}
		}
	}
	return therapy.Price, nil
}

func appendBundleTag(note string, bundleID int64) string {
	tag := BundleTag(bundleID)
	if note == "" {
		return tag
	}
	return note + " " + tag
}
