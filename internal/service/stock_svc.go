package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/pkg/logger"
)

// ==================== 库存台账 ====================

// StockService 库存台账
// 所有改写在单个事务里执行: 先对 MasterStock 行取 FOR UPDATE 锁，
// 更新在库数，再追加流水，保证任意时刻 on_hand == Σ 流水 quantity
type StockService struct {
	stockRepo  repository.StockRepository
	masterRepo repository.MasterRepository
	masterSvc  *MasterService
	// master_stocks 是否带 store_id 列，启动时探测一次，之后只读
	storeScoped bool
}

// NewStockService 创建库存服务，启动时探测 store_id 列
func NewStockService(db *gorm.DB, stockRepo repository.StockRepository,
	masterRepo repository.MasterRepository, masterSvc *MasterService) *StockService {
	storeScoped := db.Migrator().HasColumn(&model.MasterStock{}, "store_id")
	if !storeScoped {
		logger.L.Info("master_stocks 不带 store_id 列，库存按全局口径")
	}
	return &StockService{
		stockRepo:   stockRepo,
		masterRepo:  masterRepo,
		masterSvc:   masterSvc,
		storeScoped: storeScoped,
	}
}

// StoreScoped 库存是否按门店分账
func (s *StockService) StoreScoped() bool { return s.storeScoped }

// ==================== 收发参数 ====================

// ReceiveInput 入库参数，三个 ID 至少给一个
type ReceiveInput struct {
	MasterID        int64
	VariantID       int64
	InventoryItemID int64
	Quantity        int
	StoreID         int64
	StaffID         int64
	ReferenceNo     string
	Note            string
	// 整族入库: 按 5 位前缀把同族库存单元一起入
	ApplyPrefixBundle bool
}

// StockResult 单个库存单元操作后的在库数
type StockResult struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	MasterID        int64 `json:"master_id"`
	OnHand          int   `json:"on_hand"`
}

// ==================== 入库 ====================

// Receive 入库，返回每个库存单元更新后的在库数
func (s *StockService) Receive(ctx context.Context, in ReceiveInput) ([]StockResult, error) {
	if in.Quantity <= 0 {
		return nil, errs.Validation("入库数量必须为正数")
	}

	items, variantID, err := s.resolveReceiveTargets(ctx, in)
	if err != nil {
		return nil, err
	}

	var results []StockResult
	err = s.stockRepo.Transaction(ctx, func(txRepo repository.StockRepository) error {
		for _, item := range items {
			onHand, err := s.applyDelta(ctx, txRepo, deltaInput{
				item:        item,
				variantID:   variantID,
				storeID:     in.StoreID,
				staffID:     in.StaffID,
				delta:       in.Quantity,
				txnType:     model.TxnInbound,
				referenceNo: in.ReferenceNo,
				note:        in.Note,
			})
			if err != nil {
				return err
			}
			results = append(results, StockResult{
				InventoryItemID: item.ID,
				MasterID:        item.MasterID,
				OnHand:          onHand,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// resolveReceiveTargets 把入库参数解析成库存单元集合
func (s *StockService) resolveReceiveTargets(ctx context.Context, in ReceiveInput) ([]model.InventoryItem, *int64, error) {
	var item *model.InventoryItem
	var variantID *int64

	switch {
	case in.VariantID > 0:
		resolved, variant, err := s.masterSvc.ResolveInventoryItemByVariant(ctx, in.VariantID)
		if err != nil {
			return nil, nil, err
		}
		item = resolved
		variantID = &variant.VariantID
	case in.InventoryItemID > 0:
		resolved, err := s.masterRepo.GetInventoryItem(ctx, in.InventoryItemID)
		if err != nil {
			return nil, nil, errs.NotFound("库存单元不存在: %d", in.InventoryItemID)
		}
		item = resolved
	case in.MasterID > 0:
		resolved, err := s.masterRepo.GetInventoryItemByMaster(ctx, in.MasterID)
		if err != nil {
			return nil, nil, errs.NotFound("主商品 %d 没有库存单元", in.MasterID)
		}
		item = resolved
	default:
		return nil, nil, errs.Validation("必须提供 master_id、variant_id 或 inventory_item_id 之一")
	}

	if in.ApplyPrefixBundle {
		family, err := s.masterSvc.CollectPrefixFamily(ctx, item.Code)
		if err != nil {
			return nil, nil, err
		}
		// 整族入库不携带变体
		return family, nil, nil
	}
	return []model.InventoryItem{*item}, variantID, nil
}

// ==================== 出库 ====================

// Ship 按变体出库，库存不足直接失败
func (s *StockService) Ship(ctx context.Context, variantID int64, qty int, storeID, staffID int64, referenceNo, note string) (*StockResult, error) {
	if qty <= 0 {
		return nil, errs.Validation("出库数量必须为正数")
	}

	item, variant, err := s.masterSvc.ResolveInventoryItemByVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	var result StockResult
	err = s.stockRepo.Transaction(ctx, func(txRepo repository.StockRepository) error {
		onHand, err := s.applyDelta(ctx, txRepo, deltaInput{
			item:        *item,
			variantID:   &variant.VariantID,
			storeID:     storeID,
			staffID:     staffID,
			delta:       -qty,
			txnType:     model.TxnOutbound,
			referenceNo: referenceNo,
			note:        note,
		})
		if err != nil {
			return err
		}
		result = StockResult{InventoryItemID: item.ID, MasterID: item.MasterID, OnHand: onHand}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ShipTx 在调用方事务里出库（销售过账用，保证同事务原子性）
// 变体解析同样走事务连接，避免和调用方事务分家
func (s *StockService) ShipTx(ctx context.Context, tx *gorm.DB,
	variantID int64, qty int, storeID, staffID int64, referenceNo, note string) error {
	if qty <= 0 {
		return errs.Validation("出库数量必须为正数")
	}
	item, variant, err := s.masterSvc.WithTx(tx).ResolveInventoryItemByVariant(ctx, variantID)
	if err != nil {
		return err
	}
	_, err = s.applyDelta(ctx, s.stockRepo.WithTx(tx), deltaInput{
		item:        *item,
		variantID:   &variant.VariantID,
		storeID:     storeID,
		staffID:     staffID,
		delta:       -qty,
		txnType:     model.TxnOutbound,
		referenceNo: referenceNo,
		note:        note,
	})
	return err
}

// ReceiveTx 在调用方事务里入库（销售撤销/编辑回冲用）
func (s *StockService) ReceiveTx(ctx context.Context, tx *gorm.DB,
	variantID int64, qty int, storeID, staffID int64, referenceNo, note string) error {
	if qty <= 0 {
		return errs.Validation("入库数量必须为正数")
	}
	item, variant, err := s.masterSvc.WithTx(tx).ResolveInventoryItemByVariant(ctx, variantID)
	if err != nil {
		return err
	}
	_, err = s.applyDelta(ctx, s.stockRepo.WithTx(tx), deltaInput{
		item:        *item,
		variantID:   &variant.VariantID,
		storeID:     storeID,
		staffID:     staffID,
		delta:       qty,
		txnType:     model.TxnInbound,
		referenceNo: referenceNo,
		note:        note,
	})
	return err
}

// ==================== 调整 ====================

// Adjust 带符号调整，负数可把在库数打到调用方自担的负值以下之前这里不拦
func (s *StockService) Adjust(ctx context.Context, inventoryItemID int64, delta int, storeID, staffID int64, referenceNo, note string) (*StockResult, error) {
	if delta == 0 {
		return nil, errs.Validation("调整数量不能为 0")
	}
	item, err := s.masterRepo.GetInventoryItem(ctx, inventoryItemID)
	if err != nil {
		return nil, errs.NotFound("库存单元不存在: %d", inventoryItemID)
	}

	var result StockResult
	err = s.stockRepo.Transaction(ctx, func(txRepo repository.StockRepository) error {
		onHand, err := s.applyDelta(ctx, txRepo, deltaInput{
			item:        *item,
			storeID:     storeID,
			staffID:     staffID,
			delta:       delta,
			txnType:     model.TxnAdjust,
			referenceNo: referenceNo,
			note:        note,
			allowBelow:  true,
		})
		if err != nil {
			return err
		}
		result = StockResult{InventoryItemID: item.ID, MasterID: item.MasterID, OnHand: onHand}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ==================== 核心: 锁行 + 改量 + 记流水 ====================

type deltaInput struct {
	item        model.InventoryItem
	variantID   *int64
	storeID     int64
	staffID     int64
	delta       int
	txnType     string
	referenceNo string
	note        string
	// ADJUST 允许把在库数调成负
	allowBelow bool
}

// applyDelta 在事务内执行: 行锁 → 改在库数 → 追加流水
// 流水插入严格在在库数更新之后，同事务读取者看到一致的 (quantity, 流水) 对
func (s *StockService) applyDelta(ctx context.Context, txRepo repository.StockRepository, in deltaInput) (int, error) {
	stock, err := txRepo.LockStock(ctx, in.item.ID, in.storeID, s.storeScoped)
	if err != nil {
		return 0, err
	}

	if stock == nil {
		if in.delta < 0 && !in.allowBelow {
			return 0, errs.InsufficientStock("库存不足: %s 当前在库 0", in.item.Code)
		}
		stock = &model.MasterStock{
			InventoryItemID: in.item.ID,
			MasterID:        in.item.MasterID,
			QuantityOnHand:  0,
		}
		if s.storeScoped {
			stock.StoreID = in.storeID
		}
		if err := txRepo.CreateStock(ctx, stock); err != nil {
			return 0, err
		}
		// 新建后重新锁行，避免并发首次入库的窗口
		stock, err = txRepo.LockStock(ctx, in.item.ID, in.storeID, s.storeScoped)
		if err != nil {
			return 0, err
		}
	}

	newQty := stock.QuantityOnHand + in.delta
	if newQty < 0 && !in.allowBelow {
		return 0, errs.InsufficientStock("库存不足: %s 当前在库 %d，需要 %d",
			in.item.Code, stock.QuantityOnHand, -in.delta)
	}

	if err := txRepo.UpdateQuantity(ctx, stock.ID, newQty); err != nil {
		return 0, err
	}

	txn := &model.StockTransaction{
		MasterID:        in.item.MasterID,
		InventoryItemID: in.item.ID,
		VariantID:       in.variantID,
		TxnType:         in.txnType,
		Quantity:        in.delta,
		ReferenceNo:     in.referenceNo,
		Note:            in.note,
		CreatedAt:       time.Now(),
	}
	// 非门店分账时 store_id 不参与查询口径，但流水仍记录来源门店
	if in.storeID > 0 {
		txn.StoreID = &in.storeID
	}
	if in.staffID > 0 {
		txn.StaffID = &in.staffID
	}
	if err := txRepo.AppendTransaction(ctx, txn); err != nil {
		return 0, err
	}

	return newQty, nil
}

// ==================== 查询 ====================

// SummaryRow 门店在库汇总行
type SummaryRow struct {
	InventoryItemID int64  `json:"inventory_item_id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	OnHand          int    `json:"on_hand"`
}

// Summary 门店在库汇总，可按关键字过滤
func (s *StockService) Summary(ctx context.Context, storeID int64, keyword string) ([]SummaryRow, error) {
	stocks, err := s.stockRepo.ListStocks(ctx, storeID, s.storeScoped)
	if err != nil {
		return nil, err
	}

	rows := make([]SummaryRow, 0, len(stocks))
	for _, stock := range stocks {
		item, err := s.masterRepo.GetInventoryItem(ctx, stock.InventoryItemID)
		if err != nil {
			logger.L.Warn("库存行引用的库存单元缺失",
				zap.Int64("inventory_item_id", stock.InventoryItemID))
			continue
		}
		if keyword != "" && !containsFold(item.Code, keyword) && !containsFold(item.Name, keyword) {
			continue
		}
		rows = append(rows, SummaryRow{
			InventoryItemID: item.ID,
			Code:            item.Code,
			Name:            item.Name,
			OnHand:          stock.QuantityOnHand,
		})
	}
	return rows, nil
}

// OnHand 单个库存单元的在库数
func (s *StockService) OnHand(ctx context.Context, inventoryItemID, storeID int64) (int, error) {
	stock, err := s.stockRepo.GetStock(ctx, inventoryItemID, storeID, s.storeScoped)
	if err != nil {
		return 0, err
	}
	if stock == nil {
		return 0, nil
	}
	return stock.QuantityOnHand, nil
}

// OnHandByVariant 变体口径的在库数（走主商品库存单元）
func (s *StockService) OnHandByVariant(ctx context.Context, variantID, storeID int64) (int, error) {
	item, _, err := s.masterSvc.ResolveInventoryItemByVariant(ctx, variantID)
	if err != nil {
		return 0, err
	}
	return s.OnHand(ctx, item.ID, storeID)
}

// ListTransactions 流水查询
func (s *StockService) ListTransactions(ctx context.Context, filter repository.TxnFilter) ([]model.StockTransaction, int64, error) {
	return s.stockRepo.ListTransactions(ctx, filter)
}

// LowStocks 低于阈值的库存行
func (s *StockService) LowStocks(ctx context.Context, threshold int) ([]model.MasterStock, error) {
	return s.stockRepo.ListLowStocks(ctx, threshold)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
