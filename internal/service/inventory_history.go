package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

// ==================== 库存历史读模型 ====================

// 合并视图里非手工行使用合成 ID，空间从 1,000,000 起按来源分段。
// 手工台账的增删改只接受小于 1,000,000 的真实 ID。
const (
	SyntheticIDBase = 1_000_000
	// 各来源的合成 ID 偏移
	offsetProductSell = SyntheticIDBase     // 商品销售
	offsetTherapySell = SyntheticIDBase * 2 // 疗程销售
	offsetStockTxn    = SyntheticIDBase * 3 // 主库存流水
)

// MovementRow 统一异动行
type MovementRow struct {
	ID       int64     `json:"id"`
	Source   string    `json:"source"` // MANUAL / PRODUCT_SELL / THERAPY_SELL / STOCK_TXN
	Name     string    `json:"name"`
	Quantity int       `json:"quantity"` // 带符号，入正出负
	Type     string    `json:"type"`
	StoreID  int64     `json:"store_id"`
	Note     string    `json:"note"`
	BundleID int64     `json:"bundle_id,omitempty"`
	Date     time.Time `json:"date"`
}

// InventoryService 手工库存台账 + 统一历史读模型
type InventoryService struct {
	db        *gorm.DB
	stockRepo repository.StockRepository
	sellRepo  repository.SellRepository
}

// NewInventoryService 创建库存历史服务
func NewInventoryService(db *gorm.DB, stockRepo repository.StockRepository,
	sellRepo repository.SellRepository) *InventoryService {
	return &InventoryService{db: db, stockRepo: stockRepo, sellRepo: sellRepo}
}

// ==================== 手工台账 CRUD ====================

// AddRecord 手工记一笔异动
func (s *InventoryService) AddRecord(ctx context.Context, record *model.InventoryRecord) error {
	if record.ProductName == "" {
		return errs.Validation("品名不能为空")
	}
	if record.Quantity == 0 {
		return errs.Validation("数量不能为 0")
	}
	if record.RecordDate.IsZero() {
		record.RecordDate = time.Now()
	}
	return s.db.WithContext(ctx).Create(record).Error
}

// UpdateRecord 更新手工行，合成 ID 直接拒绝
func (s *InventoryService) UpdateRecord(ctx context.Context, id int64, fields map[string]interface{}) error {
	if id >= SyntheticIDBase {
		return errs.Validation("合成记录不可修改: %d", id)
	}
	var record model.InventoryRecord
	if err := s.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("库存记录不存在: %d", id)
		}
		return err
	}
	return s.db.WithContext(ctx).Model(&record).Updates(fields).Error
}

// DeleteRecord 删除手工行，合成 ID 直接拒绝
func (s *InventoryService) DeleteRecord(ctx context.Context, id int64) error {
	if id >= SyntheticIDBase {
		return errs.Validation("合成记录不可删除: %d", id)
	}
	result := s.db.WithContext(ctx).Delete(&model.InventoryRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NotFound("库存记录不存在: %d", id)
	}
	return nil
}

// ListRecords 手工台账列表
func (s *InventoryService) ListRecords(ctx context.Context, storeID int64, keyword string, page, pageSize int) ([]model.InventoryRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&model.InventoryRecord{})
	if storeID > 0 {
		query = query.Where("store_id = ?", storeID)
	}
	if keyword != "" {
		query = query.Where("product_name LIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.InventoryRecord
	err := query.Order("record_date DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	return records, total, err
}

// ==================== 统一历史 ====================

// History 统一异动时间线
// 四个来源合并: 手工台账、商品销售（套组行按 [bundle:ID] 还原）、
// 疗程销售、主库存流水；按 (日期 DESC, ID DESC) 排序
func (s *InventoryService) History(ctx context.Context, storeID int64, dateFrom, dateTo string, limit int) ([]MovementRow, error) {
	if limit <= 0 || limit > 2000 {
		limit = 500
	}
	var rows []MovementRow

	// 1. 手工台账
	manualQuery := s.db.WithContext(ctx).Model(&model.InventoryRecord{})
	if storeID > 0 {
		manualQuery = manualQuery.Where("store_id = ?", storeID)
	}
	if dateFrom != "" {
		manualQuery = manualQuery.Where("record_date >= ?", dateFrom)
	}
	if dateTo != "" {
		manualQuery = manualQuery.Where("record_date <= ?", dateTo)
	}
	var manual []model.InventoryRecord
	if err := manualQuery.Order("record_date DESC, id DESC").Limit(limit).Find(&manual).Error; err != nil {
		return nil, err
	}
	for _, r := range manual {
		rows = append(rows, MovementRow{
			ID:       r.ID,
			Source:   "MANUAL",
			Name:     r.ProductName,
			Quantity: r.Quantity,
			Type:     r.RecordType,
			StoreID:  r.StoreID,
			Note:     r.Note,
			Date:     r.RecordDate,
		})
	}

	// 2. 商品销售，出库记负；套组行从备注还原引用
	sells, _, err := s.sellRepo.ListProductSells(ctx, repository.SellFilter{
		StoreID: storeID, DateFrom: dateFrom, DateTo: dateTo, PageSize: limit,
	})
	if err != nil {
		return nil, err
	}
	for _, sell := range sells {
		row := MovementRow{
			ID:       sell.ID + offsetProductSell,
			Source:   "PRODUCT_SELL",
			Name:     sell.ProductName,
			Quantity: -sell.Quantity,
			Type:     "SALE",
			StoreID:  sell.StoreID,
			Note:     sell.Note,
			Date:     sell.SellDate,
		}
		if bundleID, ok := ParseBundleID(sell.Note); ok {
			row.BundleID = bundleID
			row.Type = "BUNDLE_SALE"
		}
		rows = append(rows, row)
	}

	// 3. 疗程销售，不动库存，数量记 0 只做时间线展示
	therapySells, _, err := s.sellRepo.ListTherapySells(ctx, repository.SellFilter{
		StoreID: storeID, DateFrom: dateFrom, DateTo: dateTo, PageSize: limit,
	})
	if err != nil {
		return nil, err
	}
	for _, sell := range therapySells {
		row := MovementRow{
			ID:      sell.ID + offsetTherapySell,
			Source:  "THERAPY_SELL",
			Name:    sell.TherapyName,
			Type:    "THERAPY_SALE",
			StoreID: sell.StoreID,
			Note:    sell.Note,
			Date:    sell.SellDate,
		}
		if bundleID, ok := ParseBundleID(sell.Note); ok {
			row.BundleID = bundleID
		}
		rows = append(rows, row)
	}

	// 4. 主库存流水，quantity 本身带符号，与台账不变量同口径
	txns, _, err := s.stockRepo.ListTransactions(ctx, repository.TxnFilter{
		StoreID: storeID, DateFrom: dateFrom, DateTo: dateTo, PageSize: limit,
	})
	if err != nil {
		return nil, err
	}
	for _, txn := range txns {
		var txnStoreID int64
		if txn.StoreID != nil {
			txnStoreID = *txn.StoreID
		}
		rows = append(rows, MovementRow{
			ID:       txn.ID + offsetStockTxn,
			Source:   "STOCK_TXN",
			Quantity: txn.Quantity,
			Type:     txn.TxnType,
			StoreID:  txnStoreID,
			Note:     txn.Note,
			Date:     txn.CreatedAt,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].ID > rows[j].ID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
