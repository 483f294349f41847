package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// StockRepository 库存仓储
// 所有改写操作都要求在事务里先 LockStock 拿到行锁
type StockRepository interface {
	// 行锁读取，不存在返回 (nil, nil)
	LockStock(ctx context.Context, inventoryItemID, storeID int64, storeScoped bool) (*model.MasterStock, error)
	CreateStock(ctx context.Context, stock *model.MasterStock) error
	UpdateQuantity(ctx context.Context, stockID int64, quantity int) error

	GetStock(ctx context.Context, inventoryItemID, storeID int64, storeScoped bool) (*model.MasterStock, error)
	ListStocks(ctx context.Context, storeID int64, storeScoped bool) ([]model.MasterStock, error)
	ListLowStocks(ctx context.Context, threshold int) ([]model.MasterStock, error)

	AppendTransaction(ctx context.Context, txn *model.StockTransaction) error
	ListTransactions(ctx context.Context, filter TxnFilter) ([]model.StockTransaction, int64, error)
	SumTransactions(ctx context.Context, inventoryItemID, storeID int64, storeScoped bool) (int, error)

	WithTx(tx *gorm.DB) StockRepository
	Transaction(ctx context.Context, fn func(txRepo StockRepository) error) error
}

// TxnFilter 流水查询条件
type TxnFilter struct {
	InventoryItemID int64
	StoreID         int64
	TxnType         string
	DateFrom        string
	DateTo          string
	Page            int
	PageSize        int
}

// ==================== 仓储实现 ====================

type stockRepo struct {
	db *gorm.DB
}

// NewStockRepository 创建库存仓储
func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepo{db: db}
}

func (r *stockRepo) LockStock(ctx context.Context, inventoryItemID, storeID int64, storeScoped bool) (*model.MasterStock, error) {
	var stock model.MasterStock
	query := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("inventory_item_id = ?", inventoryItemID)
	if storeScoped {
		query = query.Where("store_id = ?", storeID)
	}
	err := query.First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepo) CreateStock(ctx context.Context, stock *model.MasterStock) error {
	return r.db.WithContext(ctx).Create(stock).Error
}

func (r *stockRepo) UpdateQuantity(ctx context.Context, stockID int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&model.MasterStock{}).
		Where("id = ?", stockID).
		Update("quantity_on_hand", quantity).Error
}

func (r *stockRepo) GetStock(ctx context.Context, inventoryItemID, storeID int64, storeScoped bool) (*model.MasterStock, error) {
	var stock model.MasterStock
	query := r.db.WithContext(ctx).Where("inventory_item_id = ?", inventoryItemID)
	if storeScoped {
		query = query.Where("store_id = ?", storeID)
	}
	err := query.First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepo) ListStocks(ctx context.Context, storeID int64, storeScoped bool) ([]model.MasterStock, error) {
	var stocks []model.MasterStock
	query := r.db.WithContext(ctx).Model(&model.MasterStock{})
	if storeScoped && storeID > 0 {
		query = query.Where("store_id = ?", storeID)
	}
	err := query.Order("inventory_item_id ASC").Find(&stocks).Error
	return stocks, err
}

func (r *stockRepo) ListLowStocks(ctx context.Context, threshold int) ([]model.MasterStock, error) {
	var stocks []model.MasterStock
	err := r.db.WithContext(ctx).
		Where("quantity_on_hand <= ?", threshold).
		Order("quantity_on_hand ASC").
		Find(&stocks).Error
	return stocks, err
}

func (r *stockRepo) AppendTransaction(ctx context.Context, txn *model.StockTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *stockRepo) ListTransactions(ctx context.Context, filter TxnFilter) ([]model.StockTransaction, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 50
	}

	query := r.db.WithContext(ctx).Model(&model.StockTransaction{})
	if filter.InventoryItemID > 0 {
		query = query.Where("inventory_item_id = ?", filter.InventoryItemID)
	}
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.TxnType != "" {
		query = query.Where("txn_type = ?", filter.TxnType)
	}
	if filter.DateFrom != "" {
		query = query.Where("created_at >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("created_at <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []model.StockTransaction
	err := query.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&txns).Error
	return txns, total, err
}

func (r *stockRepo) SumTransactions(ctx context.Context, inventoryItemID, storeID int64, storeScoped bool) (int, error) {
	var sum *int
	query := r.db.WithContext(ctx).
		Model(&model.StockTransaction{}).
		Select("SUM(quantity)").
		Where("inventory_item_id = ?", inventoryItemID)
	if storeScoped {
		query = query.Where("store_id = ?", storeID)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

func (r *stockRepo) WithTx(tx *gorm.DB) StockRepository {
	return &stockRepo{db: tx}
}

func (r *stockRepo) Transaction(ctx context.Context, fn func(txRepo StockRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
