package model

import "time"

// ==================== 库存 ====================

// MasterStock 按门店的在库数量
// store_id 列在老库里可能不存在，启动时探测，见 StockService
type MasterStock struct {
	ID              int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	InventoryItemID int64     `gorm:"index:idx_stock_item_store,unique;not null" json:"inventory_item_id"`
	MasterID        int64     `gorm:"index;not null" json:"master_id"`
	StoreID         int64     `gorm:"index:idx_stock_item_store,unique" json:"store_id"`
	QuantityOnHand  int       `gorm:"default:0" json:"quantity_on_hand"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (MasterStock) TableName() string { return "master_stocks" }

// 库存流水类型
const (
	TxnInbound  = "INBOUND"
	TxnOutbound = "OUTBOUND"
	TxnAdjust   = "ADJUST"
)

// StockTransaction 只追加的库存流水
// 任意 (inventory_item, store) 分区内 quantity 求和恒等于对应在库数
type StockTransaction struct {
	ID              int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	MasterID        int64     `gorm:"index;not null" json:"master_id"`
	InventoryItemID int64     `gorm:"index:idx_txn_item_store;not null" json:"inventory_item_id"`
	VariantID       *int64    `gorm:"index" json:"variant_id"`
	StoreID         *int64    `gorm:"index:idx_txn_item_store" json:"store_id"`
	StaffID         *int64    `json:"staff_id"`
	TxnType         string    `gorm:"size:20;index;not null" json:"txn_type"` // INBOUND / OUTBOUND / ADJUST
	Quantity        int       `gorm:"not null" json:"quantity"`               // 带符号，出库为负
	ReferenceNo     string    `gorm:"size:100" json:"reference_no"`
	Note            string    `gorm:"size:500" json:"note"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

func (StockTransaction) TableName() string { return "stock_transactions" }
