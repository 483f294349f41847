package dto

// ==================== 主库存 ====================

// MasterInboundReq 入库请求，三个 ID 至少给一个
type MasterInboundReq struct {
	MasterID        int64  `json:"master_id"`
	VariantID       int64  `json:"variant_id"`
	InventoryItemID int64  `json:"inventory_item_id"`
	Quantity        int    `json:"quantity" binding:"required,gte=1"`
	ReferenceNo     string `json:"reference_no" binding:"max=150"`
	Note            string `json:"note" binding:"max=500"`
	// 整族入库: 按 5 位前缀把同族库存单元一起入
	ApplyPrefixBundle bool `json:"apply_prefix_bundle"`
}

// MasterOutboundReq 出库请求，按变体出
type MasterOutboundReq struct {
	VariantID   int64  `json:"variant_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required,gte=1"`
	ReferenceNo string `json:"reference_no" binding:"max=150"`
	Note        string `json:"note" binding:"max=500"`
}

// SetCostPriceReq 设置门店类型成本价
type SetCostPriceReq struct {
	MasterID  int64   `json:"master_id" binding:"required"`
	StoreType string  `json:"store_type" binding:"required,oneof=DIRECT FRANCHISE"`
	CostPrice float64 `json:"cost_price" binding:"gte=0"`
}

// ==================== 手工库存台账 ====================

// AddInventoryRecordReq 手工记一笔异动
type AddInventoryRecordReq struct {
	ProductName string `json:"product_name" binding:"required,max=255"`
	Quantity    int    `json:"quantity" binding:"required"`
	RecordType  string `json:"record_type" binding:"max=30"`
	Note        string `json:"note" binding:"max=500"`
	RecordDate  string `json:"record_date"` // YYYY-MM-DD，缺省今天
}

// UpdateInventoryRecordReq 更新手工行
type UpdateInventoryRecordReq struct {
	ProductName *string `json:"product_name"`
	Quantity    *int    `json:"quantity"`
	RecordType  *string `json:"record_type"`
	Note        *string `json:"note"`
}
