package dto

// ==================== 价格本 ====================

// SavePriceBookReq 创建/更新价格本请求
type SavePriceBookReq struct {
	Name         string  `json:"name" binding:"required,max=255"`
	IdentityType string  `json:"identity_type" binding:"required"`
	ScopeType    string  `json:"scope_type" binding:"omitempty,oneof=GLOBAL STORE"`
	Status       string  `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	Priority     *int    `json:"priority"`
	ValidFrom    string  `json:"valid_from"` // YYYY-MM-DD
	ValidTo      string  `json:"valid_to"`
	StoreIDs     []int64 `json:"store_ids"`
}

// PriceBookItemReq 价格本条目
type PriceBookItemReq struct {
	ItemType    string  `json:"item_type" binding:"required,oneof=PRODUCT THERAPY PRODUCT_BUNDLE THERAPY_BUNDLE"`
	ItemID      int64   `json:"item_id" binding:"required"`
	Price       float64 `json:"price" binding:"gte=0"`
	Currency    string  `json:"currency" binding:"max=10"`
	MinQuantity int     `json:"min_quantity" binding:"gte=0"`
	MaxQuantity int     `json:"max_quantity" binding:"gte=0"`
	CustomCode  string  `json:"custom_code" binding:"max=100"`
	CustomName  string  `json:"custom_name" binding:"max=255"`
}

// ReplaceBookItemsReq 条目整组替换请求
type ReplaceBookItemsReq struct {
	Items []PriceBookItemReq `json:"items" binding:"required,dive"`
}

// ResolvePriceReq 价格解析请求
type ResolvePriceReq struct {
	ItemType     string  `json:"item_type" binding:"required,oneof=PRODUCT THERAPY PRODUCT_BUNDLE THERAPY_BUNDLE"`
	ItemIDs      []int64 `json:"item_ids" binding:"required,min=1"`
	IdentityType string  `json:"identity_type" binding:"required"`
	Quantity     int     `json:"quantity" binding:"gte=0"`
}
