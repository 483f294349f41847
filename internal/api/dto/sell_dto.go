package dto

// ==================== 商品销售 ====================

// ProductSellReq 单品销售过账请求
type ProductSellReq struct {
	ProductID      int64   `json:"product_id" binding:"required"`
	MemberID       int64   `json:"member_id"`
	UnitPrice      float64 `json:"unit_price" binding:"gte=0"`
	Quantity       int     `json:"quantity" binding:"required,gte=1"`
	Discount       float64 `json:"discount" binding:"gte=0"`
	FinalPrice     float64 `json:"final_price" binding:"gte=0"`
	OrderReference string  `json:"order_reference" binding:"max=150"`
	Note           string  `json:"note" binding:"max=500"`
	SellDate       string  `json:"sell_date"` // YYYY-MM-DD，缺省今天
}

// BundleSellReq 套组销售过账请求
type BundleSellReq struct {
	BundleID       int64   `json:"bundle_id" binding:"required"`
	BundleQty      int     `json:"bundle_qty" binding:"required,gte=1"`
	MemberID       int64   `json:"member_id"`
	IdentityType   string  `json:"identity_type"`
	UnitPrice      float64 `json:"unit_price" binding:"gte=0"` // 提供时视为整组总价
	Discount       float64 `json:"discount" binding:"gte=0"`
	FinalPrice     float64 `json:"final_price" binding:"gte=0"` // 客付整组总价，优先级最高
	OrderReference string  `json:"order_reference" binding:"max=150"`
	Note           string  `json:"note" binding:"max=500"`
	SellDate       string  `json:"sell_date"`
}

// ==================== 疗程销售 ====================

// TherapySellReq 疗程销售过账请求
type TherapySellReq struct {
	TherapyID      int64   `json:"therapy_id" binding:"required"`
	MemberID       int64   `json:"member_id"`
	UnitPrice      float64 `json:"unit_price" binding:"gte=0"`
	Amount         int     `json:"amount" binding:"required,gte=1"`
	Discount       float64 `json:"discount" binding:"gte=0"`
	FinalPrice     float64 `json:"final_price" binding:"gte=0"`
	OrderReference string  `json:"order_reference" binding:"max=150"`
	Note           string  `json:"note" binding:"max=500"`
	SellDate       string  `json:"sell_date"`
}

// ==================== 销售单 ====================

// OrderItemReq 销售单明细行
type OrderItemReq struct {
	ProductID       *int64  `json:"product_id"`
	TherapyID       *int64  `json:"therapy_id"`
	BundleID        int64   `json:"bundle_id"`
	ItemDescription string  `json:"item_description" binding:"max=255"`
	ItemType        string  `json:"item_type" binding:"max=30"`
	Unit            string  `json:"unit" binding:"max=20"`
	UnitPrice       float64 `json:"unit_price" binding:"gte=0"`
	Quantity        int     `json:"quantity" binding:"required,gte=1"`
	Category        string  `json:"category" binding:"max=50"`
	Note            string  `json:"note" binding:"max=500"`
}

// SaveOrderReq 建单/改单请求
type SaveOrderReq struct {
	OrderNumber   string         `json:"order_number" binding:"max=100"`
	OrderDate     string         `json:"order_date"` // YYYY-MM-DD
	MemberID      *int64         `json:"member_id"`
	TotalDiscount float64        `json:"total_discount" binding:"gte=0"`
	SaleCategory  string         `json:"sale_category" binding:"max=50"`
	Note          string         `json:"note" binding:"max=500"`
	Items         []OrderItemReq `json:"items" binding:"required,min=1,dive"`
}
