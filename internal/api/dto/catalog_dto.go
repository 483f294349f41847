package dto

// ==================== 档位价 ====================

// PriceTierReq 身份档位价
type PriceTierReq struct {
	IdentityType string  `json:"identity_type" binding:"required"`
	Price        float64 `json:"price" binding:"gte=0"`
}

// ==================== 商品 ====================

// SaveProductReq 创建/更新商品请求
type SaveProductReq struct {
	Code               string         `json:"code" binding:"required,max=100"`
	Name               string         `json:"name" binding:"required,max=255"`
	Price              float64        `json:"price" binding:"gte=0"`
	PurchasePrice      float64        `json:"purchase_price" binding:"gte=0"`
	Unit               string         `json:"unit"`
	Status             string         `json:"status" binding:"omitempty,oneof=PUBLISHED UNPUBLISHED"`
	VisibleStoreIDs    []int64        `json:"visible_store_ids"`
	VisiblePermissions []string       `json:"visible_permissions"`
	PriceTiers         []PriceTierReq `json:"price_tiers"`
}

// ==================== 疗程 ====================

// SaveTherapyReq 创建/更新疗程请求
type SaveTherapyReq struct {
	Code               string         `json:"code" binding:"required,max=100"`
	Name               string         `json:"name" binding:"required,max=255"`
	Price              float64        `json:"price" binding:"gte=0"`
	Unit               string         `json:"unit"`
	Status             string         `json:"status" binding:"omitempty,oneof=PUBLISHED UNPUBLISHED"`
	VisibleStoreIDs    []int64        `json:"visible_store_ids"`
	VisiblePermissions []string       `json:"visible_permissions"`
	PriceTiers         []PriceTierReq `json:"price_tiers"`
}

// ==================== 套组 ====================

// BundleItemReq 套组组件
type BundleItemReq struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	ItemType string `json:"item_type" binding:"required,oneof=PRODUCT THERAPY"`
	Quantity int    `json:"quantity" binding:"required,gte=1"`
}

// SaveBundleReq 创建/更新套组请求
type SaveBundleReq struct {
	Code               string          `json:"code" binding:"required,max=100"`
	Name               string          `json:"name" binding:"required,max=255"`
	SellingPrice       float64         `json:"selling_price" binding:"gte=0"`
	Status             string          `json:"status" binding:"omitempty,oneof=PUBLISHED UNPUBLISHED"`
	Items              []BundleItemReq `json:"items" binding:"required,min=1,dive"`
	VisibleStoreIDs    []int64         `json:"visible_store_ids"`
	VisiblePermissions []string        `json:"visible_permissions"`
	PriceTiers         []PriceTierReq  `json:"price_tiers"`
}

// ==================== 分类 ====================

// SaveCategoryReq 创建/更新分类请求
type SaveCategoryReq struct {
	Name       string `json:"name" binding:"required,max=100"`
	TargetType string `json:"target_type" binding:"omitempty,oneof=PRODUCT THERAPY PRODUCT_BUNDLE THERAPY_BUNDLE"`
}

// LinkCategoriesReq 条目挂分类请求
type LinkCategoriesReq struct {
	ItemID      int64   `json:"item_id" binding:"required"`
	ItemType    string  `json:"item_type" binding:"required,oneof=PRODUCT THERAPY PRODUCT_BUNDLE THERAPY_BUNDLE"`
	CategoryIDs []int64 `json:"category_ids"`
}

// ==================== 上下架 ====================

// PublishToggleReq 上下架请求体，下架时可带原因
type PublishToggleReq struct {
	Reason string `json:"reason" binding:"max=500"`
}
