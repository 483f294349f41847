package model

import (
	"wellness_erp_v1_202609/pkg/utils"
)

// ==================== 商品 / 疗程 ====================

// Product 商品（变体粒度，直接可售）
type Product struct {
	BaseModel
	Code          string  `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name          string  `gorm:"size:255;not null" json:"name"`
	Price         float64 `gorm:"default:0" json:"price"`
	PurchasePrice float64 `gorm:"default:0" json:"purchase_price"`
	Unit          string  `gorm:"size:20" json:"unit"`
	Status        string  `gorm:"size:20;index;default:PUBLISHED" json:"status"`
	// 下架原因，仅下架时有值
	UnpublishedReason string `gorm:"size:255" json:"unpublished_reason"`

	// 可见性集合，JSON 文本存储，历史数据可能是标量
	VisibleStoreIDs    utils.IntList    `gorm:"type:text" json:"visible_store_ids"`
	VisiblePermissions utils.StringList `gorm:"type:text" json:"visible_permissions"`

	// 价格档位（按身份）
	PriceTiers []PriceTier `gorm:"foreignKey:OwnerID;references:ID" json:"price_tiers,omitempty"`
}

func (Product) TableName() string { return "products" }

// Therapy 疗程项目，price 为单次价
type Therapy struct {
	BaseModel
	Code              string  `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name              string  `gorm:"size:255;not null" json:"name"`
	Price             float64 `gorm:"default:0" json:"price"`
	Unit              string  `gorm:"size:20" json:"unit"`
	Status            string  `gorm:"size:20;index;default:PUBLISHED" json:"status"`
	UnpublishedReason string  `gorm:"size:255" json:"unpublished_reason"`

	VisibleStoreIDs    utils.IntList    `gorm:"type:text" json:"visible_store_ids"`
	VisiblePermissions utils.StringList `gorm:"type:text" json:"visible_permissions"`
}

func (Therapy) TableName() string { return "therapies" }

// PriceTier 按身份的默认价格档位
// owner 是商品/疗程/套组之一，由 owner_type 区分
type PriceTier struct {
	BaseModel
	OwnerID      int64   `gorm:"index:idx_tier_owner,unique;not null" json:"owner_id"`
	OwnerType    string  `gorm:"size:30;index:idx_tier_owner,unique;not null" json:"owner_type"`
	IdentityType string  `gorm:"size:30;index:idx_tier_owner,unique;not null" json:"identity_type"`
	Price        float64 `gorm:"default:0" json:"price"`
}

func (PriceTier) TableName() string { return "price_tiers" }

// PriceTier owner_type 取值
const (
	OwnerTypeProduct       = "PRODUCT"
	OwnerTypeTherapy       = "THERAPY"
	OwnerTypeProductBundle = "PRODUCT_BUNDLE"
	OwnerTypeTherapyBundle = "THERAPY_BUNDLE"
)

// ==================== 套组 ====================

// ProductBundle 商品套组
type ProductBundle struct {
	BaseModel
	Code string `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`
	// 售价（整组对外价）
	SellingPrice float64 `gorm:"default:0" json:"selling_price"`
	// 组件价合计（展示用）
	CalculatedPrice   float64 `gorm:"default:0" json:"calculated_price"`
	Status            string  `gorm:"size:20;index;default:PUBLISHED" json:"status"`
	UnpublishedReason string  `gorm:"size:255" json:"unpublished_reason"`

	VisibleStoreIDs    utils.IntList    `gorm:"type:text" json:"visible_store_ids"`
	VisiblePermissions utils.StringList `gorm:"type:text" json:"visible_permissions"`

	Items []BundleItem `gorm:"foreignKey:BundleID" json:"items,omitempty"`
}

func (ProductBundle) TableName() string { return "product_bundles" }

// TherapyBundle 疗程套组
type TherapyBundle struct {
	BaseModel
	Code              string  `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name              string  `gorm:"size:255;not null" json:"name"`
	SellingPrice      float64 `gorm:"default:0" json:"selling_price"`
	CalculatedPrice   float64 `gorm:"default:0" json:"calculated_price"`
	Status            string  `gorm:"size:20;index;default:PUBLISHED" json:"status"`
	UnpublishedReason string  `gorm:"size:255" json:"unpublished_reason"`

	VisibleStoreIDs    utils.IntList    `gorm:"type:text" json:"visible_store_ids"`
	VisiblePermissions utils.StringList `gorm:"type:text" json:"visible_permissions"`

	Items []BundleItem `gorm:"foreignKey:BundleID" json:"items,omitempty"`
}

func (TherapyBundle) TableName() string { return "therapy_bundles" }

// BundleItem 套组组件
// bundle_type 区分商品套组/疗程套组；item_type 只在商品套组里可混合
type BundleItem struct {
	BaseModel
	BundleID   int64  `gorm:"index;not null" json:"bundle_id"`
	BundleType string `gorm:"size:30;index;not null" json:"bundle_type"`
	ItemID     int64  `gorm:"not null" json:"item_id"`
	ItemType   string `gorm:"size:30;not null" json:"item_type"` // PRODUCT / THERAPY
	Quantity   int    `gorm:"default:1" json:"quantity"`
}

func (BundleItem) TableName() string { return "bundle_items" }

// ==================== 分类 ====================

// Category 分类标签
type Category struct {
	BaseModel
	Name       string `gorm:"size:100;not null" json:"name"`
	TargetType string `gorm:"size:30;index" json:"target_type"` // PRODUCT / THERAPY / PRODUCT_BUNDLE / THERAPY_BUNDLE
}

func (Category) TableName() string { return "categories" }

// CategoryLink 分类与条目的多对多关系
type CategoryLink struct {
	BaseModel
	CategoryID int64  `gorm:"index:idx_cat_link,unique;not null" json:"category_id"`
	ItemID     int64  `gorm:"index:idx_cat_link,unique;not null" json:"item_id"`
	ItemType   string `gorm:"size:30;index:idx_cat_link,unique;not null" json:"item_type"`
}

func (CategoryLink) TableName() string { return "category_links" }
