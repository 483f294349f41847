package model

import (
	"strings"
	"time"
)

// ==================== 主商品 / 变体 ====================

// 主商品编码取变体编码前 5 位（不足 5 位取全部），统一大写。
// 这是库存和价格查询共同的关联键。
const MasterCodePrefixLen = 5

// DeriveMasterCode 由变体编码推导主商品编码
func DeriveMasterCode(variantCode string) string {
	code := strings.TrimSpace(variantCode)
	// 按字符截取，编码里带中文时不能从字节中间切断
	if runes := []rune(code); len(runes) > MasterCodePrefixLen {
		code = string(runes[:MasterCodePrefixLen])
	}
	return strings.ToUpper(code)
}

// MasterProduct 主商品（SKU 族）
type MasterProduct struct {
	BaseModel
	Code   string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name   string `gorm:"size:255" json:"name"`
	Status string `gorm:"size:20;index;default:ACTIVE" json:"status"`
}

func (MasterProduct) TableName() string { return "master_products" }

// ProductVariant 变体行，variant_id 即商品 ID
type ProductVariant struct {
	VariantID   int64     `gorm:"primaryKey" json:"variant_id"`
	MasterID    int64     `gorm:"index;not null" json:"master_id"`
	VariantCode string    `gorm:"size:100;index;not null" json:"variant_code"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	SalePrice   float64   `gorm:"default:0" json:"sale_price"`
	Status      string    `gorm:"size:20;default:ACTIVE" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProductVariant) TableName() string { return "product_variants" }

// InventoryItem 库存单元（主商品粒度）
type InventoryItem struct {
	BaseModel
	MasterID int64  `gorm:"uniqueIndex;not null" json:"master_id"`
	Code     string `gorm:"size:20;index" json:"code"`
	Name     string `gorm:"size:255" json:"name"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// StoreTypePrice 按门店类型的成本价
// 表的物理名有两个历史写法，启动时探测，见 MasterService
type StoreTypePrice struct {
	BaseModel
	MasterID  int64   `gorm:"index:idx_master_store_type,unique;not null" json:"master_id"`
	StoreType string  `gorm:"size:20;index:idx_master_store_type,unique;not null" json:"store_type"` // DIRECT / FRANCHISE
	CostPrice float64 `gorm:"default:0" json:"cost_price"`
	// 人工改过价后不再随采购价联动
	Customized bool `gorm:"default:false" json:"customized"`
}

// 历史表名两种写法，按顺序探测
const (
	StoreTypePriceTable       = "store_type_prices"
	StoreTypePriceTableLegacy = "store_type_price"
)

func (StoreTypePrice) TableName() string { return StoreTypePriceTable }
