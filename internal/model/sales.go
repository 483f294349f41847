package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 销售单 ====================

// SalesOrder 销售单头
type SalesOrder struct {
	BaseModel
	OrderNumber   string    `gorm:"size:100;uniqueIndex;not null" json:"order_number"`
	OrderDate     time.Time `gorm:"index" json:"order_date"`
	MemberID      *int64    `gorm:"index" json:"member_id"`
	StaffID       *int64    `json:"staff_id"`
	StoreID       int64     `gorm:"index" json:"store_id"`
	Subtotal      float64   `gorm:"default:0" json:"subtotal"`
	TotalDiscount float64   `gorm:"default:0" json:"total_discount"`
	GrandTotal    float64   `gorm:"default:0" json:"grand_total"`
	SaleCategory  string    `gorm:"size:50" json:"sale_category"`
	Note          string    `gorm:"size:500" json:"note"`

	Items []SalesOrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (SalesOrder) TableName() string { return "sales_orders" }

// SalesOrderItem 销售单行
// 具体条目 product_id / therapy_id 恰有其一非空；
// 套组引用编码在 note 里，形如 [bundle:ID]，两个 ID 均留空
type SalesOrderItem struct {
	BaseModel
	OrderID         int64   `gorm:"index;not null" json:"order_id"`
	ProductID       *int64  `gorm:"index" json:"product_id"`
	TherapyID       *int64  `gorm:"index" json:"therapy_id"`
	ItemDescription string  `gorm:"size:255" json:"item_description"`
	ItemType        string  `gorm:"size:30" json:"item_type"`
	Unit            string  `gorm:"size:20" json:"unit"`
	UnitPrice       float64 `gorm:"default:0" json:"unit_price"`
	Quantity        int     `gorm:"default:1" json:"quantity"`
	Subtotal        float64 `gorm:"default:0" json:"subtotal"`
	Category        string  `gorm:"size:50" json:"category"`
	Note            string  `gorm:"size:500" json:"note"`
}

func (SalesOrderItem) TableName() string { return "sales_order_items" }

// ==================== 销售过账行 ====================

// ProductSell 商品销售过账行
// product_id 可空: 商品删除后置空，名字快照保留在 product_name
type ProductSell struct {
	BaseModel
	ProductID   *int64  `gorm:"index" json:"product_id"`
	ProductName string  `gorm:"size:255" json:"product_name"`
	MemberID    *int64  `gorm:"index" json:"member_id"`
	StaffID     *int64  `json:"staff_id"`
	StoreID     int64   `gorm:"index" json:"store_id"`
	UnitPrice   float64 `gorm:"default:0" json:"unit_price"`
	Quantity    int     `gorm:"default:1" json:"quantity"`
	Discount    float64 `gorm:"default:0" json:"discount"`
	FinalPrice  float64 `gorm:"default:0" json:"final_price"`
	// 出库数量，按约定记负数
	StockOut int `gorm:"default:0" json:"stock_out"`
	// 同一次过账共享的分组引用，套组组件靠它聚合
	OrderReference string    `gorm:"size:150;index" json:"order_reference"`
	Note           string    `gorm:"size:1000" json:"note"`
	SellDate       time.Time `gorm:"index" json:"sell_date"`

	// 套组元数据镜像列，文本标签仍然保留用于读兼容
	BundleMeta datatypes.JSON `json:"bundle_meta,omitempty"`
}

func (ProductSell) TableName() string { return "product_sells" }

// TherapySell 疗程销售过账行，amount 为购买次数，不动库存
type TherapySell struct {
	BaseModel
	TherapyID   *int64  `gorm:"index" json:"therapy_id"`
	TherapyName string  `gorm:"size:255" json:"therapy_name"`
	MemberID    *int64  `gorm:"index" json:"member_id"`
	StaffID     *int64  `json:"staff_id"`
	StoreID     int64   `gorm:"index" json:"store_id"`
	UnitPrice   float64 `gorm:"default:0" json:"unit_price"`
	Amount      int     `gorm:"default:1" json:"amount"`
	Discount    float64 `gorm:"default:0" json:"discount"`
	FinalPrice  float64 `gorm:"default:0" json:"final_price"`

	OrderReference string    `gorm:"size:150;index" json:"order_reference"`
	Note           string    `gorm:"size:1000" json:"note"`
	SellDate       time.Time `gorm:"index" json:"sell_date"`

	BundleMeta datatypes.JSON `json:"bundle_meta,omitempty"`
}

func (TherapySell) TableName() string { return "therapy_sells" }
