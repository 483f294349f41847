package model

import "time"

// InventoryRecord 老台账的手工库存异动行
// 与主库存流水并存，统一走库存历史读模型合并展示
type InventoryRecord struct {
	BaseModel
	StoreID     int64     `gorm:"index" json:"store_id"`
	StaffID     *int64    `json:"staff_id"`
	ProductName string    `gorm:"size:255" json:"product_name"`
	// 带符号，入正出负
	Quantity   int       `gorm:"not null" json:"quantity"`
	RecordType string    `gorm:"size:30" json:"record_type"`
	Note       string    `gorm:"size:500" json:"note"`
	RecordDate time.Time `gorm:"index" json:"record_date"`
}

func (InventoryRecord) TableName() string { return "inventory_records" }
