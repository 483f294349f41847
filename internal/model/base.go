package model

import (
	"time"
)

// BaseModel 公共字段
type BaseModel struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ==================== 公用状态常量 ====================

// 上下架状态
const (
	StatusPublished   = "PUBLISHED"
	StatusUnpublished = "UNPUBLISHED"
)

// 启停状态（价格本、主商品等）
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// 门店类型
const (
	StoreTypeDirect    = "DIRECT"
	StoreTypeFranchise = "FRANCHISE"
)

// 权限
const (
	PermissionAdmin     = "admin"
	PermissionBasic     = "basic"
	PermissionTherapist = "therapist"
)
