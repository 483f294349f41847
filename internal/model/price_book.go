package model

import "time"

// ==================== 会员身份 ====================

// 身份类型，小数优先
const (
	IdentityDirectStore    = "DIRECT_STORE"
	IdentityFranchise      = "FRANCHISE"
	IdentityPartner        = "PARTNER"
	IdentityPromoter       = "PROMOTER"
	IdentityB2BProject     = "B2B_PROJECT"
	IdentityXinYaoMerchant = "XIN_YAO_MERCHANT"
	IdentityMember         = "MEMBER"
	IdentityGeneralRetail  = "GENERAL_RETAIL"
)

// IdentityPriorities 身份 → 优先级，数值越小越强
var IdentityPriorities = map[string]int{
	IdentityDirectStore:    10,
	IdentityFranchise:      20,
	IdentityPartner:        30,
	IdentityPromoter:       40,
	IdentityB2BProject:     50,
	IdentityXinYaoMerchant: 60,
	IdentityMember:         70,
	IdentityGeneralRetail:  90,
}

// IdentityPriority 未知身份按通用零售处理
func IdentityPriority(identity string) int {
	if p, ok := IdentityPriorities[identity]; ok {
		return p
	}
	return IdentityPriorities[IdentityGeneralRetail]
}

// ==================== 价格本 ====================

// MemberPriceBook 会员价格本
// 生效条件: status=ACTIVE 且 今天 ∈ [valid_from, valid_to]
type MemberPriceBook struct {
	BaseModel
	Name         string    `gorm:"size:255;not null" json:"name"`
	IdentityType string    `gorm:"size:30;index;not null" json:"identity_type"`
	ScopeType    string    `gorm:"size:30" json:"scope_type"` // GLOBAL / STORE
	Status       string    `gorm:"size:20;index;default:ACTIVE" json:"status"`
	Priority     int       `gorm:"default:0;index" json:"priority"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidTo      time.Time `json:"valid_to"`

	Items  []MemberPriceBookItem  `gorm:"foreignKey:BookID" json:"items,omitempty"`
	Stores []MemberPriceBookStore `gorm:"foreignKey:BookID" json:"stores,omitempty"`
}

func (MemberPriceBook) TableName() string { return "member_price_books" }

// MemberPriceBookItem 价格本条目
type MemberPriceBookItem struct {
	BaseModel
	BookID      int64   `gorm:"index;not null" json:"book_id"`
	ItemType    string  `gorm:"size:30;index;not null" json:"item_type"` // PRODUCT / THERAPY / PRODUCT_BUNDLE / THERAPY_BUNDLE
	ItemID      int64   `gorm:"index;not null" json:"item_id"`
	Price       float64 `gorm:"not null" json:"price"`
	Currency    string  `gorm:"size:10;default:CNY" json:"currency"`
	MinQuantity int     `gorm:"default:0" json:"min_quantity"`
	MaxQuantity int     `gorm:"default:0" json:"max_quantity"`
	CustomCode  string  `gorm:"size:100" json:"custom_code"`
	CustomName  string  `gorm:"size:255" json:"custom_name"`
	Status      string  `gorm:"size:20;default:ACTIVE" json:"status"`
}

func (MemberPriceBookItem) TableName() string { return "member_price_book_items" }

// MemberPriceBookStore 价格本门店范围，没有行则全局生效
type MemberPriceBookStore struct {
	BaseModel
	BookID  int64 `gorm:"index:idx_book_store,unique;not null" json:"book_id"`
	StoreID int64 `gorm:"index:idx_book_store,unique;not null" json:"store_id"`
}

func (MemberPriceBookStore) TableName() string { return "member_price_book_stores" }
