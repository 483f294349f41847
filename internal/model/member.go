package model

import "time"

// ==================== 门店 / 员工 / 会员 ====================

// Store 门店
type Store struct {
	BaseModel
	Name  string `gorm:"size:255;not null" json:"name"`
	Level string `gorm:"size:30" json:"level"` // headquarters / branch
	Type  string `gorm:"size:20;default:DIRECT" json:"type"`
	Phone string `gorm:"size:50" json:"phone"`
	Addr  string `gorm:"size:255" json:"addr"`
}

func (Store) TableName() string { return "stores" }

// 门店层级
const (
	StoreLevelHeadquarters = "headquarters"
	StoreLevelBranch       = "branch"
)

// Staff 员工
type Staff struct {
	BaseModel
	Name       string `gorm:"size:100;not null" json:"name"`
	Username   string `gorm:"size:100;uniqueIndex" json:"username"`
	Password   string `gorm:"size:255" json:"-"`
	StoreID    int64  `gorm:"index" json:"store_id"`
	Permission string `gorm:"size:30;default:basic" json:"permission"` // admin / basic / therapist
	Phone      string `gorm:"size:50" json:"phone"`
	Status     string `gorm:"size:20;default:ACTIVE" json:"status"`
}

func (Staff) TableName() string { return "staffs" }

// Member 会员
type Member struct {
	BaseModel
	Name         string     `gorm:"size:100;not null" json:"name"`
	Phone        string     `gorm:"size:50;index" json:"phone"`
	Gender       string     `gorm:"size:10" json:"gender"`
	Birthday     *time.Time `json:"birthday"`
	StoreID      int64      `gorm:"index" json:"store_id"`
	IdentityType string     `gorm:"size:30;index;default:MEMBER" json:"identity_type"`
	Note         string     `gorm:"size:500" json:"note"`
}

func (Member) TableName() string { return "members" }
