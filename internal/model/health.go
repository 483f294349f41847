package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== 健康档案 ====================

// MedicalRecord 病史档案
type MedicalRecord struct {
	BaseModel
	MemberID   int64     `gorm:"index;not null" json:"member_id"`
	StaffID    *int64    `json:"staff_id"`
	StoreID    int64     `gorm:"index" json:"store_id"`
	RecordDate time.Time `gorm:"index" json:"record_date"`
	Content    string    `gorm:"type:text" json:"content"`
}

func (MedicalRecord) TableName() string { return "medical_records" }

// PureHealthRecord 纯净健康记录
type PureHealthRecord struct {
	BaseModel
	MemberID   int64     `gorm:"index;not null" json:"member_id"`
	StaffID    *int64    `json:"staff_id"`
	StoreID    int64     `gorm:"index" json:"store_id"`
	RecordDate time.Time `gorm:"index" json:"record_date"`
	Item       string    `gorm:"size:255" json:"item"`
	Result     string    `gorm:"size:500" json:"result"`
	Note       string    `gorm:"size:500" json:"note"`
}

func (PureHealthRecord) TableName() string { return "pure_health_records" }

// StressTest 压力测试问卷
// answers 为 {"01":"A", ...}，共 20 题，选项 {甲,乙,A,B}
type StressTest struct {
	BaseModel
	MemberID int64          `gorm:"index;not null" json:"member_id"`
	StaffID  *int64         `json:"staff_id"`
	StoreID  int64          `gorm:"index" json:"store_id"`
	TestDate time.Time      `gorm:"index" json:"test_date"`
	Answers  datatypes.JSON `json:"answers"`
	// 四个维度得分
	ScoreA int `gorm:"default:0" json:"score_a"`
	ScoreB int `gorm:"default:0" json:"score_b"`
	ScoreC int `gorm:"default:0" json:"score_c"`
	ScoreD int `gorm:"default:0" json:"score_d"`
}

func (StressTest) TableName() string { return "stress_tests" }

// TherapyRecord 疗程消耗记录，deduct_sessions 为扣减次数
type TherapyRecord struct {
	BaseModel
	MemberID       int64     `gorm:"index;not null" json:"member_id"`
	TherapyID      int64     `gorm:"index;not null" json:"therapy_id"`
	StaffID        *int64    `json:"staff_id"`
	StoreID        int64     `gorm:"index" json:"store_id"`
	RecordDate     time.Time `gorm:"index" json:"record_date"`
	DeductSessions int       `gorm:"default:1" json:"deduct_sessions"`
	Note           string    `gorm:"size:500" json:"note"`
}

func (TherapyRecord) TableName() string { return "therapy_records" }
