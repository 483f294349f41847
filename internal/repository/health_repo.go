package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// HealthRepository 健康档案仓储
type HealthRepository interface {
	// 病史档案
	CreateMedicalRecord(ctx context.Context, record *model.MedicalRecord) error
	GetMedicalRecord(ctx context.Context, id int64) (*model.MedicalRecord, error)
	UpdateMedicalRecord(ctx context.Context, record *model.MedicalRecord) error
	DeleteMedicalRecord(ctx context.Context, id int64) error
	ListMedicalRecords(ctx context.Context, memberID int64, page, pageSize int) ([]model.MedicalRecord, int64, error)

	// 纯净健康记录
	CreatePureHealthRecord(ctx context.Context, record *model.PureHealthRecord) error
	ListPureHealthRecords(ctx context.Context, memberID int64, page, pageSize int) ([]model.PureHealthRecord, int64, error)
	DeletePureHealthRecord(ctx context.Context, id int64) error

	// 压力测试
	CreateStressTest(ctx context.Context, test *model.StressTest) error
	ListStressTests(ctx context.Context, memberID int64) ([]model.StressTest, error)

	// 疗程消耗记录
	CreateTherapyRecord(ctx context.Context, record *model.TherapyRecord) error
	ListTherapyRecords(ctx context.Context, memberID int64) ([]model.TherapyRecord, error)

	WithTx(tx *gorm.DB) HealthRepository
}

// ==================== 仓储实现 ====================

type healthRepo struct {
	db *gorm.DB
}

// NewHealthRepository 创建健康档案仓储
func NewHealthRepository(db *gorm.DB) HealthRepository {
	return &healthRepo{db: db}
}

func (r *healthRepo) CreateMedicalRecord(ctx context.Context, record *model.MedicalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *healthRepo) GetMedicalRecord(ctx context.Context, id int64) (*model.MedicalRecord, error) {
	var record model.MedicalRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *healthRepo) UpdateMedicalRecord(ctx context.Context, record *model.MedicalRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *healthRepo) DeleteMedicalRecord(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.MedicalRecord{}, id).Error
}

func (r *healthRepo) ListMedicalRecords(ctx context.Context, memberID int64, page, pageSize int) ([]model.MedicalRecord, int64, error) {
	return listByMember[model.MedicalRecord](r.db.WithContext(ctx), memberID, page, pageSize, "record_date DESC, id DESC")
}

func (r *healthRepo) CreatePureHealthRecord(ctx context.Context, record *model.PureHealthRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *healthRepo) ListPureHealthRecords(ctx context.Context, memberID int64, page, pageSize int) ([]model.PureHealthRecord, int64, error) {
	return listByMember[model.PureHealthRecord](r.db.WithContext(ctx), memberID, page, pageSize, "record_date DESC, id DESC")
}

func (r *healthRepo) DeletePureHealthRecord(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.PureHealthRecord{}, id).Error
}

func (r *healthRepo) CreateStressTest(ctx context.Context, test *model.StressTest) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *healthRepo) ListStressTests(ctx context.Context, memberID int64) ([]model.StressTest, error) {
	var tests []model.StressTest
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("test_date DESC, id DESC").
		Find(&tests).Error
	return tests, err
}

func (r *healthRepo) CreateTherapyRecord(ctx context.Context, record *model.TherapyRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *healthRepo) ListTherapyRecords(ctx context.Context, memberID int64) ([]model.TherapyRecord, error) {
	var records []model.TherapyRecord
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("record_date DESC, id DESC").
		Find(&records).Error
	return records, err
}

func (r *healthRepo) WithTx(tx *gorm.DB) HealthRepository {
	return &healthRepo{db: tx}
}

// listByMember 按会员分页查询的公共实现
func listByMember[T any](db *gorm.DB, memberID int64, page, pageSize int, order string) ([]T, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	var zero T
	query := db.Model(&zero).Where("member_id = ?", memberID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []T
	err := query.Order(order).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error
	return rows, total, err
}
