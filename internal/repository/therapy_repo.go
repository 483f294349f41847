package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// TherapyRepository 疗程仓储接口
type TherapyRepository interface {
	Create(ctx context.Context, therapy *model.Therapy) error
	GetByID(ctx context.Context, id int64) (*model.Therapy, error)
	GetByCode(ctx context.Context, code string) (*model.Therapy, error)
	Update(ctx context.Context, therapy *model.Therapy) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter CatalogFilter) ([]model.Therapy, int64, error)

	ReplacePriceTiers(ctx context.Context, therapyID int64, tiers []model.PriceTier) error
	GetPriceTiers(ctx context.Context, therapyID int64) ([]model.PriceTier, error)

	WithTx(tx *gorm.DB) TherapyRepository
}

// ==================== 仓储实现 ====================

type therapyRepo struct {
	db *gorm.DB
}

// NewTherapyRepository 创建疗程仓储
func NewTherapyRepository(db *gorm.DB) TherapyRepository {
	return &therapyRepo{db: db}
}

func (r *therapyRepo) Create(ctx context.Context, therapy *model.Therapy) error {
	return r.db.WithContext(ctx).Create(therapy).Error
}

func (r *therapyRepo) GetByID(ctx context.Context, id int64) (*model.Therapy, error) {
	var therapy model.Therapy
	if err := r.db.WithContext(ctx).First(&therapy, id).Error; err != nil {
		return nil, err
	}
	return &therapy, nil
}

func (r *therapyRepo) GetByCode(ctx context.Context, code string) (*model.Therapy, error) {
	var therapy model.Therapy
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&therapy).Error; err != nil {
		return nil, err
	}
	return &therapy, nil
}

func (r *therapyRepo) Update(ctx context.Context, therapy *model.Therapy) error {
	return r.db.WithContext(ctx).Save(therapy).Error
}

func (r *therapyRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Therapy{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *therapyRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Therapy{}, id).Error
}

func (r *therapyRepo) List(ctx context.Context, filter CatalogFilter) ([]model.Therapy, int64, error) {
	filter.Normalize()

	query := r.db.WithContext(ctx).Model(&model.Therapy{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR code LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var therapies []model.Therapy
	err := query.
		Order("id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&therapies).Error
	return therapies, total, err
}

func (r *therapyRepo) ReplacePriceTiers(ctx context.Context, therapyID int64, tiers []model.PriceTier) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("owner_id = ? AND owner_type = ?", therapyID, model.OwnerTypeTherapy).
		Delete(&model.PriceTier{}).Error; err != nil {
		return err
	}
	if len(tiers) == 0 {
		return nil
	}
	for i := range tiers {
		tiers[i].OwnerID = therapyID
		tiers[i].OwnerType = model.OwnerTypeTherapy
	}
	return db.Create(&tiers).Error
}

func (r *therapyRepo) GetPriceTiers(ctx context.Context, therapyID int64) ([]model.PriceTier, error) {
	var tiers []model.PriceTier
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND owner_type = ?", therapyID, model.OwnerTypeTherapy).
		Find(&tiers).Error
	return tiers, err
}

func (r *therapyRepo) WithTx(tx *gorm.DB) TherapyRepository {
	return &therapyRepo{db: tx}
}
