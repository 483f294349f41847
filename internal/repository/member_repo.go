package repository

import (
	"context"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/model"
)

// ==================== 接口定义 ====================

// MemberRepository 会员/员工/门店仓储
type MemberRepository interface {
	// 会员
	CreateMember(ctx context.Context, member *model.Member) error
	GetMember(ctx context.Context, id int64) (*model.Member, error)
	UpdateMember(ctx context.Context, member *model.Member) error
	DeleteMember(ctx context.Context, id int64) error
	ListMembers(ctx context.Context, storeID int64, keyword string, page, pageSize int) ([]model.Member, int64, error)

	// 员工
	GetStaff(ctx context.Context, id int64) (*model.Staff, error)
	GetStaffByUsername(ctx context.Context, username string) (*model.Staff, error)
	CreateStaff(ctx context.Context, staff *model.Staff) error

	// 门店
	GetStore(ctx context.Context, id int64) (*model.Store, error)
	ListStores(ctx context.Context) ([]model.Store, error)

	WithTx(tx *gorm.DB) MemberRepository
}

// ==================== 仓储实现 ====================

type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepository 创建会员仓储
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) CreateMember(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepo) GetMember(ctx context.Context, id int64) (*model.Member, error) {
	var member model.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepo) UpdateMember(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Save(member).Error
}

func (r *memberRepo) DeleteMember(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Member{}, id).Error
}

func (r *memberRepo) ListMembers(ctx context.Context, storeID int64, keyword string, page, pageSize int) ([]model.Member, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).Model(&model.Member{})
	if storeID > 0 {
		query = query.Where("store_id = ?", storeID)
	}
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR phone LIKE ?", kw, kw)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []model.Member
	err := query.Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&members).Error
	return members, total, err
}

func (r *memberRepo) GetStaff(ctx context.Context, id int64) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.WithContext(ctx).First(&staff, id).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *memberRepo) GetStaffByUsername(ctx context.Context, username string) (*model.Staff, error) {
	var staff model.Staff
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&staff).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *memberRepo) CreateStaff(ctx context.Context, staff *model.Staff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *memberRepo) GetStore(ctx context.Context, id int64) (*model.Store, error) {
	var store model.Store
	if err := r.db.WithContext(ctx).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *memberRepo) ListStores(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).Order("id ASC").Find(&stores).Error
	return stores, err
}

func (r *memberRepo) WithTx(tx *gorm.DB) MemberRepository {
	return &memberRepo{db: tx}
}
