package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

// ==================== 价格本管理 ====================

// PriceBookService 价格本后台管理面
type PriceBookService struct {
	bookRepo repository.PriceBookRepository
}

// NewPriceBookService 创建价格本管理服务
func NewPriceBookService(bookRepo repository.PriceBookRepository) *PriceBookService {
	return &PriceBookService{bookRepo: bookRepo}
}

// BookInput 建本/改本入参
type BookInput struct {
	Name         string
	IdentityType string
	ScopeType    string
	Status       string
	Priority     *int
	ValidFrom    time.Time
	ValidTo      time.Time
	StoreIDs     []int64
}

func (in *BookInput) validate() error {
	if in.Name == "" {
		return errs.Validation("价格本名称不能为空")
	}
	if _, ok := model.IdentityPriorities[in.IdentityType]; !ok {
		return errs.Validation("未知的身份类型: %s", in.IdentityType)
	}
	if !in.ValidFrom.IsZero() && !in.ValidTo.IsZero() && in.ValidTo.Before(in.ValidFrom) {
		return errs.Validation("生效区间非法: %s 晚于 %s",
			in.ValidFrom.Format("2006-01-02"), in.ValidTo.Format("2006-01-02"))
	}
	return nil
}

// CreateBook 新建价格本，未给 priority 时按身份默认
func (s *PriceBookService) CreateBook(ctx context.Context, input BookInput) (*model.MemberPriceBook, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	book := &model.MemberPriceBook{
		Name:         input.Name,
		IdentityType: input.IdentityType,
		ScopeType:    input.ScopeType,
		Status:       input.Status,
		ValidFrom:    input.ValidFrom,
		ValidTo:      input.ValidTo,
	}
	if book.ScopeType == "" {
		book.ScopeType = "GLOBAL"
	}
	if book.Status == "" {
		book.Status = model.StatusActive
	}
	if input.Priority != nil {
		book.Priority = *input.Priority
	} else {
		book.Priority = model.IdentityPriority(input.IdentityType)
	}
	if err := s.bookRepo.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	if len(input.StoreIDs) > 0 {
		if err := s.bookRepo.ReplaceBookStores(ctx, book.ID, input.StoreIDs); err != nil {
			return nil, err
		}
	}
	return s.GetBook(ctx, book.ID)
}

// UpdateBook 更新价格本头信息与门店范围
func (s *PriceBookService) UpdateBook(ctx context.Context, id int64, input BookInput) (*model.MemberPriceBook, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	book.Name = input.Name
	book.IdentityType = input.IdentityType
	if input.ScopeType != "" {
		book.ScopeType = input.ScopeType
	}
	if input.Status != "" {
		book.Status = input.Status
	}
	if input.Priority != nil {
		book.Priority = *input.Priority
	}
	if !input.ValidFrom.IsZero() {
		book.ValidFrom = input.ValidFrom
	}
	if !input.ValidTo.IsZero() {
		book.ValidTo = input.ValidTo
	}
	book.Items = nil
	book.Stores = nil
	if err := s.bookRepo.UpdateBook(ctx, book); err != nil {
		return nil, err
	}
	if input.StoreIDs != nil {
		if err := s.bookRepo.ReplaceBookStores(ctx, id, input.StoreIDs); err != nil {
			return nil, err
		}
	}
	return s.GetBook(ctx, id)
}

// GetBook 价格本详情，含条目与门店范围
func (s *PriceBookService) GetBook(ctx context.Context, id int64) (*model.MemberPriceBook, error) {
	book, err := s.bookRepo.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("价格本不存在: %d", id)
		}
		return nil, err
	}
	return book, nil
}

// ListBooks 价格本列表
func (s *PriceBookService) ListBooks(ctx context.Context, identityType string, page, pageSize int) ([]model.MemberPriceBook, int64, error) {
	return s.bookRepo.ListBooks(ctx, identityType, page, pageSize)
}

// ReplaceItems 条目整组替换
func (s *PriceBookService) ReplaceItems(ctx context.Context, bookID int64, items []model.MemberPriceBookItem) error {
	if _, err := s.GetBook(ctx, bookID); err != nil {
		return err
	}
	for i := range items {
		items[i].BookID = bookID
		if items[i].Status == "" {
			items[i].Status = model.StatusActive
		}
		switch items[i].ItemType {
		case model.OwnerTypeProduct, model.OwnerTypeTherapy,
			model.OwnerTypeProductBundle, model.OwnerTypeTherapyBundle:
		default:
			return errs.Validation("条目类型非法: %s", items[i].ItemType)
		}
	}
	return s.bookRepo.ReplaceBookItems(ctx, bookID, items)
}
