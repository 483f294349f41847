package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/pkg/utils"
)

// ==================== 销售单服务 ====================

// OrderService 销售单头 + 明细行
// 金额不变量: grand_total == subtotal − total_discount，
// subtotal == Σ items.subtotal，两处校验都容忍 0.01 以内的浮点误差
type OrderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
}

// NewOrderService 创建销售单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{db: db, orderRepo: orderRepo}
}

// OrderInput 建单/改单入参
type OrderInput struct {
	OrderNumber   string
	OrderDate     time.Time
	MemberID      *int64
	StaffID       *int64
	StoreID       int64
	TotalDiscount float64
	SaleCategory  string
	Note          string
	Items         []OrderItemInput
}

// OrderItemInput 明细行入参
// 具体条目 product_id / therapy_id 恰有其一非空；
// 套组引用两个 ID 均留空，note 里带 [bundle:ID]
type OrderItemInput struct {
	ProductID       *int64
	TherapyID       *int64
	BundleID        int64
	ItemDescription string
	ItemType        string
	Unit            string
	UnitPrice       float64
	Quantity        int
	Category        string
	Note            string
}

func (s *OrderService) buildItems(inputs []OrderItemInput) ([]model.SalesOrderItem, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, errs.Validation("销售单至少需要一个明细行")
	}
	items := make([]model.SalesOrderItem, 0, len(inputs))
	var subtotal float64
	for i, in := range inputs {
		if in.Quantity <= 0 {
			return nil, 0, errs.Validation("第 %d 行数量必须为正", i+1)
		}
		note := in.Note
		switch {
		case in.BundleID > 0:
			// 套组引用行: 两个 ID 都不落库，引用编码进备注
			if in.ProductID != nil || in.TherapyID != nil {
				return nil, 0, errs.Validation("第 %d 行套组引用不可同时指定商品或疗程", i+1)
			}
			note = appendBundleTag(note, in.BundleID)
		case in.ProductID != nil && in.TherapyID != nil:
			return nil, 0, errs.Validation("第 %d 行商品与疗程只能择一", i+1)
		case in.ProductID == nil && in.TherapyID == nil:
			return nil, 0, errs.Validation("第 %d 行缺少商品或疗程", i+1)
		}
		lineTotal := utils.Round2(in.UnitPrice * float64(in.Quantity))
		items = append(items, model.SalesOrderItem{
			ProductID:       in.ProductID,
			TherapyID:       in.TherapyID,
			ItemDescription: in.ItemDescription,
			ItemType:        in.ItemType,
			Unit:            in.Unit,
			UnitPrice:       in.UnitPrice,
			Quantity:        in.Quantity,
			Subtotal:        lineTotal,
			Category:        in.Category,
			Note:            note,
		})
		subtotal += lineTotal
	}
	return items, utils.Round2(subtotal), nil
}

// CreateOrder 建单
func (s *OrderService) CreateOrder(ctx context.Context, input OrderInput) (*model.SalesOrder, error) {
	items, subtotal, err := s.buildItems(input.Items)
	if err != nil {
		return nil, err
	}
	orderNumber := input.OrderNumber
	if orderNumber == "" {
		orderNumber = fmt.Sprintf("SO-%s-%s", time.Now().Format("20060102"), uuid.NewString()[:8])
	}
	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	order := &model.SalesOrder{
		OrderNumber:   orderNumber,
		OrderDate:     orderDate,
		MemberID:      input.MemberID,
		StaffID:       input.StaffID,
		StoreID:       input.StoreID,
		Subtotal:      subtotal,
		TotalDiscount: utils.Round2(input.TotalDiscount),
		GrandTotal:    utils.Round2(subtotal - input.TotalDiscount),
		SaleCategory:  input.SaleCategory,
		Note:          input.Note,
		Items:         items,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.Conflict("单号已存在: %s", orderNumber)
		}
		return nil, err
	}
	return order, nil
}

// UpdateOrder 整单替换: 明细删光重建，金额重算
func (s *OrderService) UpdateOrder(ctx context.Context, id int64, input OrderInput) (*model.SalesOrder, error) {
	if _, err := s.orderRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("销售单不存在: %d", id)
		}
		return nil, err
	}

	items, subtotal, err := s.buildItems(input.Items)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.SalesOrderItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = id
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		updates := map[string]interface{}{
			"subtotal":       subtotal,
			"total_discount": utils.Round2(input.TotalDiscount),
			"grand_total":    utils.Round2(subtotal - input.TotalDiscount),
			"sale_category":  input.SaleCategory,
			"note":           input.Note,
		}
		if input.OrderNumber != "" {
			updates["order_number"] = input.OrderNumber
		}
		if !input.OrderDate.IsZero() {
			updates["order_date"] = input.OrderDate
		}
		if input.MemberID != nil {
			updates["member_id"] = input.MemberID
		}
		if input.StaffID != nil {
			updates["staff_id"] = input.StaffID
		}
		if input.StoreID > 0 {
			updates["store_id"] = input.StoreID
		}
		return tx.Model(&model.SalesOrder{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(ctx, id)
}

// DeleteOrder 删单，连同明细
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := s.orderRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("销售单不存在: %d", id)
		}
		return err
	}
	return s.orderRepo.Delete(ctx, id)
}

// GetOrder 单据详情
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*model.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("销售单不存在: %d", id)
		}
		return nil, err
	}
	return order, nil
}

// ListOrders 列表 / 搜索共用
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]model.SalesOrder, int64, error) {
	return s.orderRepo.List(ctx, filter)
}
