package service

import (
	"context"
	"time"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

// ==================== 价格解析 ====================

// PriceResolver 会员价格解析
// 在身份生效、日期生效、门店范围匹配的价格本条目里，
// 按 (价格本 priority 升序, 条目 min_quantity 降序, 条目 id 升序) 取每个条目的头名。
// 没有命中返回空映射，调用方回退默认档位价，再回退牌价。
type PriceResolver struct {
	bookRepo repository.PriceBookRepository
}

// NewPriceResolver 创建价格解析器
func NewPriceResolver(bookRepo repository.PriceBookRepository) *PriceResolver {
	return &PriceResolver{bookRepo: bookRepo}
}

// ResolvedPrice 解析结果
type ResolvedPrice struct {
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	BookID     int64   `json:"book_id"`
	BookItemID int64   `json:"book_item_id"`
}

// Resolve 批量解析 item_id → 最优价，未命中的条目不出现在结果里
func (r *PriceResolver) Resolve(ctx context.Context, itemType string, itemIDs []int64,
	identityType string, storeID int64, quantity int) (map[int64]ResolvedPrice, error) {
	result := make(map[int64]ResolvedPrice)
	if identityType == "" || len(itemIDs) == 0 {
		return result, nil
	}

	switch itemType {
	case model.OwnerTypeProduct, model.OwnerTypeTherapy,
		model.OwnerTypeProductBundle, model.OwnerTypeTherapyBundle:
	default:
		return nil, errs.Validation("未知的条目类型: %s", itemType)
	}

	candidates, err := r.bookRepo.FindCandidateItems(ctx, repository.CandidateQuery{
		ItemType:     itemType,
		ItemIDs:      itemIDs,
		IdentityType: identityType,
		StoreID:      storeID,
		Quantity:     quantity,
		Today:        time.Now(),
	})
	if err != nil {
		return nil, err
	}

	// 候选已按排序规则返回，每个条目取第一行
	for _, c := range candidates {
		if _, seen := result[c.ItemID]; seen {
			continue
		}
		result[c.ItemID] = ResolvedPrice{
			Price:      c.Price,
			Currency:   c.Currency,
			BookID:     c.BookID,
			BookItemID: c.BookItemID,
		}
	}
	return result, nil
}

// ResolveOne 单条解析，未命中返回 (nil, nil)
func (r *PriceResolver) ResolveOne(ctx context.Context, itemType string, itemID int64,
	identityType string, storeID int64, quantity int) (*ResolvedPrice, error) {
	prices, err := r.Resolve(ctx, itemType, []int64{itemID}, identityType, storeID, quantity)
	if err != nil {
		return nil, err
	}
	if p, ok := prices[itemID]; ok {
		return &p, nil
	}
	return nil, nil
}
