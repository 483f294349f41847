package service

import (
	"context"
	"testing"
	"time"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
)

func intPtr(v int) *int { return &v }

// createBook 建一个生效中的价格本并挂上条目
func (env *testEnv) createBook(t *testing.T, name, identity string, priority int,
	storeIDs []int64, items []model.MemberPriceBookItem) *model.MemberPriceBook {
	t.Helper()
	now := time.Now()
	book, err := env.books.CreateBook(context.Background(), BookInput{
		Name:         name,
		IdentityType: identity,
		Priority:     intPtr(priority),
		ValidFrom:    now.AddDate(0, 0, -1),
		ValidTo:      now.AddDate(0, 0, 30),
		StoreIDs:     storeIDs,
	})
	if err != nil {
		t.Fatalf("创建价格本 %s 失败: %v", name, err)
	}
	if len(items) > 0 {
		if err := env.books.ReplaceItems(context.Background(), book.ID, items); err != nil {
			t.Fatalf("挂条目失败: %v", err)
		}
	}
	return book
}

func TestResolvePriorityOrdering(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const itemID = int64(101)
	env.createBook(t, "会员普价", model.IdentityMember, 10, nil, []model.MemberPriceBookItem{
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 90},
	})
	winner := env.createBook(t, "会员特价", model.IdentityMember, 5, nil, []model.MemberPriceBookItem{
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 80},
	})

	resolved, err := env.resolver.ResolveOne(ctx, model.OwnerTypeProduct, itemID, model.IdentityMember, 0, 1)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if resolved == nil {
		t.Fatal("应命中价格本")
	}
	if resolved.Price != 80 || resolved.BookID != winner.ID {
		t.Errorf("命中 = %+v, 期望优先级更高的 80 元本", resolved)
	}
}

func TestResolveMinQuantityTiers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const itemID = int64(202)
	env.createBook(t, "量价本", model.IdentityMember, 10, nil, []model.MemberPriceBookItem{
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 90, MinQuantity: 0},
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 70, MinQuantity: 10},
	})

	// 数量达到门槛时取更深的量价档
	resolved, err := env.resolver.ResolveOne(ctx, model.OwnerTypeProduct, itemID, model.IdentityMember, 0, 12)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if resolved == nil || resolved.Price != 70 {
		t.Errorf("数量 12 命中 = %+v, 期望 70", resolved)
	}

	resolved, err = env.resolver.ResolveOne(ctx, model.OwnerTypeProduct, itemID, model.IdentityMember, 0, 5)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if resolved == nil || resolved.Price != 90 {
		t.Errorf("数量 5 命中 = %+v, 期望 90", resolved)
	}
}

func TestResolveDateAndIdentityFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const itemID = int64(303)
	// 已过期的本
	now := time.Now()
	expired, err := env.books.CreateBook(ctx, BookInput{
		Name:         "过期本",
		IdentityType: model.IdentityMember,
		ValidFrom:    now.AddDate(0, -2, 0),
		ValidTo:      now.AddDate(0, -1, 0),
	})
	if err != nil {
		t.Fatalf("创建价格本失败: %v", err)
	}
	if err := env.books.ReplaceItems(ctx, expired.ID, []model.MemberPriceBookItem{
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 50},
	}); err != nil {
		t.Fatalf("挂条目失败: %v", err)
	}
	// 身份不符的本
	env.createBook(t, "直营店价", model.IdentityDirectStore, 5, nil, []model.MemberPriceBookItem{
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 60},
	})

	resolved, err := env.resolver.ResolveOne(ctx, model.OwnerTypeProduct, itemID, model.IdentityMember, 0, 1)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if resolved != nil {
		t.Errorf("过期/身份不符的本不应命中: %+v", resolved)
	}
}

func TestResolveStoreScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const itemID = int64(404)
	env.createBook(t, "二号店专享", model.IdentityMember, 5, []int64{2}, []model.MemberPriceBookItem{
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 66},
	})
	env.createBook(t, "全局价", model.IdentityMember, 10, nil, []model.MemberPriceBookItem{
		{ItemType: model.OwnerTypeProduct, ItemID: itemID, Price: 88},
	})

	// 一号店只看得到全局本
	resolved, err := env.resolver.ResolveOne(ctx, model.OwnerTypeProduct, itemID, model.IdentityMember, 1, 1)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if resolved == nil || resolved.Price != 88 {
		t.Errorf("一号店命中 = %+v, 期望全局价 88", resolved)
	}

	// 二号店命中专享本（优先级更高）
	resolved, err = env.resolver.ResolveOne(ctx, model.OwnerTypeProduct, itemID, model.IdentityMember, 2, 1)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if resolved == nil || resolved.Price != 66 {
		t.Errorf("二号店命中 = %+v, 期望专享价 66", resolved)
	}
}

func TestResolveEdgeInputs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 空身份直接返回空映射
	prices, err := env.resolver.Resolve(ctx, model.OwnerTypeProduct, []int64{1}, "", 0, 1)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("空身份应返回空映射: %+v", prices)
	}

	if _, err := env.resolver.Resolve(ctx, "COUPON", []int64{1}, model.IdentityMember, 0, 1); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("未知条目类型应返回参数错误, got %v", err)
	}
}

func TestPriceBookValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.books.CreateBook(ctx, BookInput{Name: "", IdentityType: model.IdentityMember}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("空名称应返回参数错误, got %v", err)
	}
	if _, err := env.books.CreateBook(ctx, BookInput{Name: "x", IdentityType: "ALIEN"}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("未知身份应返回参数错误, got %v", err)
	}
	now := time.Now()
	if _, err := env.books.CreateBook(ctx, BookInput{
		Name: "x", IdentityType: model.IdentityMember,
		ValidFrom: now, ValidTo: now.AddDate(0, 0, -1),
	}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("区间倒置应返回参数错误, got %v", err)
	}

	book := env.createBook(t, "条目校验本", model.IdentityMember, 5, nil, nil)
	err := env.books.ReplaceItems(ctx, book.ID, []model.MemberPriceBookItem{
		{ItemType: "COUPON", ItemID: 1, Price: 10},
	})
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("非法条目类型应返回参数错误, got %v", err)
	}
}
