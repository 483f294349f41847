package service

import (
	"context"
	"math"
	"strings"
	"testing"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/repository"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCreateOrderTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.order.CreateOrder(ctx, OrderInput{
		StoreID:       1,
		TotalDiscount: 15.5,
		Items: []OrderItemInput{
			{ProductID: int64Ptr(1), ItemDescription: "按摩膏", UnitPrice: 39.9, Quantity: 3},
			{TherapyID: int64Ptr(2), ItemDescription: "肩颈理疗", UnitPrice: 120, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("建单失败: %v", err)
	}

	// 39.9*3 + 120*2 = 359.70
	if order.Subtotal != 359.7 {
		t.Errorf("小计 = %v, 期望 359.7", order.Subtotal)
	}
	if math.Abs(order.GrandTotal-(order.Subtotal-order.TotalDiscount)) > 0.01 {
		t.Errorf("应收 = %v, 小计 %v − 折扣 %v 不符", order.GrandTotal, order.Subtotal, order.TotalDiscount)
	}
	if !strings.HasPrefix(order.OrderNumber, "SO-") {
		t.Errorf("自动单号 = %q", order.OrderNumber)
	}
	if len(order.Items) != 2 {
		t.Fatalf("明细行数 = %d", len(order.Items))
	}
	if order.Items[0].Subtotal != 119.7 {
		t.Errorf("首行小计 = %v, 期望 119.7", order.Items[0].Subtotal)
	}
}

func TestCreateOrderItemValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		items []OrderItemInput
	}{
		{"空明细", nil},
		{"数量非正", []OrderItemInput{{ProductID: int64Ptr(1), Quantity: 0}}},
		{"商品疗程同时给", []OrderItemInput{{ProductID: int64Ptr(1), TherapyID: int64Ptr(2), Quantity: 1}}},
		{"商品疗程都不给", []OrderItemInput{{Quantity: 1}}},
		{"套组引用又带商品", []OrderItemInput{{BundleID: 3, ProductID: int64Ptr(1), Quantity: 1}}},
	}
	for _, c := range cases {
		_, err := env.order.CreateOrder(ctx, OrderInput{StoreID: 1, Items: c.items})
		if errs.KindOf(err) != errs.KindValidation {
			t.Errorf("%s: 期望参数错误, got %v", c.name, err)
		}
	}
}

func TestCreateOrderBundleReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.order.CreateOrder(ctx, OrderInput{
		StoreID: 1,
		Items: []OrderItemInput{
			{BundleID: 7, ItemDescription: "水乳套组", UnitPrice: 80, Quantity: 1, Note: "赠品装"},
		},
	})
	if err != nil {
		t.Fatalf("建单失败: %v", err)
	}
	item := order.Items[0]
	if item.ProductID != nil || item.TherapyID != nil {
		t.Errorf("套组引用行不应落具体 ID: %+v", item)
	}
	if id, ok := ParseBundleID(item.Note); !ok || id != 7 {
		t.Errorf("备注缺少套组标签: %q", item.Note)
	}
}

func TestUpdateOrderReplacesItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.order.CreateOrder(ctx, OrderInput{
		StoreID: 1,
		Items: []OrderItemInput{
			{ProductID: int64Ptr(1), UnitPrice: 100, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("建单失败: %v", err)
	}

	updated, err := env.order.UpdateOrder(ctx, order.ID, OrderInput{
		TotalDiscount: 10,
		Items: []OrderItemInput{
			{ProductID: int64Ptr(1), UnitPrice: 100, Quantity: 2},
			{TherapyID: int64Ptr(2), UnitPrice: 50, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("改单失败: %v", err)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("整单替换后明细行数 = %d", len(updated.Items))
	}
	if updated.Subtotal != 250 || updated.GrandTotal != 240 {
		t.Errorf("金额 = %v/%v, 期望 250/240", updated.Subtotal, updated.GrandTotal)
	}

	if _, err := env.order.UpdateOrder(ctx, 99999, OrderInput{
		Items: []OrderItemInput{{ProductID: int64Ptr(1), UnitPrice: 1, Quantity: 1}},
	}); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("改不存在的单应返回 NotFound, got %v", err)
	}
}

func TestDeleteOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.order.CreateOrder(ctx, OrderInput{
		StoreID: 1,
		Items:   []OrderItemInput{{ProductID: int64Ptr(1), UnitPrice: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("建单失败: %v", err)
	}

	if err := env.order.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("删单失败: %v", err)
	}
	if _, err := env.order.GetOrder(ctx, order.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("删除后仍可查到销售单: %v", err)
	}

	_, total, err := env.order.ListOrders(ctx, repository.OrderFilter{})
	if err != nil {
		t.Fatalf("查列表失败: %v", err)
	}
	if total != 0 {
		t.Errorf("删除后列表仍有 %d 单", total)
	}
}
