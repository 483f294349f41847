package service

import (
	"context"
	"testing"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/repository"
)

func TestReceiveAndShipKeepsLedgerInvariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "STK0101", "益生菌粉", 200, 80)
	env.receiveStock(t, product.ID, 10, 1)

	result, err := env.stock.Ship(ctx, product.ID, 3, 1, 0, "SH-001", "")
	if err != nil {
		t.Fatalf("出库失败: %v", err)
	}
	if result.OnHand != 7 {
		t.Errorf("出库后在库数 = %d, 期望 7", result.OnHand)
	}

	onHand, err := env.stock.OnHandByVariant(ctx, product.ID, 1)
	if err != nil {
		t.Fatalf("查在库数失败: %v", err)
	}
	if onHand != 7 {
		t.Errorf("在库数 = %d, 期望 7", onHand)
	}

	// 在库数始终等于流水净和
	sum, err := env.stockRepo.SumTransactions(ctx, result.InventoryItemID, 1, env.stock.StoreScoped())
	if err != nil {
		t.Fatalf("汇总流水失败: %v", err)
	}
	if sum != onHand {
		t.Errorf("流水净和 = %d, 在库数 = %d, 应相等", sum, onHand)
	}

	txns, total, err := env.stock.ListTransactions(ctx, repository.TxnFilter{
		InventoryItemID: result.InventoryItemID,
	})
	if err != nil {
		t.Fatalf("查流水失败: %v", err)
	}
	if total != 2 || len(txns) != 2 {
		t.Fatalf("流水条数 = %d/%d, 期望 2", len(txns), total)
	}
}

func TestShipInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "STK0201", "酵素原液", 300, 120)
	env.receiveStock(t, product.ID, 2, 1)

	_, err := env.stock.Ship(ctx, product.ID, 5, 1, 0, "", "")
	if errs.KindOf(err) != errs.KindInsufficientStock {
		t.Fatalf("超量出库应返回库存不足, got %v", err)
	}

	// 失败的出库不得留下任何变化
	onHand, err := env.stock.OnHandByVariant(ctx, product.ID, 1)
	if err != nil {
		t.Fatalf("查在库数失败: %v", err)
	}
	if onHand != 2 {
		t.Errorf("失败出库后在库数 = %d, 期望 2", onHand)
	}

	// 从未入库过的商品直接出库同样失败
	other := env.createProduct(t, "STK0202", "酵素粉剂", 300, 120)
	if _, err := env.stock.Ship(ctx, other.ID, 1, 1, 0, "", ""); errs.KindOf(err) != errs.KindInsufficientStock {
		t.Errorf("零库存出库应返回库存不足, got %v", err)
	}
}

func TestReceiveValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.stock.Receive(ctx, ReceiveInput{Quantity: 0, VariantID: 1}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("数量为 0 应返回参数错误, got %v", err)
	}
	if _, err := env.stock.Receive(ctx, ReceiveInput{Quantity: 5}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("缺少目标 ID 应返回参数错误, got %v", err)
	}
	if _, err := env.stock.Receive(ctx, ReceiveInput{Quantity: 5, VariantID: 99999}); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("变体不存在应返回 NotFound, got %v", err)
	}
}

func TestReceivePrefixBundle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 短编码的库存单元前缀能罩住长编码的族成员，整族入库各记一笔
	p1 := env.createProduct(t, "STK3", "海藻面膜", 100, 40)
	env.createProduct(t, "STK3A01", "海藻面膜", 100, 40)

	results, err := env.stock.Receive(ctx, ReceiveInput{
		VariantID:         p1.ID,
		Quantity:          6,
		StoreID:           1,
		ApplyPrefixBundle: true,
	})
	if err != nil {
		t.Fatalf("整族入库失败: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("入库结果数 = %d, 期望整族 2 个库存单元", len(results))
	}
	for _, r := range results {
		if r.OnHand != 6 {
			t.Errorf("库存单元 %d 在库数 = %d, 期望 6", r.InventoryItemID, r.OnHand)
		}
	}
}

func TestAdjustAllowsNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "STK0401", "草本贴", 50, 20)
	item, _, err := env.master.ResolveInventoryItemByVariant(ctx, product.ID)
	if err != nil {
		t.Fatalf("解析库存单元失败: %v", err)
	}

	result, err := env.stock.Adjust(ctx, item.ID, -3, 1, 0, "ADJ-001", "盘亏")
	if err != nil {
		t.Fatalf("负向调整失败: %v", err)
	}
	if result.OnHand != -3 {
		t.Errorf("调整后在库数 = %d, 期望 -3", result.OnHand)
	}

	if _, err := env.stock.Adjust(ctx, item.ID, 0, 1, 0, "", ""); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("零调整应返回参数错误, got %v", err)
	}
}

func TestSummaryAndLowStocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p1 := env.createProduct(t, "STK0501", "葡萄籽胶囊", 150, 60)
	p2 := env.createProduct(t, "STK0601", "鱼油胶囊", 180, 70)
	env.receiveStock(t, p1.ID, 3, 1)
	env.receiveStock(t, p2.ID, 20, 1)

	rows, err := env.stock.Summary(ctx, 1, "")
	if err != nil {
		t.Fatalf("在库汇总失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("汇总行数 = %d, 期望 2", len(rows))
	}

	rows, err = env.stock.Summary(ctx, 1, "葡萄籽")
	if err != nil {
		t.Fatalf("关键字汇总失败: %v", err)
	}
	if len(rows) != 1 || rows[0].OnHand != 3 {
		t.Fatalf("关键字过滤结果不符: %+v", rows)
	}

	low, err := env.stock.LowStocks(ctx, 5)
	if err != nil {
		t.Fatalf("低库存查询失败: %v", err)
	}
	if len(low) != 1 || low[0].QuantityOnHand != 3 {
		t.Fatalf("低库存行不符: %+v", low)
	}
}
