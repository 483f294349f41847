package service

import (
	"context"
	"strings"
	"testing"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

func TestPostProductSell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "SEL0101", "燕窝饮", 150, 60)
	env.receiveStock(t, product.ID, 10, 1)

	sell, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID,
		StoreID:   1,
		Quantity:  2,
		Discount:  20,
	})
	if err != nil {
		t.Fatalf("过账失败: %v", err)
	}
	if sell.FinalPrice != 280 {
		t.Errorf("成交价 = %v, 期望 150*2-20 = 280", sell.FinalPrice)
	}
	if sell.ProductName != "燕窝饮" {
		t.Errorf("名字快照 = %q", sell.ProductName)
	}
	if sell.StockOut != -2 {
		t.Errorf("出库量 = %d, 期望 -2", sell.StockOut)
	}

	onHand, err := env.stock.OnHandByVariant(ctx, product.ID, 1)
	if err != nil {
		t.Fatalf("查在库数失败: %v", err)
	}
	if onHand != 8 {
		t.Errorf("过账后在库数 = %d, 期望 8", onHand)
	}
}

func TestPostProductSellUnpublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "SEL0201", "停售饮品", 100, 40)
	if err := env.catalog.SetPublishStatus(ctx, model.OwnerTypeProduct, product.ID, false, "停产"); err != nil {
		t.Fatalf("下架失败: %v", err)
	}

	_, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID, StoreID: 1, Quantity: 1,
	})
	if errs.KindOf(err) != errs.KindUnpublished {
		t.Fatalf("下架商品过账应被拒绝, got %v", err)
	}
}

func TestPostProductSellInsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "SEL0301", "草本茶", 100, 40)
	env.receiveStock(t, product.ID, 1, 1)

	_, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID, StoreID: 1, Quantity: 3,
	})
	if errs.KindOf(err) != errs.KindInsufficientStock {
		t.Fatalf("超库存过账应失败, got %v", err)
	}

	// 销售行必须随事务一起回滚
	_, total, err := env.sell.ListProductSells(ctx, repository.SellFilter{})
	if err != nil {
		t.Fatalf("查销售列表失败: %v", err)
	}
	if total != 0 {
		t.Errorf("失败过账留下了 %d 条销售行", total)
	}
}

func TestPostProductBundleSellAllocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pa := env.createProduct(t, "BND0101", "精华液", 60, 20)
	pb := env.createProduct(t, "BND0201", "面霜", 40, 15)
	env.receiveStock(t, pa.ID, 10, 1)
	env.receiveStock(t, pb.ID, 10, 1)

	bundle := &model.ProductBundle{Code: "BNDSET01", Name: "水乳套组", SellingPrice: 80}
	items := []model.BundleItem{
		{ItemID: pa.ID, ItemType: model.OwnerTypeProduct, Quantity: 1},
		{ItemID: pb.ID, ItemType: model.OwnerTypeProduct, Quantity: 1},
	}
	if err := env.bundle.CreateProductBundle(ctx, bundle, items, nil); err != nil {
		t.Fatalf("创建套组失败: %v", err)
	}

	sells, err := env.sell.PostProductBundleSell(ctx, BundleSellInput{
		BundleID:   bundle.ID,
		BundleQty:  1,
		StoreID:    1,
		FinalPrice: 80,
	})
	if err != nil {
		t.Fatalf("套组过账失败: %v", err)
	}
	if len(sells) != 2 {
		t.Fatalf("组件行数 = %d, 期望 2", len(sells))
	}

	// 牌价 60+40=100，客付 80: 按占比分摊 48/32，折扣 12/8，末项找差
	if sells[0].FinalPrice != 48 || sells[1].FinalPrice != 32 {
		t.Errorf("分摊成交价 = %v/%v, 期望 48/32", sells[0].FinalPrice, sells[1].FinalPrice)
	}
	if sells[0].Discount != 12 || sells[1].Discount != 8 {
		t.Errorf("分摊折扣 = %v/%v, 期望 12/8", sells[0].Discount, sells[1].Discount)
	}

	// 组件行共享 order_reference，备注里埋套组标签
	if sells[0].OrderReference == "" || sells[0].OrderReference != sells[1].OrderReference {
		t.Errorf("组件行 order_reference 不一致: %q / %q", sells[0].OrderReference, sells[1].OrderReference)
	}
	if !strings.HasPrefix(sells[0].OrderReference, "bundle-") {
		t.Errorf("order_reference = %q", sells[0].OrderReference)
	}
	for _, s := range sells {
		if id, ok := ParseBundleID(s.Note); !ok || id != bundle.ID {
			t.Errorf("备注缺少套组标签: %q", s.Note)
		}
	}

	// 每个组件各出库一件
	for _, p := range []*model.Product{pa, pb} {
		onHand, err := env.stock.OnHandByVariant(ctx, p.ID, 1)
		if err != nil {
			t.Fatalf("查在库数失败: %v", err)
		}
		if onHand != 9 {
			t.Errorf("%s 在库数 = %d, 期望 9", p.Code, onHand)
		}
	}
}

func TestPostProductBundleSellRollsBackOnShortage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pa := env.createProduct(t, "BND0301", "洁面乳", 60, 20)
	pb := env.createProduct(t, "BND0401", "爽肤水", 40, 15)
	env.receiveStock(t, pa.ID, 5, 1)
	// pb 不入库

	bundle := &model.ProductBundle{Code: "BNDSET02", Name: "缺货套组"}
	items := []model.BundleItem{
		{ItemID: pa.ID, ItemType: model.OwnerTypeProduct, Quantity: 1},
		{ItemID: pb.ID, ItemType: model.OwnerTypeProduct, Quantity: 1},
	}
	if err := env.bundle.CreateProductBundle(ctx, bundle, items, nil); err != nil {
		t.Fatalf("创建套组失败: %v", err)
	}

	_, err := env.sell.PostProductBundleSell(ctx, BundleSellInput{
		BundleID: bundle.ID, StoreID: 1, FinalPrice: 80,
	})
	if errs.KindOf(err) != errs.KindInsufficientStock {
		t.Fatalf("组件缺货应整体失败, got %v", err)
	}

	// 不存在部分过账: 第一个组件的出库也要回滚
	onHand, err := env.stock.OnHandByVariant(ctx, pa.ID, 1)
	if err != nil {
		t.Fatalf("查在库数失败: %v", err)
	}
	if onHand != 5 {
		t.Errorf("回滚后在库数 = %d, 期望 5", onHand)
	}
	_, total, err := env.sell.ListProductSells(ctx, repository.SellFilter{})
	if err != nil {
		t.Fatalf("查销售列表失败: %v", err)
	}
	if total != 0 {
		t.Errorf("失败过账留下了 %d 条销售行", total)
	}
}

func TestUpdateProductSellAdjustsStockAndPreservesTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "SEL0401", "胶原软糖", 100, 40)
	env.receiveStock(t, product.ID, 10, 1)

	sell, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID,
		StoreID:   1,
		Quantity:  2,
		Note:      "首单 " + BundleTag(9),
	})
	if err != nil {
		t.Fatalf("过账失败: %v", err)
	}

	updated, err := env.sell.UpdateProductSell(ctx, sell.ID, ProductSellInput{
		Quantity: 5,
		Note:     "改数量",
	})
	if err != nil {
		t.Fatalf("编辑失败: %v", err)
	}
	if updated.Quantity != 5 || updated.StockOut != -5 {
		t.Errorf("编辑后数量 = %d/%d", updated.Quantity, updated.StockOut)
	}
	// 回冲 +2 再出 -5
	onHand, err := env.stock.OnHandByVariant(ctx, product.ID, 1)
	if err != nil {
		t.Fatalf("查在库数失败: %v", err)
	}
	if onHand != 5 {
		t.Errorf("编辑后在库数 = %d, 期望 5", onHand)
	}
	// 标签不随编辑丢失
	if id, ok := ParseBundleID(updated.Note); !ok || id != 9 {
		t.Errorf("标签丢失: %q", updated.Note)
	}
	if got := StripTags(updated.Note); got != "改数量" {
		t.Errorf("用户备注 = %q", got)
	}
}

func TestDeleteProductSellRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "SEL0501", "氨基酸洗发水", 90, 30)
	env.receiveStock(t, product.ID, 10, 1)

	sell, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID, StoreID: 1, Quantity: 3,
	})
	if err != nil {
		t.Fatalf("过账失败: %v", err)
	}

	if err := env.sell.DeleteProductSell(ctx, sell.ID, 0); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if _, err := env.sell.GetProductSell(ctx, sell.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("删除后仍可查到销售行: %v", err)
	}

	onHand, err := env.stock.OnHandByVariant(ctx, product.ID, 1)
	if err != nil {
		t.Fatalf("查在库数失败: %v", err)
	}
	if onHand != 10 {
		t.Errorf("删除回冲后在库数 = %d, 期望 10", onHand)
	}
}

func TestPostTherapySellAndRemainingSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	therapy := env.createTherapy(t, "THP0101", "肩颈理疗", 100)
	member := env.createMember(t, "王女士", 1)

	sell, err := env.sell.PostTherapySell(ctx, TherapySellInput{
		TherapyID: therapy.ID,
		MemberID:  member.ID,
		StoreID:   1,
		Amount:    5,
	})
	if err != nil {
		t.Fatalf("疗程过账失败: %v", err)
	}
	if sell.FinalPrice != 500 {
		t.Errorf("成交价 = %v, 期望 500", sell.FinalPrice)
	}

	rows, err := env.sell.RemainingSessions(ctx, member.ID)
	if err != nil {
		t.Fatalf("查剩余次数失败: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("剩余次数行数 = %d", len(rows))
	}
	if rows[0].Purchased != 5 || rows[0].Deducted != 0 || rows[0].Remaining != 5 {
		t.Errorf("剩余次数 = %+v", rows[0])
	}
}

func TestPostTherapyBundleSellEmptyComponents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bundle := &model.TherapyBundle{Code: "THPSET01", Name: "空组件套组", SellingPrice: 300}
	if err := env.bundle.CreateTherapyBundle(ctx, bundle, nil, nil); err != nil {
		t.Fatalf("创建套组失败: %v", err)
	}

	sells, err := env.sell.PostTherapyBundleSell(ctx, BundleSellInput{
		BundleID:   bundle.ID,
		BundleQty:  2,
		StoreID:    1,
		FinalPrice: 300,
	})
	if err != nil {
		t.Fatalf("过账失败: %v", err)
	}
	if len(sells) != 1 {
		t.Fatalf("占位行数 = %d, 期望 1", len(sells))
	}
	if sells[0].TherapyName != "空组件套组" || sells[0].Amount != 2 {
		t.Errorf("占位行 = %+v", sells[0])
	}
	if id, ok := ParseBundleID(sells[0].Note); !ok || id != bundle.ID {
		t.Errorf("占位行缺少套组标签: %q", sells[0].Note)
	}
}
