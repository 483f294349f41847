package service

import (
	"context"
	"testing"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
)

func TestManualRecordCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.inventory.AddRecord(ctx, &model.InventoryRecord{Quantity: 1}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("空品名应返回参数错误, got %v", err)
	}
	if err := env.inventory.AddRecord(ctx, &model.InventoryRecord{ProductName: "艾灸贴"}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("零数量应返回参数错误, got %v", err)
	}

	record := &model.InventoryRecord{StoreID: 1, ProductName: "艾灸贴", Quantity: 5, RecordType: "INBOUND"}
	if err := env.inventory.AddRecord(ctx, record); err != nil {
		t.Fatalf("记台账失败: %v", err)
	}
	if record.RecordDate.IsZero() {
		t.Error("记录日期应默认当前时间")
	}

	if err := env.inventory.UpdateRecord(ctx, record.ID, map[string]interface{}{"quantity": 8}); err != nil {
		t.Fatalf("改台账失败: %v", err)
	}
	records, total, err := env.inventory.ListRecords(ctx, 1, "艾灸", 1, 10)
	if err != nil {
		t.Fatalf("查台账失败: %v", err)
	}
	if total != 1 || records[0].Quantity != 8 {
		t.Errorf("台账 = %+v", records)
	}

	if err := env.inventory.DeleteRecord(ctx, record.ID); err != nil {
		t.Fatalf("删台账失败: %v", err)
	}
	if err := env.inventory.DeleteRecord(ctx, record.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("重复删除应返回 NotFound, got %v", err)
	}
}

func TestSyntheticRecordsImmutable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.inventory.UpdateRecord(ctx, SyntheticIDBase+1, map[string]interface{}{"quantity": 1}); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("合成记录更新应被拒绝, got %v", err)
	}
	if err := env.inventory.DeleteRecord(ctx, SyntheticIDBase); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("合成记录删除应被拒绝, got %v", err)
	}
}

func TestHistoryMergesAllSources(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "HIS0101", "酵素果冻", 100, 40)
	env.receiveStock(t, product.ID, 10, 1)

	if _, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID, StoreID: 1, Quantity: 2,
	}); err != nil {
		t.Fatalf("商品过账失败: %v", err)
	}

	therapy := env.createTherapy(t, "HIS0201", "头部舒缓", 80)
	if _, err := env.sell.PostTherapySell(ctx, TherapySellInput{
		TherapyID: therapy.ID, StoreID: 1, Amount: 3,
	}); err != nil {
		t.Fatalf("疗程过账失败: %v", err)
	}

	if err := env.inventory.AddRecord(ctx, &model.InventoryRecord{
		StoreID: 1, ProductName: "纸质耗材", Quantity: -4, RecordType: "OUTBOUND",
	}); err != nil {
		t.Fatalf("记台账失败: %v", err)
	}

	rows, err := env.inventory.History(ctx, 1, "", "", 0)
	if err != nil {
		t.Fatalf("查历史失败: %v", err)
	}

	bySource := map[string][]MovementRow{}
	for _, row := range rows {
		bySource[row.Source] = append(bySource[row.Source], row)
	}

	if len(bySource["MANUAL"]) != 1 || bySource["MANUAL"][0].Quantity != -4 {
		t.Errorf("手工行 = %+v", bySource["MANUAL"])
	}

	sells := bySource["PRODUCT_SELL"]
	if len(sells) != 1 {
		t.Fatalf("销售行数 = %d", len(sells))
	}
	if sells[0].Quantity != -2 || sells[0].Type != "SALE" {
		t.Errorf("销售行 = %+v", sells[0])
	}
	if sells[0].ID < SyntheticIDBase {
		t.Errorf("销售行应使用合成 ID: %d", sells[0].ID)
	}

	therapyRows := bySource["THERAPY_SELL"]
	if len(therapyRows) != 1 || therapyRows[0].Quantity != 0 {
		t.Errorf("疗程行 = %+v", therapyRows)
	}

	// 入库 +10 与销售联动出库 -2 两笔流水
	txns := bySource["STOCK_TXN"]
	if len(txns) != 2 {
		t.Fatalf("流水行数 = %d", len(txns))
	}
	var net int
	for _, txn := range txns {
		net += txn.Quantity
	}
	if net != 8 {
		t.Errorf("流水净和 = %d, 期望 8", net)
	}

	// 时间线按日期倒序
	for i := 1; i < len(rows); i++ {
		if rows[i].Date.After(rows[i-1].Date) {
			t.Errorf("第 %d 行日期晚于前一行", i)
		}
	}
}

func TestHistoryFlagsBundleSales(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pa := env.createProduct(t, "HIS0301", "修护精华", 60, 20)
	env.receiveStock(t, pa.ID, 10, 1)

	bundle := &model.ProductBundle{Code: "HISSET01", Name: "历史套组"}
	if err := env.bundle.CreateProductBundle(ctx, bundle, []model.BundleItem{
		{ItemID: pa.ID, ItemType: model.OwnerTypeProduct, Quantity: 1},
	}, nil); err != nil {
		t.Fatalf("创建套组失败: %v", err)
	}
	if _, err := env.sell.PostProductBundleSell(ctx, BundleSellInput{
		BundleID: bundle.ID, StoreID: 1, FinalPrice: 50,
	}); err != nil {
		t.Fatalf("套组过账失败: %v", err)
	}

	rows, err := env.inventory.History(ctx, 1, "", "", 0)
	if err != nil {
		t.Fatalf("查历史失败: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.Source == "PRODUCT_SELL" {
			found = true
			if row.Type != "BUNDLE_SALE" || row.BundleID != bundle.ID {
				t.Errorf("套组销售行 = %+v", row)
			}
		}
	}
	if !found {
		t.Error("历史里没有套组销售行")
	}
}
