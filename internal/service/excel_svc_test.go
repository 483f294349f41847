package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("导出文件无法解析: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExportProductSells(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "EXP0101", "夜间修护霜", 200, 80)
	env.receiveStock(t, product.ID, 10, 1)
	if _, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID,
		StoreID:   1,
		Quantity:  2,
		Note:      "会员复购 " + BundleTag(3),
	}); err != nil {
		t.Fatalf("过账失败: %v", err)
	}

	data, err := env.excel.ExportProductSells(ctx, repository.SellFilter{StoreID: 1})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	f := openWorkbook(t, data)
	rows, err := f.GetRows("商品销售")
	if err != nil {
		t.Fatalf("读工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("行数 = %d, 期望表头 + 1 行", len(rows))
	}
	if rows[0][1] != "商品名称" || rows[0][5] != "成交价" {
		t.Errorf("表头 = %v", rows[0])
	}
	if rows[1][1] != "夜间修护霜" || rows[1][2] != "2" {
		t.Errorf("数据行 = %v", rows[1])
	}
	// 导出备注里不得泄露内嵌标签
	if rows[1][7] != "会员复购" {
		t.Errorf("备注 = %q, 标签应被剥离", rows[1][7])
	}
}

func TestExportMasterStocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "EXP0201", "洋甘菊纯露", 120, 50)
	env.receiveStock(t, product.ID, 7, 1)

	data, err := env.excel.ExportMasterStocks(ctx, 1)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	f := openWorkbook(t, data)
	rows, err := f.GetRows("主库存")
	if err != nil {
		t.Fatalf("读工作表失败: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("行数 = %d", len(rows))
	}
	if rows[1][0] != "EXP02" || rows[1][1] != "洋甘菊纯露" || rows[1][3] != "7" {
		t.Errorf("库存行 = %v", rows[1])
	}
}

func TestExportSalesOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.order.CreateOrder(ctx, OrderInput{
		StoreID:       1,
		TotalDiscount: 10,
		Items: []OrderItemInput{
			{ProductID: int64Ptr(1), ItemDescription: "舒缓精油", UnitPrice: 150, Quantity: 2},
			{BundleID: 5, ItemDescription: "水乳套组", UnitPrice: 80, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("建单失败: %v", err)
	}

	data, err := env.excel.ExportSalesOrders(ctx, repository.OrderFilter{StoreID: 1})
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}

	f := openWorkbook(t, data)
	rows, err := f.GetRows("销售单")
	if err != nil {
		t.Fatalf("读工作表失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("行数 = %d, 期望表头 + 2 行", len(rows))
	}
	if rows[0][0] != "单据号" || rows[0][8] != "单据总额" {
		t.Errorf("表头 = %v", rows[0])
	}
	if rows[1][0] != order.OrderNumber || rows[1][2] != "舒缓精油" || rows[1][6] != "300" {
		t.Errorf("首行 = %v", rows[1])
	}
	// 套组行备注只留正文，引用标签不外泄
	if rows[2][2] != "水乳套组" {
		t.Errorf("套组行 = %v", rows[2])
	}
	if len(rows[2]) > 9 && strings.Contains(rows[2][9], "bundle") {
		t.Errorf("备注泄露引用标签: %q", rows[2][9])
	}
}

// buildImportWorkbook 构造一个价格本导入簿
func buildImportWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("改工作表名失败: %v", err)
	}
	header := []interface{}{"商品编码", "商品名称", "类型", "价格", "最小数量", "最大数量"}
	all := append([][]interface{}{header}, rows...)
	for r, cells := range all {
		for c, value := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("坐标转换失败: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("写单元格失败: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("写缓冲失败: %v", err)
	}
	return buf.Bytes()
}

func TestImportPriceBookWorkbook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	existing := env.createProduct(t, "IMP0101", "老名字", 100, 40)

	data := buildImportWorkbook(t, "MEMBER", [][]interface{}{
		{"IMP0101", "新名字", "", 66.5},
		{"IMP0201", "进口胶原饮", "", 88, 10},
	})

	summary, err := env.excel.ImportPriceBookWorkbook(ctx, data)
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if len(summary.Sheets) != 1 || summary.Sheets[0] != model.IdentityMember {
		t.Errorf("识别的工作表 = %v", summary.Sheets)
	}
	if summary.ItemCount != 2 {
		t.Errorf("条目数 = %d, 期望 2", summary.ItemCount)
	}
	if summary.ProductCount != 1 {
		t.Errorf("新建商品数 = %d, 期望 1", summary.ProductCount)
	}

	// 已有商品按编码改名，新商品以未上架落库
	renamed, err := env.productRepo.GetByCode(ctx, "IMP0101")
	if err != nil {
		t.Fatalf("查商品失败: %v", err)
	}
	if renamed.ID != existing.ID || renamed.Name != "新名字" {
		t.Errorf("商品 = %+v", renamed)
	}
	created, err := env.productRepo.GetByCode(ctx, "IMP0201")
	if err != nil {
		t.Fatalf("新商品未落库: %v", err)
	}
	if created.Status != model.StatusUnpublished {
		t.Errorf("新商品状态 = %q, 期望未上架", created.Status)
	}

	// 导入的价格立即参与解析
	resolved, err := env.resolver.ResolveOne(ctx, model.OwnerTypeProduct, existing.ID, model.IdentityMember, 0, 1)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if resolved == nil || resolved.Price != 66.5 {
		t.Errorf("导入价解析 = %+v, 期望 66.5", resolved)
	}
}

func TestImportPriceBookIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	data := buildImportWorkbook(t, "MEMBER", [][]interface{}{
		{"IMP0301", "幂等测试品", "", 55},
	})

	first, err := env.excel.ImportPriceBookWorkbook(ctx, data)
	if err != nil {
		t.Fatalf("首次导入失败: %v", err)
	}
	second, err := env.excel.ImportPriceBookWorkbook(ctx, data)
	if err != nil {
		t.Fatalf("重复导入失败: %v", err)
	}
	if first.ProductCount != 1 || second.ProductCount != 0 {
		t.Errorf("新建商品数 = %d/%d, 期望 1/0", first.ProductCount, second.ProductCount)
	}
	if second.ItemCount != 1 {
		t.Errorf("重复导入条目数 = %d", second.ItemCount)
	}

	// 条目整组替换，不是累加
	book, err := env.bookRepo.GetBookByName(ctx, "IMPORT-"+model.IdentityMember)
	if err != nil {
		t.Fatalf("查导入本失败: %v", err)
	}
	items, err := env.bookRepo.GetBookItems(ctx, book.ID)
	if err != nil {
		t.Fatalf("查条目失败: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("条目数 = %d, 期望整组替换后仍为 1", len(items))
	}
}

func TestImportPriceBookRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 没有可识别身份的工作表
	data := buildImportWorkbook(t, "备注说明", [][]interface{}{
		{"X01", "无效", "", 10},
	})
	if _, err := env.excel.ImportPriceBookWorkbook(ctx, data); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("无身份工作表应返回参数错误, got %v", err)
	}

	// 价格列非法
	bad := buildImportWorkbook(t, "MEMBER", [][]interface{}{
		{"X02", "坏价格", "", "十块"},
	})
	if _, err := env.excel.ImportPriceBookWorkbook(ctx, bad); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("非法价格应返回参数错误, got %v", err)
	}

	if _, err := env.excel.ImportPriceBookWorkbook(ctx, []byte("not a workbook")); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("坏文件应返回参数错误, got %v", err)
	}
}
