package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/pkg/logger"

	"go.uber.org/zap"
)

// ==================== Excel 导入导出 ====================

// 销售导出表头
var productSellExportHeader = []string{
	"日期", "商品名称", "数量", "单价", "折扣", "成交价", "单据号", "备注",
}

// 库存导出表头
var masterStockExportHeader = []string{
	"主编码", "品名", "门店", "在库数量",
}

// 价格本导入表头，A 列起固定顺序
var priceBookImportHeader = []string{
	"商品编码", "商品名称", "类型", "价格", "最小数量", "最大数量",
}

// ExcelService 报表导出与价格本导入
type ExcelService struct {
	db            *gorm.DB
	sellRepo      repository.SellRepository
	orderRepo     repository.OrderRepository
	stockSvc      *StockService
	productRepo   repository.ProductRepository
	priceBookRepo repository.PriceBookRepository
}

// NewExcelService 创建导入导出服务
func NewExcelService(db *gorm.DB, sellRepo repository.SellRepository,
	orderRepo repository.OrderRepository, stockSvc *StockService,
	productRepo repository.ProductRepository,
	priceBookRepo repository.PriceBookRepository) *ExcelService {
	return &ExcelService{
		db:            db,
		sellRepo:      sellRepo,
		orderRepo:     orderRepo,
		stockSvc:      stockSvc,
		productRepo:   productRepo,
		priceBookRepo: priceBookRepo,
	}
}

// newExportFile 建一个带样式表头的工作簿
func newExportFile(sheetName string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("创建工作表失败: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("创建表头样式失败: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func fileBytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("写入缓冲失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ==================== 导出 ====================

// ExportProductSells 商品销售明细导出
func (s *ExcelService) ExportProductSells(ctx context.Context, filter repository.SellFilter) ([]byte, error) {
	filter.PageSize = 500
	sells, _, err := s.sellRepo.ListProductSells(ctx, filter)
	if err != nil {
		return nil, err
	}

	sheet := "商品销售"
	f, err := newExportFile(sheet, productSellExportHeader)
	if err != nil {
		return nil, err
	}
	for i, sell := range sells {
		values := []interface{}{
			sell.SellDate.Format("2006-01-02"),
			sell.ProductName,
			sell.Quantity,
			sell.UnitPrice,
			sell.Discount,
			sell.FinalPrice,
			sell.OrderReference,
			StripTags(sell.Note),
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return fileBytes(f)
}

// ExportTherapySells 疗程销售明细导出
func (s *ExcelService) ExportTherapySells(ctx context.Context, filter repository.SellFilter) ([]byte, error) {
	filter.PageSize = 500
	sells, _, err := s.sellRepo.ListTherapySells(ctx, filter)
	if err != nil {
		return nil, err
	}

	sheet := "疗程销售"
	headers := []string{"日期", "疗程名称", "次数", "单价", "折扣", "成交价", "单据号", "备注"}
	f, err := newExportFile(sheet, headers)
	if err != nil {
		return nil, err
	}
	for i, sell := range sells {
		values := []interface{}{
			sell.SellDate.Format("2006-01-02"),
			sell.TherapyName,
			sell.Amount,
			sell.UnitPrice,
			sell.Discount,
			sell.FinalPrice,
			sell.OrderReference,
			StripTags(sell.Note),
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return fileBytes(f)
}

// ExportMasterStocks 主库存导出
func (s *ExcelService) ExportMasterStocks(ctx context.Context, storeID int64) ([]byte, error) {
	rows, err := s.stockSvc.Summary(ctx, storeID, "")
	if err != nil {
		return nil, err
	}

	sheet := "主库存"
	f, err := newExportFile(sheet, masterStockExportHeader)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		values := []interface{}{row.Code, row.Name, storeID, row.OnHand}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}
	return fileBytes(f)
}

// ExportSalesOrders 销售单导出，单据头 + 明细行展开
func (s *ExcelService) ExportSalesOrders(ctx context.Context, filter repository.OrderFilter) ([]byte, error) {
	filter.PageSize = 200
	orders, _, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	sheet := "销售单"
	headers := []string{"单据号", "日期", "明细", "类型", "单价", "数量", "小计", "单据折扣", "单据总额", "备注"}
	f, err := newExportFile(sheet, headers)
	if err != nil {
		return nil, err
	}
	rowNum := 2
	for _, order := range orders {
		for _, item := range order.Items {
			values := []interface{}{
				order.OrderNumber,
				order.OrderDate.Format("2006-01-02"),
				item.ItemDescription,
				item.ItemType,
				item.UnitPrice,
				item.Quantity,
				item.Subtotal,
				order.TotalDiscount,
				order.GrandTotal,
				StripTags(item.Note),
			}
			if err := writeRow(f, sheet, rowNum, values); err != nil {
				f.Close()
				return nil, err
			}
			rowNum++
		}
	}
	return fileBytes(f)
}

// ==================== 价格本导入 ====================

// ImportSummary 导入结果统计
type ImportSummary struct {
	Sheets       []string `json:"sheets"`
	ItemCount    int      `json:"item_count"`
	ProductCount int      `json:"product_count"`
	Skipped      []string `json:"skipped,omitempty"`
}

// ImportPriceBookWorkbook 价格本整簿导入
// 工作表按身份命名（DIRECT_STORE、FRANCHISE …）；同一身份重复导入幂等:
// 商品按编码 upsert，价格本条目整组 DELETE + INSERT
func (s *ExcelService) ImportPriceBookWorkbook(ctx context.Context, data []byte) (*ImportSummary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Validation("无法解析工作簿: %v", err)
	}
	defer f.Close()

	summary := &ImportSummary{}
	for _, sheet := range f.GetSheetList() {
		identity := strings.ToUpper(strings.TrimSpace(sheet))
		if _, ok := model.IdentityPriorities[identity]; !ok {
			summary.Skipped = append(summary.Skipped, sheet)
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errs.Validation("读取工作表 %s 失败: %v", sheet, err)
		}
		count, products, err := s.importIdentitySheet(ctx, identity, rows)
		if err != nil {
			return nil, err
		}
		summary.Sheets = append(summary.Sheets, identity)
		summary.ItemCount += count
		summary.ProductCount += products
	}
	if len(summary.Sheets) == 0 {
		return nil, errs.Validation("工作簿内没有可识别的身份工作表")
	}
	logger.L.Info("价格本导入完成",
		zap.Strings("sheets", summary.Sheets),
		zap.Int("items", summary.ItemCount),
		zap.Int("products", summary.ProductCount))
	return summary, nil
}

type importedRow struct {
	code        string
	name        string
	itemType    string
	price       float64
	minQuantity int
	maxQuantity int
}

func parseImportRow(sheet string, rowNum int, cells []string) (*importedRow, error) {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}
	code := get(0)
	if code == "" {
		return nil, nil // 空行跳过
	}
	priceRaw := get(3)
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		return nil, errs.Validation("%s 第 %d 行价格非法: %q", sheet, rowNum, priceRaw)
	}
	itemType := strings.ToUpper(get(2))
	if itemType == "" {
		itemType = model.OwnerTypeProduct
	}
	row := &importedRow{
		code:     code,
		name:     get(1),
		itemType: itemType,
		price:    price,
	}
	if raw := get(4); raw != "" {
		if row.minQuantity, err = strconv.Atoi(raw); err != nil {
			return nil, errs.Validation("%s 第 %d 行最小数量非法: %q", sheet, rowNum, raw)
		}
	}
	if raw := get(5); raw != "" {
		if row.maxQuantity, err = strconv.Atoi(raw); err != nil {
			return nil, errs.Validation("%s 第 %d 行最大数量非法: %q", sheet, rowNum, raw)
		}
	}
	return row, nil
}

// importIdentitySheet 单身份工作表落库，一个事务
func (s *ExcelService) importIdentitySheet(ctx context.Context, identity string, rows [][]string) (int, int, error) {
	var parsed []importedRow
	for i, cells := range rows {
		if i == 0 {
			continue // 表头
		}
		row, err := parseImportRow(identity, i+1, cells)
		if err != nil {
			return 0, 0, err
		}
		if row != nil {
			parsed = append(parsed, *row)
		}
	}

	var itemCount, productCount int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		bookRepo := s.priceBookRepo.WithTx(tx)

		book, err := s.ensureImportBook(ctx, bookRepo, identity)
		if err != nil {
			return err
		}

		items := make([]model.MemberPriceBookItem, 0, len(parsed))
		for _, row := range parsed {
			itemID, created, err := s.resolveImportItem(ctx, productRepo, row)
			if err != nil {
				return err
			}
			if created {
				productCount++
			}
			items = append(items, model.MemberPriceBookItem{
				BookID:      book.ID,
				ItemType:    row.itemType,
				ItemID:      itemID,
				Price:       row.price,
				MinQuantity: row.minQuantity,
				MaxQuantity: row.maxQuantity,
				CustomCode:  row.code,
				CustomName:  row.name,
				Status:      model.StatusActive,
			})
		}
		itemCount = len(items)
		return bookRepo.ReplaceBookItems(ctx, book.ID, items)
	})
	if err != nil {
		return 0, 0, err
	}
	return itemCount, productCount, nil
}

// ensureImportBook 按身份取导入价格本，没有就建一个长期生效的
func (s *ExcelService) ensureImportBook(ctx context.Context, bookRepo repository.PriceBookRepository, identity string) (*model.MemberPriceBook, error) {
	name := "IMPORT-" + identity
	book, err := bookRepo.GetBookByName(ctx, name)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	book = &model.MemberPriceBook{
		Name:         name,
		IdentityType: identity,
		ScopeType:    "GLOBAL",
		Status:       model.StatusActive,
		Priority:     model.IdentityPriority(identity),
		ValidFrom:    time.Now().AddDate(0, 0, -1),
		ValidTo:      time.Now().AddDate(100, 0, 0),
	}
	if err := bookRepo.CreateBook(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// resolveImportItem 商品行按编码 upsert，其余类型要求编码即现有条目 ID
func (s *ExcelService) resolveImportItem(ctx context.Context, productRepo repository.ProductRepository, row importedRow) (int64, bool, error) {
	if row.itemType != model.OwnerTypeProduct {
		id, err := strconv.ParseInt(row.code, 10, 64)
		if err != nil {
			return 0, false, errs.Validation("非商品条目的编码必须是数字 ID: %q", row.code)
		}
		return id, false, nil
	}

	product, err := productRepo.GetByCode(ctx, row.code)
	if err == nil {
		if row.name != "" && product.Name != row.name {
			if err := productRepo.UpdateFields(ctx, product.ID, map[string]interface{}{"name": row.name}); err != nil {
				return 0, false, err
			}
		}
		return product.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, err
	}

	created := &model.Product{
		Code:   row.code,
		Name:   row.name,
		Price:  row.price,
		Status: model.StatusUnpublished,
	}
	if created.Name == "" {
		created.Name = row.code
	}
	if err := productRepo.Create(ctx, created); err != nil {
		return 0, false, err
	}
	return created.ID, true, nil
}
