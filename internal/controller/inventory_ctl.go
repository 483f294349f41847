package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/api/dto"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/internal/service"
)

// InventoryController 手工库存台账 + 主库存
type InventoryController struct {
	inventoryService *service.InventoryService
	stockService     *service.StockService
	masterService    *service.MasterService
	masterRepo       repository.MasterRepository
	excelService     *service.ExcelService
	lowStockLimit    int
}

// NewInventoryController 创建库存控制器
func NewInventoryController(inventoryService *service.InventoryService,
	stockService *service.StockService, masterService *service.MasterService,
	masterRepo repository.MasterRepository, excelService *service.ExcelService,
	lowStockLimit int) *InventoryController {
	return &InventoryController{
		inventoryService: inventoryService,
		stockService:     stockService,
		masterService:    masterService,
		masterRepo:       masterRepo,
		excelService:     excelService,
		lowStockLimit:    lowStockLimit,
	}
}

// callerStore 非管理员锁定到自己门店；管理员可用 store_id 查询参数切换
func callerStore(c *gin.Context) int64 {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return 0
	}
	if claims.IsAdmin() {
		if raw := c.Query("store_id"); raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
				return id
			}
		}
	}
	return claims.StoreID
}

// ==================== 手工台账 ====================

// ListRecords 手工台账列表 / 搜索共用
func (ctrl *InventoryController) ListRecords(c *gin.Context) {
	page, pageSize := pagination(c)
	records, total, err := ctrl.inventoryService.ListRecords(c.Request.Context(),
		callerStore(c), c.Query("keyword"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, records, total, page, pageSize)
}

// AddRecord 手工记一笔异动
func (ctrl *InventoryController) AddRecord(c *gin.Context) {
	var req dto.AddInventoryRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	recordDate, err := parseDate(req.RecordDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.RecordDate})
		return
	}

	claims := middleware.GetClaims(c)
	record := &model.InventoryRecord{
		StoreID:     claims.StoreID,
		StaffID:     optionalStaffID(claims.StaffID),
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		RecordType:  req.RecordType,
		Note:        req.Note,
		RecordDate:  recordDate,
	}
	if err := ctrl.inventoryService.AddRecord(c.Request.Context(), record); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, record)
}

// UpdateRecord 更新手工行，合成 ID 拒绝
func (ctrl *InventoryController) UpdateRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdateInventoryRecordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	fields := map[string]interface{}{}
	if req.ProductName != nil {
		fields["product_name"] = *req.ProductName
	}
	if req.Quantity != nil {
		fields["quantity"] = *req.Quantity
	}
	if req.RecordType != nil {
		fields["record_type"] = *req.RecordType
	}
	if req.Note != nil {
		fields["note"] = *req.Note
	}
	if err := ctrl.inventoryService.UpdateRecord(c.Request.Context(), id, fields); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// DeleteRecord 删除手工行，合成 ID 拒绝
func (ctrl *InventoryController) DeleteRecord(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.inventoryService.DeleteRecord(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// History 统一异动时间线
func (ctrl *InventoryController) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "500"))
	rows, err := ctrl.inventoryService.History(c.Request.Context(),
		callerStore(c), c.Query("date_from"), c.Query("date_to"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

// LowStocks 低库存预警行
func (ctrl *InventoryController) LowStocks(c *gin.Context) {
	threshold := ctrl.lowStockLimit
	if raw := c.Query("threshold"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			threshold = v
		}
	}
	stocks, err := ctrl.stockService.LowStocks(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stocks)
}

// ==================== 主库存 ====================

// ListMasters 主商品列表
func (ctrl *InventoryController) ListMasters(c *gin.Context) {
	page, pageSize := pagination(c)
	masters, total, err := ctrl.masterRepo.ListMasters(c.Request.Context(), c.Query("keyword"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, masters, total, page, pageSize)
}

// ListMasterVariants 主商品下属变体
func (ctrl *InventoryController) ListMasterVariants(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	variants, err := ctrl.masterRepo.ListVariantsByMaster(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, variants)
}

// OutboundVariants 出库选择器: 在售变体及其当前在库数
func (ctrl *InventoryController) OutboundVariants(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := pagination(c)
	masters, _, err := ctrl.masterRepo.ListMasters(ctx, c.Query("keyword"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	storeID := callerStore(c)
	type variantRow struct {
		model.ProductVariant
		MasterCode string `json:"master_code"`
		OnHand     int    `json:"on_hand"`
	}
	rows := make([]variantRow, 0)
	for _, master := range masters {
		variants, err := ctrl.masterRepo.ListVariantsByMaster(ctx, master.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		for _, v := range variants {
			if v.Status != model.StatusActive {
				continue
			}
			onHand, _ := ctrl.stockService.OnHandByVariant(ctx, v.VariantID, storeID)
			rows = append(rows, variantRow{ProductVariant: v, MasterCode: master.Code, OnHand: onHand})
		}
	}
	respondOK(c, rows)
}

// StockSummary 门店在库汇总
func (ctrl *InventoryController) StockSummary(c *gin.Context) {
	rows, err := ctrl.stockService.Summary(c.Request.Context(), callerStore(c), c.Query("keyword"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

// GetCostPrices 主商品的门店类型成本价
func (ctrl *InventoryController) GetCostPrices(c *gin.Context) {
	masterID, err := strconv.ParseInt(c.Query("master_id"), 10, 64)
	if err != nil || masterID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 master_id"})
		return
	}
	prices, err := ctrl.masterService.GetCostPrices(c.Request.Context(), masterID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, prices)
}

// SetCostPrice 设置门店类型成本价，此后不再被变体同步覆盖
func (ctrl *InventoryController) SetCostPrice(c *gin.Context) {
	var req dto.SetCostPriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	err := ctrl.masterService.SetCostPrice(c.Request.Context(), req.MasterID, req.StoreType, req.CostPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Inbound 入库
func (ctrl *InventoryController) Inbound(c *gin.Context) {
	var req dto.MasterInboundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	claims := middleware.GetClaims(c)
	results, err := ctrl.stockService.Receive(c.Request.Context(), service.ReceiveInput{
		MasterID:          req.MasterID,
		VariantID:         req.VariantID,
		InventoryItemID:   req.InventoryItemID,
		Quantity:          req.Quantity,
		StoreID:           claims.StoreID,
		StaffID:           claims.StaffID,
		ReferenceNo:       req.ReferenceNo,
		Note:              req.Note,
		ApplyPrefixBundle: req.ApplyPrefixBundle,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, results)
}

// Outbound 出库
func (ctrl *InventoryController) Outbound(c *gin.Context) {
	var req dto.MasterOutboundReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	claims := middleware.GetClaims(c)
	result, err := ctrl.stockService.Ship(c.Request.Context(), req.VariantID, req.Quantity,
		claims.StoreID, claims.StaffID, req.ReferenceNo, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// ExportStocks 主库存导出
func (ctrl *InventoryController) ExportStocks(c *gin.Context) {
	data, err := ctrl.excelService.ExportMasterStocks(c.Request.Context(), callerStore(c))
	if err != nil {
		respondError(c, err)
		return
	}
	filename := "stock-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
