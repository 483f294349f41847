package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/api/dto"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/internal/service"
)

// SellController 销售过账
type SellController struct {
	sellService  *service.SellService
	excelService *service.ExcelService
}

// NewSellController 创建销售控制器
func NewSellController(sellService *service.SellService, excelService *service.ExcelService) *SellController {
	return &SellController{sellService: sellService, excelService: excelService}
}

func sellFilter(c *gin.Context) (repository.SellFilter, int, int) {
	page, pageSize := pagination(c)
	var memberID int64
	if raw := c.Query("member_id"); raw != "" {
		id, err := parseInt64(raw)
		if err == nil {
			memberID = id
		}
	}
	return repository.SellFilter{
		StoreID:  callerStore(c),
		MemberID: memberID,
		Keyword:  c.Query("keyword"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Page:     page,
		PageSize: pageSize,
	}, page, pageSize
}

// ==================== 商品销售 ====================

// AddProductSell 过账: 单品或套组，带 bundle_id 走套组展开
func (ctrl *SellController) AddProductSell(c *gin.Context) {
	var probe struct {
		BundleID int64 `json:"bundle_id"`
	}
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "读取请求失败"})
		return
	}
	if err := bindJSONBytes(body, &probe, false); err == nil && probe.BundleID > 0 {
		ctrl.addProductBundleSell(c, body)
		return
	}
	ctrl.addSingleProductSell(c, body)
}

func (ctrl *SellController) addSingleProductSell(c *gin.Context, body []byte) {
	var req dto.ProductSellReq
	if err := bindJSONBytes(body, &req, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	sellDate, err := parseDate(req.SellDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.SellDate})
		return
	}

	claims := middleware.GetClaims(c)
	sell, err := ctrl.sellService.PostProductSell(c.Request.Context(), service.ProductSellInput{
		ProductID:      req.ProductID,
		MemberID:       req.MemberID,
		StaffID:        claims.StaffID,
		StoreID:        claims.StoreID,
		UnitPrice:      req.UnitPrice,
		Quantity:       req.Quantity,
		Discount:       req.Discount,
		FinalPrice:     req.FinalPrice,
		OrderReference: req.OrderReference,
		Note:           req.Note,
		SellDate:       sellDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sell)
}

func (ctrl *SellController) addProductBundleSell(c *gin.Context, body []byte) {
	var req dto.BundleSellReq
	if err := bindJSONBytes(body, &req, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	sellDate, err := parseDate(req.SellDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.SellDate})
		return
	}

	claims := middleware.GetClaims(c)
	sells, err := ctrl.sellService.PostProductBundleSell(c.Request.Context(), service.BundleSellInput{
		BundleID:       req.BundleID,
		BundleQty:      req.BundleQty,
		MemberID:       req.MemberID,
		StaffID:        claims.StaffID,
		StoreID:        claims.StoreID,
		IdentityType:   req.IdentityType,
		UnitPrice:      req.UnitPrice,
		Discount:       req.Discount,
		FinalPrice:     req.FinalPrice,
		OrderReference: req.OrderReference,
		Note:           req.Note,
		SellDate:       sellDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sells)
}

// UpdateProductSell 改销售行: 先退老库存，再按新参数出库
func (ctrl *SellController) UpdateProductSell(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ProductSellReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	sellDate, err := parseDate(req.SellDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.SellDate})
		return
	}

	claims := middleware.GetClaims(c)
	sell, err := ctrl.sellService.UpdateProductSell(c.Request.Context(), id, service.ProductSellInput{
		ProductID:      req.ProductID,
		MemberID:       req.MemberID,
		StaffID:        claims.StaffID,
		StoreID:        claims.StoreID,
		UnitPrice:      req.UnitPrice,
		Quantity:       req.Quantity,
		Discount:       req.Discount,
		FinalPrice:     req.FinalPrice,
		OrderReference: req.OrderReference,
		Note:           req.Note,
		SellDate:       sellDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sell)
}

// DeleteProductSell 删销售行并回补库存
func (ctrl *SellController) DeleteProductSell(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	if err := ctrl.sellService.DeleteProductSell(c.Request.Context(), id, claims.StaffID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ListProductSells 列表 / 搜索共用
func (ctrl *SellController) ListProductSells(c *gin.Context) {
	filter, page, pageSize := sellFilter(c)
	sells, total, err := ctrl.sellService.ListProductSells(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, sells, total, page, pageSize)
}

// GetProductSell 销售行详情
func (ctrl *SellController) GetProductSell(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	sell, err := ctrl.sellService.GetProductSell(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sell)
}

// ExportProductSells 商品销售明细导出
func (ctrl *SellController) ExportProductSells(c *gin.Context) {
	filter, _, _ := sellFilter(c)
	data, err := ctrl.excelService.ExportProductSells(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := "product-sells-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ==================== 疗程销售 ====================

// AddTherapySell 过账: 单疗程或疗程套组
func (ctrl *SellController) AddTherapySell(c *gin.Context) {
	var probe struct {
		BundleID int64 `json:"bundle_id"`
	}
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "读取请求失败"})
		return
	}
	if err := bindJSONBytes(body, &probe, false); err == nil && probe.BundleID > 0 {
		ctrl.addTherapyBundleSell(c, body)
		return
	}

	var req dto.TherapySellReq
	if err := bindJSONBytes(body, &req, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	sellDate, err := parseDate(req.SellDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.SellDate})
		return
	}

	claims := middleware.GetClaims(c)
	sell, err := ctrl.sellService.PostTherapySell(c.Request.Context(), service.TherapySellInput{
		TherapyID:      req.TherapyID,
		MemberID:       req.MemberID,
		StaffID:        claims.StaffID,
		StoreID:        claims.StoreID,
		UnitPrice:      req.UnitPrice,
		Amount:         req.Amount,
		Discount:       req.Discount,
		FinalPrice:     req.FinalPrice,
		OrderReference: req.OrderReference,
		Note:           req.Note,
		SellDate:       sellDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sell)
}

func (ctrl *SellController) addTherapyBundleSell(c *gin.Context, body []byte) {
	var req dto.BundleSellReq
	if err := bindJSONBytes(body, &req, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	sellDate, err := parseDate(req.SellDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.SellDate})
		return
	}

	claims := middleware.GetClaims(c)
	sells, err := ctrl.sellService.PostTherapyBundleSell(c.Request.Context(), service.BundleSellInput{
		BundleID:       req.BundleID,
		BundleQty:      req.BundleQty,
		MemberID:       req.MemberID,
		StaffID:        claims.StaffID,
		StoreID:        claims.StoreID,
		IdentityType:   req.IdentityType,
		UnitPrice:      req.UnitPrice,
		Discount:       req.Discount,
		FinalPrice:     req.FinalPrice,
		OrderReference: req.OrderReference,
		Note:           req.Note,
		SellDate:       sellDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sells)
}

// UpdateTherapySell 改疗程销售行
func (ctrl *SellController) UpdateTherapySell(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.TherapySellReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	sellDate, err := parseDate(req.SellDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.SellDate})
		return
	}

	claims := middleware.GetClaims(c)
	sell, err := ctrl.sellService.UpdateTherapySell(c.Request.Context(), id, service.TherapySellInput{
		TherapyID:      req.TherapyID,
		MemberID:       req.MemberID,
		StaffID:        claims.StaffID,
		StoreID:        claims.StoreID,
		UnitPrice:      req.UnitPrice,
		Amount:         req.Amount,
		Discount:       req.Discount,
		FinalPrice:     req.FinalPrice,
		OrderReference: req.OrderReference,
		Note:           req.Note,
		SellDate:       sellDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sell)
}

// DeleteTherapySell 删疗程销售行
func (ctrl *SellController) DeleteTherapySell(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.sellService.DeleteTherapySell(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ListTherapySells 疗程销售列表
func (ctrl *SellController) ListTherapySells(c *gin.Context) {
	filter, page, pageSize := sellFilter(c)
	sells, total, err := ctrl.sellService.ListTherapySells(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, sells, total, page, pageSize)
}

// ExportTherapySells 疗程销售明细导出
func (ctrl *SellController) ExportTherapySells(c *gin.Context) {
	filter, _, _ := sellFilter(c)
	data, err := ctrl.excelService.ExportTherapySells(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := "therapy-sells-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// RemainingSessions 会员剩余疗程次数
func (ctrl *SellController) RemainingSessions(c *gin.Context) {
	memberID, err := parseInt64(c.Query("member_id"))
	if err != nil || memberID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 member_id"})
		return
	}
	rows, err := ctrl.sellService.RemainingSessions(c.Request.Context(), memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}
