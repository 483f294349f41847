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

// OrderController 销售单
type OrderController struct {
	orderService *service.OrderService
	excelService *service.ExcelService
}

// NewOrderController 创建销售单控制器
func NewOrderController(orderService *service.OrderService, excelService *service.ExcelService) *OrderController {
	return &OrderController{orderService: orderService, excelService: excelService}
}

func (ctrl *OrderController) inputFromReq(c *gin.Context, req dto.SaveOrderReq) (service.OrderInput, bool) {
	orderDate, err := parseDate(req.OrderDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "日期格式非法: " + req.OrderDate})
		return service.OrderInput{}, false
	}

	claims := middleware.GetClaims(c)
	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemInput{
			ProductID:       it.ProductID,
			TherapyID:       it.TherapyID,
			BundleID:        it.BundleID,
			ItemDescription: it.ItemDescription,
			ItemType:        it.ItemType,
			Unit:            it.Unit,
			UnitPrice:       it.UnitPrice,
			Quantity:        it.Quantity,
			Category:        it.Category,
			Note:            it.Note,
		})
	}
	return service.OrderInput{
		OrderNumber:   req.OrderNumber,
		OrderDate:     orderDate,
		MemberID:      req.MemberID,
		StaffID:       optionalStaffID(claims.StaffID),
		StoreID:       claims.StoreID,
		TotalDiscount: req.TotalDiscount,
		SaleCategory:  req.SaleCategory,
		Note:          req.Note,
		Items:         items,
	}, true
}

// AddOrder 建单
func (ctrl *OrderController) AddOrder(c *gin.Context) {
	var req dto.SaveOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	input, ok := ctrl.inputFromReq(c, req)
	if !ok {
		return
	}
	order, err := ctrl.orderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// UpdateOrder 改单，明细整组替换
func (ctrl *OrderController) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SaveOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	input, ok := ctrl.inputFromReq(c, req)
	if !ok {
		return
	}
	order, err := ctrl.orderService.UpdateOrder(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// DeleteOrder 删单
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.orderService.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// GetOrder 单据详情
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := ctrl.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, order)
}

// ExportOrders 销售单导出
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	data, err := ctrl.excelService.ExportSalesOrders(c.Request.Context(), repository.OrderFilter{
		StoreID:  callerStore(c),
		Keyword:  c.Query("keyword"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	filename := "sales-orders-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ListOrders 列表 / 搜索共用
func (ctrl *OrderController) ListOrders(c *gin.Context) {
	page, pageSize := pagination(c)
	var memberID int64
	if raw := c.Query("member_id"); raw != "" {
		if id, err := parseInt64(raw); err == nil {
			memberID = id
		}
	}
	orders, total, err := ctrl.orderService.ListOrders(c.Request.Context(), repository.OrderFilter{
		StoreID:  callerStore(c),
		MemberID: memberID,
		Keyword:  c.Query("keyword"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, orders, total, page, pageSize)
}
