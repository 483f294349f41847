package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/api/dto"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/service"
)

// PriceBookController 价格本管理与解析
type PriceBookController struct {
	bookService   *service.PriceBookService
	priceResolver *service.PriceResolver
	excelService  *service.ExcelService
}

// NewPriceBookController 创建价格本控制器
func NewPriceBookController(bookService *service.PriceBookService,
	priceResolver *service.PriceResolver, excelService *service.ExcelService) *PriceBookController {
	return &PriceBookController{
		bookService:   bookService,
		priceResolver: priceResolver,
		excelService:  excelService,
	}
}

func bookInputFromReq(c *gin.Context, req dto.SavePriceBookReq) (service.BookInput, bool) {
	validFrom, err := parseDate(req.ValidFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "生效日期非法: " + req.ValidFrom})
		return service.BookInput{}, false
	}
	validTo, err := parseDate(req.ValidTo)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "失效日期非法: " + req.ValidTo})
		return service.BookInput{}, false
	}
	return service.BookInput{
		Name:         req.Name,
		IdentityType: req.IdentityType,
		ScopeType:    req.ScopeType,
		Status:       req.Status,
		Priority:     req.Priority,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
		StoreIDs:     req.StoreIDs,
	}, true
}

// ListBooks 价格本列表
func (ctrl *PriceBookController) ListBooks(c *gin.Context) {
	page, pageSize := pagination(c)
	books, total, err := ctrl.bookService.ListBooks(c.Request.Context(),
		c.Query("identity_type"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, books, total, page, pageSize)
}

// GetBook 价格本详情
func (ctrl *PriceBookController) GetBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	book, err := ctrl.bookService.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, book)
}

// CreateBook 新建价格本
func (ctrl *PriceBookController) CreateBook(c *gin.Context) {
	var req dto.SavePriceBookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	input, ok := bookInputFromReq(c, req)
	if !ok {
		return
	}
	book, err := ctrl.bookService.CreateBook(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, book)
}

// UpdateBook 更新价格本
func (ctrl *PriceBookController) UpdateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SavePriceBookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	input, ok := bookInputFromReq(c, req)
	if !ok {
		return
	}
	book, err := ctrl.bookService.UpdateBook(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, book)
}

// ReplaceItems 条目整组替换
func (ctrl *PriceBookController) ReplaceItems(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ReplaceBookItemsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	items := make([]model.MemberPriceBookItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, model.MemberPriceBookItem{
			ItemType:    it.ItemType,
			ItemID:      it.ItemID,
			Price:       it.Price,
			Currency:    it.Currency,
			MinQuantity: it.MinQuantity,
			MaxQuantity: it.MaxQuantity,
			CustomCode:  it.CustomCode,
			CustomName:  it.CustomName,
		})
	}
	if err := ctrl.bookService.ReplaceItems(c.Request.Context(), id, items); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// Resolve 按身份/门店/数量解析最优价
func (ctrl *PriceBookController) Resolve(c *gin.Context) {
	var req dto.ResolvePriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	claims := middleware.GetClaims(c)
	prices, err := ctrl.priceResolver.Resolve(c.Request.Context(), req.ItemType, req.ItemIDs,
		req.IdentityType, claims.StoreID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, prices)
}

// ImportWorkbook 价格本整簿导入，multipart 字段 file
func (ctrl *PriceBookController) ImportWorkbook(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "缺少上传文件"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无法读取上传文件"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无法读取上传文件"})
		return
	}

	summary, err := ctrl.excelService.ImportPriceBookWorkbook(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, summary)
}
