package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/api/dto"
	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/internal/service"
	"wellness_erp_v1_202609/pkg/utils"
)

// CatalogController 商品与疗程目录
type CatalogController struct {
	catalogService *service.CatalogService
}

// NewCatalogController 创建目录控制器
func NewCatalogController(catalogService *service.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

func tiersFromReq(reqs []dto.PriceTierReq) []model.PriceTier {
	tiers := make([]model.PriceTier, 0, len(reqs))
	for _, t := range reqs {
		tiers = append(tiers, model.PriceTier{
			IdentityType: t.IdentityType,
			Price:        t.Price,
		})
	}
	return tiers
}

// ==================== 商品 ====================

// ListProducts 商品列表，按调用者可见性过滤
func (ctrl *CatalogController) ListProducts(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := repository.CatalogFilter{
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}

	claims := middleware.GetClaims(c)
	products, total, err := ctrl.catalogService.ListProducts(c.Request.Context(), claims, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, products, total, page, pageSize)
}

// ListSellableProducts 销售录入用的在售商品列表，状态锁定 PUBLISHED
func (ctrl *CatalogController) ListSellableProducts(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := repository.CatalogFilter{
		Status:   model.StatusPublished,
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}
	claims := middleware.GetClaims(c)
	products, total, err := ctrl.catalogService.ListProducts(c.Request.Context(), claims, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, products, total, page, pageSize)
}

// GetProduct 商品详情
func (ctrl *CatalogController) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	product, err := ctrl.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

// CreateProduct 新建商品
func (ctrl *CatalogController) CreateProduct(c *gin.Context) {
	var req dto.SaveProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	product := &model.Product{
		Code:               req.Code,
		Name:               req.Name,
		Price:              req.Price,
		PurchasePrice:      req.PurchasePrice,
		Unit:               req.Unit,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	if product.Status == "" {
		product.Status = model.StatusPublished
	}
	if err := ctrl.catalogService.CreateProduct(c.Request.Context(), product, tiersFromReq(req.PriceTiers)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

// UpdateProduct 更新商品
func (ctrl *CatalogController) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SaveProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	product := &model.Product{
		Code:               req.Code,
		Name:               req.Name,
		Price:              req.Price,
		PurchasePrice:      req.PurchasePrice,
		Unit:               req.Unit,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	product.ID = id
	if err := ctrl.catalogService.UpdateProduct(c.Request.Context(), product, tiersFromReq(req.PriceTiers)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

// DeleteProduct 删除商品
func (ctrl *CatalogController) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ==================== 疗程 ====================

// ListTherapies 疗程列表
func (ctrl *CatalogController) ListTherapies(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := repository.CatalogFilter{
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}

	claims := middleware.GetClaims(c)
	therapies, total, err := ctrl.catalogService.ListTherapies(c.Request.Context(), claims, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, therapies, total, page, pageSize)
}

// ListSellableTherapies 销售录入用的在售疗程列表，状态锁定 PUBLISHED
func (ctrl *CatalogController) ListSellableTherapies(c *gin.Context) {
	page, pageSize := pagination(c)
	filter := repository.CatalogFilter{
		Status:   model.StatusPublished,
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}
	claims := middleware.GetClaims(c)
	therapies, total, err := ctrl.catalogService.ListTherapies(c.Request.Context(), claims, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, therapies, total, page, pageSize)
}

// CreateTherapy 新建疗程
func (ctrl *CatalogController) CreateTherapy(c *gin.Context) {
	var req dto.SaveTherapyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	therapy := &model.Therapy{
		Code:               req.Code,
		Name:               req.Name,
		Price:              req.Price,
		Unit:               req.Unit,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	if therapy.Status == "" {
		therapy.Status = model.StatusPublished
	}
	if err := ctrl.catalogService.CreateTherapy(c.Request.Context(), therapy, tiersFromReq(req.PriceTiers)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, therapy)
}

// UpdateTherapy 更新疗程
func (ctrl *CatalogController) UpdateTherapy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SaveTherapyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	therapy := &model.Therapy{
		Code:               req.Code,
		Name:               req.Name,
		Price:              req.Price,
		Unit:               req.Unit,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	therapy.ID = id
	if err := ctrl.catalogService.UpdateTherapy(c.Request.Context(), therapy, tiersFromReq(req.PriceTiers)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, therapy)
}

// DeleteTherapy 删除疗程
func (ctrl *CatalogController) DeleteTherapy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.catalogService.DeleteTherapy(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ==================== 上下架 ====================

// itemTypeFromPath 路径段 → owner_type
func itemTypeFromPath(segment string) (string, error) {
	switch segment {
	case "products":
		return model.OwnerTypeProduct, nil
	case "therapies":
		return model.OwnerTypeTherapy, nil
	case "product-bundles":
		return model.OwnerTypeProductBundle, nil
	case "therapy-bundles":
		return model.OwnerTypeTherapyBundle, nil
	default:
		return "", errs.Validation("未知的条目类型: %s", segment)
	}
}

// Publish 上架
func (ctrl *CatalogController) Publish(c *gin.Context) {
	ctrl.togglePublish(c, true)
}

// Unpublish 下架，可带原因
func (ctrl *CatalogController) Unpublish(c *gin.Context) {
	ctrl.togglePublish(c, false)
}

func (ctrl *CatalogController) togglePublish(c *gin.Context, publish bool) {
	itemType, err := itemTypeFromPath(c.Param("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.PublishToggleReq
	// 请求体可选
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.catalogService.SetPublishStatus(c.Request.Context(), itemType, id, publish, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
