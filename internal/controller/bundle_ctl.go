package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/api/dto"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/internal/service"
	"wellness_erp_v1_202609/pkg/utils"
)

// BundleController 套组与分类
type BundleController struct {
	bundleService *service.BundleService
}

// NewBundleController 创建套组控制器
func NewBundleController(bundleService *service.BundleService) *BundleController {
	return &BundleController{bundleService: bundleService}
}

func bundleItemsFromReq(reqs []dto.BundleItemReq) []model.BundleItem {
	items := make([]model.BundleItem, 0, len(reqs))
	for _, it := range reqs {
		items = append(items, model.BundleItem{
			ItemID:   it.ItemID,
			ItemType: it.ItemType,
			Quantity: it.Quantity,
		})
	}
	return items
}

func bundleFilter(c *gin.Context) (repository.CatalogFilter, int, int) {
	page, pageSize := pagination(c)
	return repository.CatalogFilter{
		Status:   c.Query("status"),
		Keyword:  c.Query("keyword"),
		Page:     page,
		PageSize: pageSize,
	}, page, pageSize
}

// ==================== 商品套组 ====================

// ListProductBundles 商品套组列表
func (ctrl *BundleController) ListProductBundles(c *gin.Context) {
	filter, page, pageSize := bundleFilter(c)
	claims := middleware.GetClaims(c)
	bundles, total, err := ctrl.bundleService.ListProductBundles(c.Request.Context(), claims, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, bundles, total, page, pageSize)
}

// CreateProductBundle 新建商品套组
func (ctrl *BundleController) CreateProductBundle(c *gin.Context) {
	var req dto.SaveBundleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	bundle := &model.ProductBundle{
		Code:               req.Code,
		Name:               req.Name,
		SellingPrice:       req.SellingPrice,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	if bundle.Status == "" {
		bundle.Status = model.StatusPublished
	}
	err := ctrl.bundleService.CreateProductBundle(c.Request.Context(), bundle,
		bundleItemsFromReq(req.Items), tiersFromReq(req.PriceTiers))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bundle)
}

// UpdateProductBundle 更新商品套组
func (ctrl *BundleController) UpdateProductBundle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SaveBundleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	bundle := &model.ProductBundle{
		Code:               req.Code,
		Name:               req.Name,
		SellingPrice:       req.SellingPrice,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	bundle.ID = id
	err := ctrl.bundleService.UpdateProductBundle(c.Request.Context(), bundle,
		bundleItemsFromReq(req.Items), tiersFromReq(req.PriceTiers))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bundle)
}

// DeleteProductBundle 删除商品套组
func (ctrl *BundleController) DeleteProductBundle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.bundleService.DeleteProductBundle(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ==================== 疗程套组 ====================

// ListTherapyBundles 疗程套组列表
func (ctrl *BundleController) ListTherapyBundles(c *gin.Context) {
	filter, page, pageSize := bundleFilter(c)
	claims := middleware.GetClaims(c)
	bundles, total, err := ctrl.bundleService.ListTherapyBundles(c.Request.Context(), claims, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, bundles, total, page, pageSize)
}

// CreateTherapyBundle 新建疗程套组
func (ctrl *BundleController) CreateTherapyBundle(c *gin.Context) {
	var req dto.SaveBundleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	bundle := &model.TherapyBundle{
		Code:               req.Code,
		Name:               req.Name,
		SellingPrice:       req.SellingPrice,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	if bundle.Status == "" {
		bundle.Status = model.StatusPublished
	}
	err := ctrl.bundleService.CreateTherapyBundle(c.Request.Context(), bundle,
		bundleItemsFromReq(req.Items), tiersFromReq(req.PriceTiers))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bundle)
}

// UpdateTherapyBundle 更新疗程套组
func (ctrl *BundleController) UpdateTherapyBundle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SaveBundleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	bundle := &model.TherapyBundle{
		Code:               req.Code,
		Name:               req.Name,
		SellingPrice:       req.SellingPrice,
		Status:             req.Status,
		VisibleStoreIDs:    utils.IntList(req.VisibleStoreIDs),
		VisiblePermissions: utils.StringList(req.VisiblePermissions),
	}
	bundle.ID = id
	err := ctrl.bundleService.UpdateTherapyBundle(c.Request.Context(), bundle,
		bundleItemsFromReq(req.Items), tiersFromReq(req.PriceTiers))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bundle)
}

// DeleteTherapyBundle 删除疗程套组
func (ctrl *BundleController) DeleteTherapyBundle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.bundleService.DeleteTherapyBundle(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// ==================== 分类 ====================

// ListCategories 分类列表，可按目标类型过滤
func (ctrl *BundleController) ListCategories(c *gin.Context) {
	categories, err := ctrl.bundleService.ListCategories(c.Request.Context(), c.Query("target_type"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, categories)
}

// CreateCategory 新建分类
func (ctrl *BundleController) CreateCategory(c *gin.Context) {
	var req dto.SaveCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	category := &model.Category{Name: req.Name, TargetType: req.TargetType}
	if err := ctrl.bundleService.CreateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, category)
}

// UpdateCategory 更新分类
func (ctrl *BundleController) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SaveCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	category := &model.Category{Name: req.Name, TargetType: req.TargetType}
	category.ID = id
	if err := ctrl.bundleService.UpdateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, category)
}

// DeleteCategory 删除分类，连带条目关联
func (ctrl *BundleController) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ctrl.bundleService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// LinkCategories 条目挂分类，整组替换
func (ctrl *BundleController) LinkCategories(c *gin.Context) {
	var req dto.LinkCategoriesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	err := ctrl.bundleService.LinkCategories(c.Request.Context(), req.ItemID, req.ItemType, req.CategoryIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
