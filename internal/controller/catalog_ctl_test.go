package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

// setupCatalogRouter 真实服务栈 + 内存库，路由只挂目录相关部分
func setupCatalogRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Product{}, &model.Therapy{}, &model.PriceTier{},
		&model.MasterProduct{}, &model.ProductVariant{}, &model.InventoryItem{},
		&model.StoreTypePrice{}, &model.MasterStock{}, &model.StockTransaction{},
		&model.ProductSell{}, &model.TherapySell{},
	); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}

	productRepo := repository.NewProductRepository(db)
	therapyRepo := repository.NewTherapyRepository(db)
	sellRepo := repository.NewSellRepository(db)
	masterRepo := repository.NewMasterRepository(db)
	stockRepo := repository.NewStockRepository(db)

	masterSvc := service.NewMasterService(db, masterRepo)
	stockSvc := service.NewStockService(db, stockRepo, masterRepo, masterSvc)
	catalogSvc := service.NewCatalogService(db, productRepo, therapyRepo, sellRepo, masterSvc, stockSvc)

	ctl := NewCatalogController(catalogSvc)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.JWTAuth(), middleware.RejectTherapistWrite())
	{
		admin := middleware.RequireAdmin()
		api.GET("/products", ctl.ListProducts)
		api.POST("/products", admin, ctl.CreateProduct)
		api.GET("/products/:id", ctl.GetProduct)
		api.DELETE("/products/:id", admin, ctl.DeleteProduct)
		api.PATCH("/items/:type/:id/unpublish", admin, ctl.Unpublish)
	}
	return r
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.GenerateAccessToken(middleware.StoreClaims{
		StoreID:    1,
		StoreLevel: model.StoreLevelHeadquarters,
		Permission: model.PermissionAdmin,
	})
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}
	return token
}

func doRequest(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== 测试用例 ====================

func TestCatalogController_CreateAndGetProduct(t *testing.T) {
	r := setupCatalogRouter(t)
	token := adminToken(t)

	w := doRequest(r, http.MethodPost, "/api/products", token, map[string]interface{}{
		"code":  "CTL0101",
		"name":  "接骨木花茶",
		"price": 68.0,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("创建商品 status = %d, body = %s", w.Code, w.Body.String())
	}

	var created struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.Data.ID == 0 {
		t.Fatal("创建响应应携带商品 ID")
	}

	w = doRequest(r, http.MethodGet, "/api/products/1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("查询商品 status = %d", w.Code)
	}
	var got struct {
		Data struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Data.Code != "CTL0101" || got.Data.Name != "接骨木花茶" {
		t.Errorf("详情不匹配: %+v", got.Data)
	}
}

func TestCatalogController_ListProducts(t *testing.T) {
	r := setupCatalogRouter(t)
	token := adminToken(t)

	for _, p := range []map[string]interface{}{
		{"code": "CTL0201", "name": "洋甘菊纯露", "price": 98.0},
		{"code": "CTL0301", "name": "玫瑰纯露", "price": 108.0},
	} {
		if w := doRequest(r, http.MethodPost, "/api/products", token, p); w.Code != http.StatusOK {
			t.Fatalf("创建商品失败: %s", w.Body.String())
		}
	}

	w := doRequest(r, http.MethodGet, "/api/products?keyword=玫瑰", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("列表 status = %d", w.Code)
	}
	var resp struct {
		Total int64 `json:"total"`
		Data  []struct {
			Code string `json:"code"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Data) != 1 || resp.Data[0].Code != "CTL0301" {
		t.Errorf("关键字过滤结果不对: total=%d data=%+v", resp.Total, resp.Data)
	}
}

func TestCatalogController_Errors(t *testing.T) {
	r := setupCatalogRouter(t)
	token := adminToken(t)

	// 未认证
	w := doRequest(r, http.MethodGet, "/api/products", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("未认证 status = %d, want 401", w.Code)
	}

	// 非法 ID
	w = doRequest(r, http.MethodGet, "/api/products/abc", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("非法 ID status = %d, want 400", w.Code)
	}

	// 不存在
	w = doRequest(r, http.MethodGet, "/api/products/999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("不存在 status = %d, want 404", w.Code)
	}

	// 缺少必填字段
	w = doRequest(r, http.MethodPost, "/api/products", token, map[string]interface{}{"price": 10.0})
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺名称 status = %d, want 400, body = %s", w.Code, w.Body.String())
	}
}

func TestCatalogController_TherapistReadOnly(t *testing.T) {
	r := setupCatalogRouter(t)

	token, err := middleware.GenerateAccessToken(middleware.StoreClaims{
		StoreID:    1,
		Permission: model.PermissionTherapist,
	})
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}

	w := doRequest(r, http.MethodGet, "/api/products", token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("理疗师读接口 status = %d, want 200", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/products", token, map[string]interface{}{
		"code": "CTL0401", "name": "理疗师不可建", "price": 1.0,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("理疗师写接口 status = %d, want 403", w.Code)
	}
}

func TestCatalogController_Unpublish(t *testing.T) {
	r := setupCatalogRouter(t)
	token := adminToken(t)

	if w := doRequest(r, http.MethodPost, "/api/products", token, map[string]interface{}{
		"code": "CTL0501", "name": "迷迭香精油", "price": 128.0,
	}); w.Code != http.StatusOK {
		t.Fatalf("创建商品失败: %s", w.Body.String())
	}

	w := doRequest(r, http.MethodPatch, "/api/items/products/1/unpublish", token, map[string]interface{}{
		"reason": "季节性下架",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("下架 status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/products/1", token, nil)
	var got struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.Data.Status != model.StatusUnpublished {
		t.Errorf("状态 = %s, 期望 %s", got.Data.Status, model.StatusUnpublished)
	}
}

func TestCatalogController_MutationNeedsAdmin(t *testing.T) {
	r := setupCatalogRouter(t)

	// 分店普通员工：能查不能改
	token, err := middleware.GenerateAccessToken(middleware.StoreClaims{
		StoreID:    2,
		StoreLevel: model.StoreLevelBranch,
		Permission: model.PermissionBasic,
	})
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}

	w := doRequest(r, http.MethodGet, "/api/products", token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("普通员工读接口 status = %d, want 200", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/products", token, map[string]interface{}{
		"code": "CTL0601", "name": "普通员工不可建", "price": 1.0,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("普通员工建商品 status = %d, want 403", w.Code)
	}

	w = doRequest(r, http.MethodDelete, "/api/products/1", token, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("普通员工删商品 status = %d, want 403", w.Code)
	}

	w = doRequest(r, http.MethodPatch, "/api/items/products/1/unpublish", token, map[string]interface{}{
		"reason": "无权下架",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("普通员工下架 status = %d, want 403", w.Code)
	}
}
