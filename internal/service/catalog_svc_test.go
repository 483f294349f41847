package service

import (
	"context"
	"testing"

	"wellness_erp_v1_202609/internal/errs"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/pkg/utils"
)

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.catalog.CreateProduct(ctx, &model.Product{Code: "", Name: "无码"}, nil); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("空编码应返回参数错误, got %v", err)
	}

	env.createProduct(t, "CAT0101", "首款", 100, 40)
	err := env.catalog.CreateProduct(ctx, &model.Product{Code: "CAT0101", Name: "重码"}, nil)
	if errs.KindOf(err) != errs.KindConflict {
		t.Errorf("重复编码应返回冲突, got %v", err)
	}
}

func TestGetProductViewWithTiers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := &model.Product{Code: "CAT0201", Name: "草本精华", Price: 188, PurchasePrice: 60}
	tiers := []model.PriceTier{
		{IdentityType: model.IdentityMember, Price: 158},
		{IdentityType: model.IdentityDirectStore, Price: 120},
	}
	if err := env.catalog.CreateProduct(ctx, product, tiers); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	env.receiveStock(t, product.ID, 6, 1)

	view, err := env.catalog.GetProduct(ctx, product.ID)
	if err != nil {
		t.Fatalf("查详情失败: %v", err)
	}
	if view.PriceTierMap[model.IdentityMember] != 158 || view.PriceTierMap[model.IdentityDirectStore] != 120 {
		t.Errorf("档位映射 = %v", view.PriceTierMap)
	}

	// 在库数走列表视图
	admin := &middleware.StoreClaims{StoreID: 1, Permission: model.PermissionAdmin}
	views, _, err := env.catalog.ListProducts(ctx, admin, repository.CatalogFilter{Keyword: "草本精华"})
	if err != nil {
		t.Fatalf("查列表失败: %v", err)
	}
	if len(views) != 1 || views[0].InventoryQuantity != 6 {
		t.Errorf("列表视图 = %+v", views)
	}
}

func TestListProductsVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	open := env.createProduct(t, "CAT0301", "公开款", 100, 40)
	restricted := &model.Product{
		Code:            "CAT0401",
		Name:            "二号店专供",
		Price:           100,
		VisibleStoreIDs: utils.IntList{2},
	}
	if err := env.catalog.CreateProduct(ctx, restricted, nil); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	adminOnly := &model.Product{
		Code:               "CAT0501",
		Name:               "内部价目",
		Price:              100,
		VisiblePermissions: utils.StringList{model.PermissionAdmin},
	}
	if err := env.catalog.CreateProduct(ctx, adminOnly, nil); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	names := func(views []ProductView) map[string]bool {
		got := map[string]bool{}
		for _, v := range views {
			got[v.Name] = true
		}
		return got
	}

	// 一号店普通员工: 只看得到公开款
	branch := &middleware.StoreClaims{StoreID: 1, StoreLevel: model.StoreLevelBranch, Permission: model.PermissionBasic}
	views, _, err := env.catalog.ListProducts(ctx, branch, repository.CatalogFilter{})
	if err != nil {
		t.Fatalf("查列表失败: %v", err)
	}
	got := names(views)
	if !got[open.Name] || got["二号店专供"] || got["内部价目"] {
		t.Errorf("一号店可见集合 = %v", got)
	}

	// 二号店普通员工: 多看到门店专供
	branch2 := &middleware.StoreClaims{StoreID: 2, StoreLevel: model.StoreLevelBranch, Permission: model.PermissionBasic}
	views, _, err = env.catalog.ListProducts(ctx, branch2, repository.CatalogFilter{})
	if err != nil {
		t.Fatalf("查列表失败: %v", err)
	}
	got = names(views)
	if !got["二号店专供"] || got["内部价目"] {
		t.Errorf("二号店可见集合 = %v", got)
	}

	// 管理员全量可见
	admin := &middleware.StoreClaims{StoreID: 1, Permission: model.PermissionAdmin}
	views, _, err = env.catalog.ListProducts(ctx, admin, repository.CatalogFilter{})
	if err != nil {
		t.Fatalf("查列表失败: %v", err)
	}
	if len(views) != 3 {
		t.Errorf("管理员可见 %d 款, 期望 3", len(views))
	}

	// 未认证调用者什么都看不到
	views, _, err = env.catalog.ListProducts(ctx, nil, repository.CatalogFilter{})
	if err != nil {
		t.Fatalf("查列表失败: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("匿名可见 %d 款", len(views))
	}
}

func TestRowVisible(t *testing.T) {
	hq := &middleware.StoreClaims{StoreID: 1, StoreLevel: model.StoreLevelHeadquarters, Permission: model.PermissionBasic}
	if !RowVisible(hq, utils.IntList{99}, utils.StringList{model.PermissionAdmin}) {
		t.Error("总部应无条件可见")
	}

	branch := &middleware.StoreClaims{StoreID: 3, StoreLevel: model.StoreLevelBranch, Permission: model.PermissionTherapist}
	if RowVisible(branch, utils.IntList{1, 2}, nil) {
		t.Error("门店不在集合内应不可见")
	}
	if !RowVisible(branch, utils.IntList{2, 3}, nil) {
		t.Error("门店在集合内应可见")
	}
	if RowVisible(branch, nil, utils.StringList{model.PermissionBasic}) {
		t.Error("权限不在集合内应不可见")
	}
	if !RowVisible(branch, nil, nil) {
		t.Error("无限制的行应可见")
	}
	if RowVisible(nil, nil, nil) {
		t.Error("空调用者应不可见")
	}
}

func TestDeleteProductKeepsSellSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "CAT0601", "停售面膜", 100, 40)
	env.receiveStock(t, product.ID, 5, 1)
	sell, err := env.sell.PostProductSell(ctx, ProductSellInput{
		ProductID: product.ID, StoreID: 1, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("过账失败: %v", err)
	}

	if err := env.catalog.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("删除商品失败: %v", err)
	}
	if _, err := env.catalog.GetProduct(ctx, product.ID); errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("删除后仍可查到商品: %v", err)
	}

	// 历史销售行保留名字快照，外键置空
	kept, err := env.sell.GetProductSell(ctx, sell.ID)
	if err != nil {
		t.Fatalf("查销售行失败: %v", err)
	}
	if kept.ProductID != nil {
		t.Errorf("外键未置空: %v", *kept.ProductID)
	}
	if kept.ProductName != "停售面膜" {
		t.Errorf("名字快照 = %q", kept.ProductName)
	}
}

func TestSetPublishStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.createProduct(t, "CAT0701", "季节限定", 100, 40)
	if err := env.catalog.SetPublishStatus(ctx, model.OwnerTypeProduct, product.ID, false, "换季下架"); err != nil {
		t.Fatalf("下架失败: %v", err)
	}

	got, err := env.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("查商品失败: %v", err)
	}
	if got.Status != model.StatusUnpublished || got.UnpublishedReason != "换季下架" {
		t.Errorf("商品状态 = %q/%q", got.Status, got.UnpublishedReason)
	}

	// 主商品状态跟随变体
	master, err := env.masterRepo.GetMasterByCode(ctx, "CAT07")
	if err != nil {
		t.Fatalf("查主商品失败: %v", err)
	}
	if master.Status != model.StatusInactive {
		t.Errorf("主商品状态 = %q", master.Status)
	}

	// 重新上架会清空原因
	if err := env.catalog.SetPublishStatus(ctx, model.OwnerTypeProduct, product.ID, true, "忽略"); err != nil {
		t.Fatalf("上架失败: %v", err)
	}
	got, _ = env.productRepo.GetByID(ctx, product.ID)
	if got.Status != model.StatusPublished || got.UnpublishedReason != "" {
		t.Errorf("上架后状态 = %q/%q", got.Status, got.UnpublishedReason)
	}

	if err := env.catalog.SetPublishStatus(ctx, "COUPON", 1, false, ""); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("未知类型应返回参数错误, got %v", err)
	}
}

func TestDeleteClearsPriceTiers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := &model.Product{Code: "CAT0701", Name: "带档位面霜", Price: 200, PurchasePrice: 80}
	if err := env.catalog.CreateProduct(ctx, product, []model.PriceTier{
		{IdentityType: model.IdentityMember, Price: 180},
	}); err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	therapy := &model.Therapy{Code: "CAT0801", Name: "带档位推拿", Price: 300}
	if err := env.catalog.CreateTherapy(ctx, therapy, []model.PriceTier{
		{IdentityType: model.IdentityMember, Price: 260},
	}); err != nil {
		t.Fatalf("创建疗程失败: %v", err)
	}

	if err := env.catalog.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("删除商品失败: %v", err)
	}
	if err := env.catalog.DeleteTherapy(ctx, therapy.ID); err != nil {
		t.Fatalf("删除疗程失败: %v", err)
	}

	// 档位价必须随宿主一起删除
	var count int64
	if err := env.db.Model(&model.PriceTier{}).Count(&count).Error; err != nil {
		t.Fatalf("查档位失败: %v", err)
	}
	if count != 0 {
		t.Errorf("残留档位行 = %d, 期望 0", count)
	}
}
