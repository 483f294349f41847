package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
)

// ==================== 测试辅助 ====================

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Product{}, &model.Therapy{}, &model.PriceTier{},
		&model.ProductBundle{}, &model.TherapyBundle{}, &model.BundleItem{},
		&model.Category{}, &model.CategoryLink{},
		&model.MasterProduct{}, &model.ProductVariant{}, &model.InventoryItem{},
		&model.StoreTypePrice{}, &model.MasterStock{}, &model.StockTransaction{},
		&model.InventoryRecord{},
		&model.MemberPriceBook{}, &model.MemberPriceBookItem{}, &model.MemberPriceBookStore{},
		&model.SalesOrder{}, &model.SalesOrderItem{},
		&model.ProductSell{}, &model.TherapySell{},
		&model.Store{}, &model.Staff{}, &model.Member{},
		&model.MedicalRecord{}, &model.PureHealthRecord{},
		&model.StressTest{}, &model.TherapyRecord{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// testEnv 一套完整的仓储 + 服务依赖，按 main 的装配顺序
type testEnv struct {
	db *gorm.DB

	productRepo repository.ProductRepository
	therapyRepo repository.TherapyRepository
	bundleRepo  repository.BundleRepository
	masterRepo  repository.MasterRepository
	stockRepo   repository.StockRepository
	sellRepo    repository.SellRepository
	bookRepo    repository.PriceBookRepository
	memberRepo  repository.MemberRepository
	healthRepo  repository.HealthRepository
	orderRepo   repository.OrderRepository

	master    *MasterService
	stock     *StockService
	catalog   *CatalogService
	bundle    *BundleService
	resolver  *PriceResolver
	sell      *SellService
	order     *OrderService
	inventory *InventoryService
	health    *HealthService
	excel     *ExcelService
	books     *PriceBookService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupServiceTestDB(t)

	env := &testEnv{
		db:          db,
		productRepo: repository.NewProductRepository(db),
		therapyRepo: repository.NewTherapyRepository(db),
		bundleRepo:  repository.NewBundleRepository(db),
		masterRepo:  repository.NewMasterRepository(db),
		stockRepo:   repository.NewStockRepository(db),
		sellRepo:    repository.NewSellRepository(db),
		bookRepo:    repository.NewPriceBookRepository(db),
		memberRepo:  repository.NewMemberRepository(db),
		healthRepo:  repository.NewHealthRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
	}

	env.master = NewMasterService(db, env.masterRepo)
	env.stock = NewStockService(db, env.stockRepo, env.masterRepo, env.master)
	env.catalog = NewCatalogService(db, env.productRepo, env.therapyRepo, env.sellRepo,
		env.master, env.stock)
	env.bundle = NewBundleService(db, env.bundleRepo, env.productRepo, env.therapyRepo)
	env.resolver = NewPriceResolver(env.bookRepo)
	env.sell = NewSellService(db, env.sellRepo, env.stockRepo, env.productRepo,
		env.therapyRepo, env.bundleRepo, env.stock, env.resolver)
	env.order = NewOrderService(db, env.orderRepo)
	env.inventory = NewInventoryService(db, env.stockRepo, env.sellRepo)
	env.health = NewHealthService(env.memberRepo, env.healthRepo, env.sell)
	env.excel = NewExcelService(db, env.sellRepo, env.orderRepo, env.stock, env.productRepo, env.bookRepo)
	env.books = NewPriceBookService(env.bookRepo)
	return env
}

// createProduct 建商品并同步注册表
func (env *testEnv) createProduct(t *testing.T, code, name string, price, purchase float64) *model.Product {
	t.Helper()
	product := &model.Product{
		Code:          code,
		Name:          name,
		Price:         price,
		PurchasePrice: purchase,
		Status:        model.StatusPublished,
	}
	if err := env.catalog.CreateProduct(context.Background(), product, nil); err != nil {
		t.Fatalf("创建商品 %s 失败: %v", code, err)
	}
	return product
}

// createTherapy 建疗程
func (env *testEnv) createTherapy(t *testing.T, code, name string, price float64) *model.Therapy {
	t.Helper()
	therapy := &model.Therapy{
		Code:   code,
		Name:   name,
		Price:  price,
		Status: model.StatusPublished,
	}
	if err := env.catalog.CreateTherapy(context.Background(), therapy, nil); err != nil {
		t.Fatalf("创建疗程 %s 失败: %v", code, err)
	}
	return therapy
}

// receiveStock 按变体入库
func (env *testEnv) receiveStock(t *testing.T, variantID int64, qty int, storeID int64) {
	t.Helper()
	_, err := env.stock.Receive(context.Background(), ReceiveInput{
		VariantID: variantID,
		Quantity:  qty,
		StoreID:   storeID,
	})
	if err != nil {
		t.Fatalf("入库失败: %v", err)
	}
}

// createMember 建会员
func (env *testEnv) createMember(t *testing.T, name string, storeID int64) *model.Member {
	t.Helper()
	member := &model.Member{Name: name, StoreID: storeID}
	if err := env.health.CreateMember(context.Background(), member); err != nil {
		t.Fatalf("创建会员失败: %v", err)
	}
	return member
}
