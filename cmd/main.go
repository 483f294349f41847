package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wellness_erp_v1_202609/internal/controller"
	"wellness_erp_v1_202609/internal/middleware"
	"wellness_erp_v1_202609/internal/model"
	"wellness_erp_v1_202609/internal/repository"
	"wellness_erp_v1_202609/internal/router"
	"wellness_erp_v1_202609/internal/service"
	"wellness_erp_v1_202609/internal/task"
	"wellness_erp_v1_202609/pkg/config"
	"wellness_erp_v1_202609/pkg/database"
	"wellness_erp_v1_202609/pkg/logger"
)

func main() {
	// 1. 加载配置、初始化日志
	cfg := config.Load("")
	if err := logger.Init(getEnv("LOG_LEVEL", "info")); err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.L.Sync()

	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:      cfg.JWT.SecretKey,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
		Issuer:         cfg.JWT.Issuer,
	})

	// 2. 初始化数据库
	db := initDatabase(cfg)

	// 3. 初始化依赖
	deps := initDependencies(db, cfg)

	// 4. 启动定时任务
	initTasks(deps, cfg)

	// 5. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, *deps.Controllers)

	// 6. 启动服务
	startServer(r, cfg)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Product   repository.ProductRepository
	Therapy   repository.TherapyRepository
	Bundle    repository.BundleRepository
	Master    repository.MasterRepository
	Stock     repository.StockRepository
	Sell      repository.SellRepository
	Order     repository.OrderRepository
	PriceBook repository.PriceBookRepository
	Member    repository.MemberRepository
	Health    repository.HealthRepository
}

// Services 服务集合
type Services struct {
	Auth      *service.AuthService
	Master    *service.MasterService
	Stock     *service.StockService
	Catalog   *service.CatalogService
	Bundle    *service.BundleService
	Resolver  *service.PriceResolver
	PriceBook *service.PriceBookService
	Sell      *service.SellService
	Order     *service.OrderService
	Inventory *service.InventoryService
	Health    *service.HealthService
	Excel     *service.ExcelService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库并迁移全部表
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(cfg.Database.DSN,
		// 目录
		&model.Product{}, &model.Therapy{}, &model.PriceTier{},
		&model.ProductBundle{}, &model.TherapyBundle{}, &model.BundleItem{},
		&model.Category{}, &model.CategoryLink{},
		// 主商品注册表与库存
		&model.MasterProduct{}, &model.ProductVariant{}, &model.InventoryItem{},
		&model.StoreTypePrice{}, &model.MasterStock{}, &model.StockTransaction{},
		&model.InventoryRecord{},
		// 价格本
		&model.MemberPriceBook{}, &model.MemberPriceBookItem{}, &model.MemberPriceBookStore{},
		// 销售
		&model.SalesOrder{}, &model.SalesOrderItem{},
		&model.ProductSell{}, &model.TherapySell{},
		// 组织与会员
		&model.Store{}, &model.Staff{}, &model.Member{},
		// 健康档案
		&model.MedicalRecord{}, &model.PureHealthRecord{},
		&model.StressTest{}, &model.TherapyRecord{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB, cfg *config.Config) *Dependencies {
	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 业务服务，注意先后依赖 --------
	services := &Services{}
	services.Auth = service.NewAuthService(repos.Member)
	services.Master = service.NewMasterService(db, repos.Master)
	services.Stock = service.NewStockService(db, repos.Stock, repos.Master, services.Master)
	services.Catalog = service.NewCatalogService(db, repos.Product, repos.Therapy, repos.Sell,
		services.Master, services.Stock)
	services.Bundle = service.NewBundleService(db, repos.Bundle, repos.Product, repos.Therapy)
	services.Resolver = service.NewPriceResolver(repos.PriceBook)
	services.PriceBook = service.NewPriceBookService(repos.PriceBook)
	services.Sell = service.NewSellService(db, repos.Sell, repos.Stock, repos.Product,
		repos.Therapy, repos.Bundle, services.Stock, services.Resolver)
	services.Order = service.NewOrderService(db, repos.Order)
	services.Inventory = service.NewInventoryService(db, repos.Stock, repos.Sell)
	services.Health = service.NewHealthService(repos.Member, repos.Health, services.Sell)
	services.Excel = service.NewExcelService(db, repos.Sell, repos.Order,
		services.Stock, repos.Product, repos.PriceBook)

	// -------- Controller 层 --------
	controllers := initControllers(repos, services, cfg)

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initRepositories 初始化所有仓库
func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product:   repository.NewProductRepository(db),
		Therapy:   repository.NewTherapyRepository(db),
		Bundle:    repository.NewBundleRepository(db),
		Master:    repository.NewMasterRepository(db),
		Stock:     repository.NewStockRepository(db),
		Sell:      repository.NewSellRepository(db),
		Order:     repository.NewOrderRepository(db),
		PriceBook: repository.NewPriceBookRepository(db),
		Member:    repository.NewMemberRepository(db),
		Health:    repository.NewHealthRepository(db),
	}
}

// initControllers 初始化所有控制器
func initControllers(repos *Repositories, svc *Services, cfg *config.Config) *router.Controllers {
	return &router.Controllers{
		Auth:    controller.NewAuthController(svc.Auth),
		Catalog: controller.NewCatalogController(svc.Catalog),
		Bundle:  controller.NewBundleController(svc.Bundle),
		Inventory: controller.NewInventoryController(svc.Inventory, svc.Stock, svc.Master,
			repos.Master, svc.Excel, cfg.Task.LowStockThreshold),
		Sell:      controller.NewSellController(svc.Sell, svc.Excel),
		Order:     controller.NewOrderController(svc.Order, svc.Excel),
		Health:    controller.NewHealthController(svc.Health),
		PriceBook: controller.NewPriceBookController(svc.PriceBook, svc.Resolver, svc.Excel),
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies, cfg *config.Config) {
	if !cfg.Task.LowStockEnabled {
		return
	}
	monitor := task.NewLowStockMonitor(deps.Services.Stock, deps.Repos.Master,
		cfg.Task.LowStockCron, cfg.Task.LowStockThreshold)
	if err := monitor.Start(); err != nil {
		logger.L.Error("低库存巡检任务启动失败", zap.Error(err))
		return
	}
	logger.L.Info("定时任务已启动")
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, cfg *config.Config) {
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 异步启动服务
	go func() {
		logger.L.Info("服务启动", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L.Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	logger.L.Info("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
