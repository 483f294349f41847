package router

import (
	"github.com/gin-gonic/gin"

	"wellness_erp_v1_202609/internal/controller"
	"wellness_erp_v1_202609/internal/middleware"
)

// Controllers 路由依赖的全部控制器
type Controllers struct {
	Auth      *controller.AuthController
	Catalog   *controller.CatalogController
	Bundle    *controller.BundleController
	Inventory *controller.InventoryController
	Sell      *controller.SellController
	Order     *controller.OrderController
	Health    *controller.HealthController
	PriceBook *controller.PriceBookController
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls Controllers) {
	// 登录不需要认证
	r.POST("/api/auth/login", ctls.Auth.Login)

	api := r.Group("/api")
	api.Use(middleware.JWTAuth(), middleware.RejectTherapistWrite())
	{
		// 员工管理，仅管理员
		staff := api.Group("/staff", middleware.RequireAdmin())
		{
			staff.POST("", ctls.Auth.CreateStaff)
		}

		// 门店
		api.GET("/stores", ctls.Health.ListStores)

		// 目录维护仅管理员，查询对全员开放
		admin := middleware.RequireAdmin()

		// 目录: 商品
		products := api.Group("/products")
		{
			products.GET("", ctls.Catalog.ListProducts)
			products.POST("", admin, ctls.Catalog.CreateProduct)
			products.GET("/:id", ctls.Catalog.GetProduct)
			products.PUT("/:id", admin, ctls.Catalog.UpdateProduct)
			products.DELETE("/:id", admin, ctls.Catalog.DeleteProduct)
		}

		// 目录: 疗程
		therapies := api.Group("/therapies")
		{
			therapies.GET("", ctls.Catalog.ListTherapies)
			therapies.POST("", admin, ctls.Catalog.CreateTherapy)
			therapies.PUT("/:id", admin, ctls.Catalog.UpdateTherapy)
			therapies.DELETE("/:id", admin, ctls.Catalog.DeleteTherapy)
		}

		// 目录: 套组
		productBundles := api.Group("/product-bundles")
		{
			productBundles.GET("", ctls.Bundle.ListProductBundles)
			productBundles.POST("", admin, ctls.Bundle.CreateProductBundle)
			productBundles.PUT("/:id", admin, ctls.Bundle.UpdateProductBundle)
			productBundles.DELETE("/:id", admin, ctls.Bundle.DeleteProductBundle)
		}
		therapyBundles := api.Group("/therapy-bundles")
		{
			therapyBundles.GET("", ctls.Bundle.ListTherapyBundles)
			therapyBundles.POST("", admin, ctls.Bundle.CreateTherapyBundle)
			therapyBundles.PUT("/:id", admin, ctls.Bundle.UpdateTherapyBundle)
			therapyBundles.DELETE("/:id", admin, ctls.Bundle.DeleteTherapyBundle)
		}

		// 目录: 分类
		categories := api.Group("/categories")
		{
			categories.GET("", ctls.Bundle.ListCategories)
			categories.POST("", admin, ctls.Bundle.CreateCategory)
			categories.PUT("/:id", admin, ctls.Bundle.UpdateCategory)
			categories.DELETE("/:id", admin, ctls.Bundle.DeleteCategory)
			categories.POST("/link", admin, ctls.Bundle.LinkCategories)
		}

		// 上下架开关
		items := api.Group("/items", middleware.RequireAdmin())
		{
			items.PATCH("/:type/:id/publish", ctls.Catalog.Publish)
			items.PATCH("/:type/:id/unpublish", ctls.Catalog.Unpublish)
		}

		// 库存: 手工台账 + 统一历史
		inventory := api.Group("/inventory")
		{
			inventory.GET("/list", ctls.Inventory.ListRecords)
			inventory.GET("/search", ctls.Inventory.ListRecords)
			inventory.GET("/low-stock", ctls.Inventory.LowStocks)
			inventory.GET("/records", ctls.Inventory.History)
			inventory.POST("/add", ctls.Inventory.AddRecord)
			inventory.PUT("/update/:id", ctls.Inventory.UpdateRecord)
			inventory.DELETE("/delete/:id", ctls.Inventory.DeleteRecord)
			inventory.GET("/export", ctls.Inventory.ExportStocks)

			// 库存: 主库存
			master := inventory.Group("/master")
			{
				master.GET("/products", ctls.Inventory.ListMasters)
				master.GET("/outbound/variants", ctls.Inventory.OutboundVariants)
				master.GET("/summary", ctls.Inventory.StockSummary)
				master.GET("/prices", ctls.Inventory.GetCostPrices)
				master.GET("/:id/variants", ctls.Inventory.ListMasterVariants)
				master.POST("/inbound", ctls.Inventory.Inbound)
				master.POST("/outbound", ctls.Inventory.Outbound)
				master.POST("/prices", middleware.RequireAdmin(), ctls.Inventory.SetCostPrice)
			}
		}

		// 销售: 商品
		productSell := api.Group("/product-sell")
		{
			productSell.POST("/add", ctls.Sell.AddProductSell)
			productSell.POST("/update/:id", ctls.Sell.UpdateProductSell)
			productSell.POST("/delete/:id", ctls.Sell.DeleteProductSell)
			productSell.GET("/list", ctls.Sell.ListProductSells)
			productSell.GET("/search", ctls.Sell.ListProductSells)
			productSell.GET("/detail/:id", ctls.Sell.GetProductSell)
			productSell.GET("/export", ctls.Sell.ExportProductSells)
			productSell.GET("/products", ctls.Catalog.ListSellableProducts)
			productSell.GET("/products/search", ctls.Catalog.ListSellableProducts)
		}

		// 销售: 疗程
		therapySell := api.Group("/therapy-sell")
		{
			therapySell.POST("/add", ctls.Sell.AddTherapySell)
			therapySell.POST("/update/:id", ctls.Sell.UpdateTherapySell)
			therapySell.POST("/delete/:id", ctls.Sell.DeleteTherapySell)
			therapySell.GET("/list", ctls.Sell.ListTherapySells)
			therapySell.GET("/search", ctls.Sell.ListTherapySells)
			therapySell.GET("/export", ctls.Sell.ExportTherapySells)
			therapySell.GET("/remaining", ctls.Sell.RemainingSessions)
			therapySell.GET("/therapies", ctls.Catalog.ListSellableTherapies)
			therapySell.GET("/therapies/search", ctls.Catalog.ListSellableTherapies)
		}

		// 销售: 销售单
		orders := api.Group("/sales-orders")
		{
			orders.POST("/add", ctls.Order.AddOrder)
			orders.POST("/update/:id", ctls.Order.UpdateOrder)
			orders.POST("/delete/:id", ctls.Order.DeleteOrder)
			orders.GET("/list", ctls.Order.ListOrders)
			orders.GET("/search", ctls.Order.ListOrders)
			orders.GET("/detail/:id", ctls.Order.GetOrder)
			orders.GET("/export", ctls.Order.ExportOrders)
		}

		// 会员与健康档案
		members := api.Group("/members")
		{
			members.GET("", ctls.Health.ListMembers)
			members.POST("", ctls.Health.CreateMember)
			members.GET("/:id", ctls.Health.GetMember)
			members.PUT("/:id", ctls.Health.UpdateMember)
			members.DELETE("/:id", ctls.Health.DeleteMember)
		}
		health := api.Group("/health")
		{
			health.GET("/medical-records", ctls.Health.ListMedicalRecords)
			health.POST("/medical-records", ctls.Health.AddMedicalRecord)
			health.PUT("/medical-records/:id", ctls.Health.UpdateMedicalRecord)
			health.DELETE("/medical-records/:id", ctls.Health.DeleteMedicalRecord)

			health.GET("/pure-records", ctls.Health.ListPureHealthRecords)
			health.POST("/pure-records", ctls.Health.AddPureHealthRecord)
			health.DELETE("/pure-records/:id", ctls.Health.DeletePureHealthRecord)

			health.GET("/stress-tests", ctls.Health.ListStressTests)
			health.POST("/stress-tests", ctls.Health.SubmitStressTest)

			health.GET("/therapy-records", ctls.Health.ListTherapyRecords)
			health.POST("/therapy-records", ctls.Health.AddTherapyRecord)
		}

		// 价格本，仅管理员
		priceBooks := api.Group("/price-books", middleware.RequireAdmin())
		{
			priceBooks.GET("", ctls.PriceBook.ListBooks)
			priceBooks.POST("", ctls.PriceBook.CreateBook)
			priceBooks.GET("/:id", ctls.PriceBook.GetBook)
			priceBooks.PUT("/:id", ctls.PriceBook.UpdateBook)
			priceBooks.PUT("/:id/items", ctls.PriceBook.ReplaceItems)
			priceBooks.POST("/import", ctls.PriceBook.ImportWorkbook)
		}
		// 价格解析不限管理员
		api.POST("/price-books/resolve", ctls.PriceBook.Resolve)
	}
}
