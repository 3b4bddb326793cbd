package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/sdiallo/tably/internal/authguard"
	"github.com/sdiallo/tably/internal/handlers"
)

type Deps struct {
	DB             *gorm.DB
	JWTSecret      []byte
	OrderHandler   *handlers.OrderHandler
	StatsHandler   *handlers.StatsHandler
	CatalogHandler *handlers.CatalogHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	// Customer-facing surface: browsing the menu, launching an order from a
	// scanned table code and polling its status need no account.
	v1.POST("/orders", d.OrderHandler.Launch)
	v1.GET("/orders/:id/status", d.OrderHandler.Status)
	v1.GET("/menu/categories", d.CatalogHandler.GetCategories)
	v1.GET("/menu/categories/:id/products", d.CatalogHandler.GetCategoryProducts)
	v1.GET("/restaurant", d.CatalogHandler.GetRestaurant)
	v1.GET("/search", d.SearchHandler.Search)

	staff := v1.Group("/staff", authguard.Middleware(d.JWTSecret))

	staff.POST("/restaurant", d.CatalogHandler.CreateRestaurant)
	staff.PATCH("/restaurant/settings", d.CatalogHandler.UpdateSettings)

	staff.POST("/orders/:id/validate", d.OrderHandler.Validate)
	staff.POST("/orders/:id/cancel", d.OrderHandler.Cancel)
	staff.GET("/orders", d.StatsHandler.Orders)
	staff.GET("/orders/:id", d.StatsHandler.OrderDetail)

	staff.GET("/stats/summary", d.StatsHandler.Summary)
	staff.GET("/stats/breakdown", d.StatsHandler.Breakdown)
	staff.GET("/stats/tables", d.StatsHandler.Tables)
	staff.GET("/stats/orders", d.StatsHandler.StatusCounts)
	staff.GET("/stats/analysis", d.StatsHandler.Analysis)

	staff.GET("/tables", d.CatalogHandler.GetTables)
	staff.POST("/tables", d.CatalogHandler.CreateTable)
	staff.PATCH("/tables/:id", d.CatalogHandler.RenameTable)
	staff.DELETE("/tables/:id", d.CatalogHandler.DeleteTable)

	staff.POST("/categories", d.CatalogHandler.CreateCategory)
	staff.PATCH("/categories/:id", d.CatalogHandler.UpdateCategory)
	staff.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory)

	staff.GET("/products", d.CatalogHandler.GetProducts)
	staff.POST("/products", d.CatalogHandler.CreateProduct)
	staff.PATCH("/products/:id", d.CatalogHandler.UpdateProduct)
	staff.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
}
