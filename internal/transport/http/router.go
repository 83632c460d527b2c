package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mshibata/ecshop/internal/handlers"
	"github.com/mshibata/ecshop/internal/service"
)

type Deps struct {
	DB                 *gorm.DB
	AuthHandler        *handlers.AuthHandler
	ProductHandler     *handlers.ProductHandler
	CartHandler        *handlers.CartHandler
	OrderHandler       *handlers.OrderHandler
	StoreConfigHandler *handlers.StoreConfigHandler
	ServiceHandler     *service.TokenService
	SearchHandler      *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	cart := v1.Group("/cart", d.ServiceHandler.AutoRefreshMiddleware)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.DELETE("/:id", d.CartHandler.DeleteOneFromCart)
	cart.DELETE("/:id/all", d.CartHandler.DeleteAllFromCart)

	orders := v1.Group("/orders", d.ServiceHandler.AutoRefreshMiddleware)
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("", d.OrderHandler.MyOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	admin := v1.Group("/admin", d.ServiceHandler.AutoRefreshMiddlewareAdmin)

	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PATCH("/orders/:id/status", d.OrderHandler.SetStatus)

	admin.GET("/shipping-rates", d.StoreConfigHandler.ListShippingRates)
	admin.POST("/shipping-rates", d.StoreConfigHandler.CreateShippingRate)
	admin.PATCH("/shipping-rates/:id", d.StoreConfigHandler.PatchShippingRate)
	admin.DELETE("/shipping-rates/:id", d.StoreConfigHandler.DeleteShippingRate)

	admin.GET("/payment-fees", d.StoreConfigHandler.ListPaymentFeeRules)
	admin.PUT("/payment-fees", d.StoreConfigHandler.UpsertPaymentFeeRule)
}
