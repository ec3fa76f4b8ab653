// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/thesheunit/storefront/internal/domain/admin"
	"github.com/thesheunit/storefront/internal/domain/analytics"
	"github.com/thesheunit/storefront/internal/domain/message"
	"github.com/thesheunit/storefront/internal/domain/order"
	"github.com/thesheunit/storefront/internal/domain/product"
	"github.com/thesheunit/storefront/internal/domain/user"
	"github.com/thesheunit/storefront/internal/interfaces/http/handlers"
	"github.com/thesheunit/storefront/internal/interfaces/http/middleware"
	"github.com/thesheunit/storefront/internal/pkg/pdf"
	"github.com/thesheunit/storefront/internal/session"
)

// Services are the domain services behind the API
type Services struct {
	Users     *user.Service
	Products  *product.Service
	Orders    *order.Service
	Messages  *message.Service
	Analytics *analytics.Service
	PDF       *pdf.Service
}

// SetupRoutes registers every API route on rg. The session middleware must
// already run on rg.
func SetupRoutes(rg *gin.RouterGroup, svc Services, signInPath string) {
	SetupAuthRoutes(rg, svc, signInPath)
	SetupCatalogRoutes(rg, svc)
	SetupShopperRoutes(rg, svc, signInPath)
	SetupAdminRoutes(rg, svc, signInPath)
}

// SetupAuthRoutes sets up authentication related routes
func SetupAuthRoutes(rg *gin.RouterGroup, svc Services, signInPath string) {
	authHandler := handlers.NewAuthHandler(svc.Users)

	auth := rg.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.RequireIdentity(signInPath), authHandler.Me)
	}
}

// SetupCatalogRoutes sets up public product routes
func SetupCatalogRoutes(rg *gin.RouterGroup, svc Services) {
	productHandler := handlers.NewProductHandler(svc.Products)
	messageHandler := handlers.NewMessageHandler(svc.Messages)

	rg.GET("/products", productHandler.GetProducts)
	rg.GET("/products/:id", productHandler.GetProduct)
	rg.GET("/categories", productHandler.GetCategories)
	rg.POST("/messages", messageHandler.Submit)
}

// SetupShopperRoutes sets up the cart, wishlist, profile and order routes.
// Cart and wishlist work for anonymous visitors; the wishlist and profile
// report sign-in requirements themselves.
func SetupShopperRoutes(rg *gin.RouterGroup, svc Services, signInPath string) {
	cartHandler := handlers.NewCartHandler(svc.Products)
	wishlistHandler := handlers.NewWishlistHandler()
	profileHandler := handlers.NewProfileHandler()
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Orders, svc.PDF)

	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:productId", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:productId", cartHandler.RemoveFromCart)
		cart.DELETE("", cartHandler.ClearCart)
	}

	wishlist := rg.Group("/wishlist")
	{
		wishlist.GET("", wishlistHandler.GetWishlist)
		wishlist.GET("/:productId", wishlistHandler.CheckItem)
		wishlist.POST("/:productId/toggle", wishlistHandler.ToggleItem)
	}

	rg.GET("/profile", profileHandler.GetProfile)
	rg.PUT("/profile", profileHandler.UpdateProfile)

	orders := rg.Group("/orders")
	orders.Use(middleware.RequireIdentity(signInPath))
	{
		orders.GET("", orderHandler.GetOrders)
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/invoice", invoiceHandler.GenerateInvoice)
		orders.GET("/:id/invoice/preview", invoiceHandler.PreviewInvoice)
	}
}

// SetupAdminRoutes sets up the back-office routes
func SetupAdminRoutes(rg *gin.RouterGroup, svc Services, signInPath string) {
	analyticsHandler := handlers.NewAnalyticsHandler(svc.Analytics)
	productHandler := handlers.NewProductHandler(svc.Products)
	invoiceHandler := handlers.NewInvoiceHandler(svc.Orders, svc.PDF)

	adminGroup := rg.Group("/admin")
	adminGroup.Use(middleware.RequireIdentity(signInPath))
	adminGroup.Use(middleware.RequireAdmin())
	{
		adminGroup.GET("/dashboard", analyticsHandler.GetDashboard)

		products := adminGroup.Group("/products")
		products.POST("", productHandler.CreateProduct)
		handlers.NewAdminTable("Products", func(v *session.AdminViews) *admin.Table[product.Product] {
			return v.Products
		}).Register(products)

		orders := adminGroup.Group("/orders")
		orders.GET("/:id/invoice", invoiceHandler.GenerateAdminInvoice)
		handlers.NewAdminTable("Orders", func(v *session.AdminViews) *admin.Table[order.Order] {
			return v.Orders
		}).Register(orders)

		handlers.NewAdminTable("Customers", func(v *session.AdminViews) *admin.Table[user.User] {
			return v.Customers
		}).Register(adminGroup.Group("/customers"))

		handlers.NewAdminTable("Messages", func(v *session.AdminViews) *admin.Table[message.Message] {
			return v.Messages
		}).Register(adminGroup.Group("/messages"))
	}
}
