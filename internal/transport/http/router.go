package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/gospelline/storefront/internal/handlers"
	"github.com/gospelline/storefront/internal/handlers/cart"
	"github.com/gospelline/storefront/internal/handlers/checkout"
	"github.com/gospelline/storefront/internal/handlers/library"
	"github.com/gospelline/storefront/internal/handlers/notifications"
	"github.com/gospelline/storefront/internal/handlers/saved"
	"github.com/gospelline/storefront/internal/handlers/webhook"
	"github.com/gospelline/storefront/internal/metrics"
	"github.com/gospelline/storefront/internal/service/token"
)

type Deps struct {
	DB                  *gorm.DB
	AuthHandler         *handlers.AuthHandler
	ProfileHandler      *handlers.ProfileHandler
	ProductHandler      *handlers.ProductHandler
	SearchHandler       *handlers.SearchHandler
	BrandHandler        *handlers.BrandHandler
	CartHandler         *cart.CartHandler
	SavedHandler        *saved.SavedHandler
	CheckoutHandler     *checkout.CheckoutHandler
	WebhookHandler      *webhook.PaystackHandler
	NotificationHandler *notifications.NotificationHandler
	LibraryHandler      *library.LibraryHandler
	ServiceHandler      *token.TokenService
}

// statusLabel resolves the status to record before the error handler
// has committed a response: plain errors become 500s, not the default
// 200 still sitting on the response.
func statusLabel(err error, committed int) int {
	if err == nil {
		return committed
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}

func observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := statusLabel(err, c.Response().Status)
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(observe)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)
	v1.GET("/search", d.SearchHandler.Search)

	v1.GET("/brands", d.BrandHandler.List)
	v1.GET("/brands/:slug/dashboard", d.BrandHandler.Dashboard)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	admin := v1.Group("/admin", d.ServiceHandler.AutoRefreshMiddlewareAdmin)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)

	me := v1.Group("/me", d.ServiceHandler.AutoRefreshMiddleware)
	me.GET("", d.ProfileHandler.GetProfile)
	me.PATCH("", d.ProfileHandler.UpdateProfile)

	cartGroup := v1.Group("/cart", d.ServiceHandler.AutoRefreshMiddleware)
	cartGroup.GET("", d.CartHandler.GetCart)
	cartGroup.POST("", d.CartHandler.AddToCart)
	cartGroup.PUT("/:productID", d.CartHandler.UpdateQuantity)
	cartGroup.DELETE("/:productID", d.CartHandler.RemoveFromCart)
	cartGroup.DELETE("", d.CartHandler.ClearCart)

	// Guest saved-items need no session, only the guest token header.
	v1.GET("/saved/guest", d.SavedHandler.GuestList)
	v1.POST("/saved/guest/toggle", d.SavedHandler.GuestToggle)
	v1.GET("/saved/guest/:productID", d.SavedHandler.GuestIsSaved)

	savedGroup := v1.Group("/saved", d.ServiceHandler.AutoRefreshMiddleware)
	savedGroup.GET("", d.SavedHandler.List)
	savedGroup.POST("/toggle", d.SavedHandler.Toggle)
	savedGroup.POST("/merge", d.SavedHandler.Merge)
	savedGroup.GET("/:productID", d.SavedHandler.IsSaved)

	checkoutGroup := v1.Group("/checkout", d.ServiceHandler.AutoRefreshMiddleware)
	checkoutGroup.POST("/initialize", d.CheckoutHandler.Initialize)

	v1.POST("/donations/initialize", d.CheckoutHandler.InitializeDonation, d.ServiceHandler.AutoRefreshMiddleware)
	v1.GET("/payments/:reference/status", d.CheckoutHandler.PaymentStatus, d.ServiceHandler.AutoRefreshMiddleware)

	v1.POST("/webhooks/paystack", d.WebhookHandler.Handle)

	notifGroup := v1.Group("/notifications", d.ServiceHandler.AutoRefreshMiddleware)
	notifGroup.GET("", d.NotificationHandler.List)
	notifGroup.PATCH("/:id/read", d.NotificationHandler.MarkRead)
	notifGroup.POST("/read-all", d.NotificationHandler.MarkAllRead)

	v1.GET("/ws/notifications", d.NotificationHandler.Stream)

	libGroup := v1.Group("", d.ServiceHandler.AutoRefreshMiddleware)
	libGroup.GET("/library", d.LibraryHandler.List)
	libGroup.GET("/products/:id/lessons", d.LibraryHandler.Lessons)
	libGroup.GET("/lessons/:id/progress", d.LibraryHandler.GetProgress)
	libGroup.PUT("/lessons/:id/progress", d.LibraryHandler.UpdateProgress)
}
