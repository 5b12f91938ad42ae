package routes

import (
	"net/http"
	"time"

	"casabay/handlers"
	"casabay/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the handlers wired in main.
type HandlerBundle struct {
	Booking    *handlers.BookingHandler
	Settlement *handlers.SettlementHandler
}

// RegisterAuthRoutes registers admin session endpoints.
func RegisterAuthRoutes(r *gin.Engine) {
	api := r.Group("/api/admin")
	{
		api.POST("/login", handlers.AdminLoginHandler)

		protected := api.Group("")
		protected.Use(middleware.JWTAuthAdminMiddleware())
		protected.POST("/signout", handlers.AdminSignOutHandler)
	}
}

// RegisterBookingRoutes registers the booking CRUD endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/admin/bookings")
	{
		api.Use(middleware.JWTAuthAdminMiddleware())
		api.POST("", hb.Booking.CreateBookingHandler)
		api.GET("", hb.Booking.ListBookingsHandler)
		api.GET("/:id", hb.Booking.GetBookingHandler)
		api.PATCH("/:id", hb.Booking.UpdateBookingHandler)
	}
}

// RegisterSettlementRoutes registers the reconciliation endpoints.
func RegisterSettlementRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/admin/settlements")
	{
		api.Use(middleware.JWTAuthAdminMiddleware())
		api.POST("", hb.Settlement.OpenSettlementHandler)
		api.GET("/pending", hb.Settlement.PendingSettlementsHandler)
		api.POST("/approve", hb.Settlement.ApproveSettlementHandler)
		api.POST("/cancel", hb.Settlement.CancelSettlementHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Casabay"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	// Setup global middleware (e.g., CORS) here.
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAuthRoutes(r)
	RegisterBookingRoutes(r, hb)
	RegisterSettlementRoutes(r, hb)
}
