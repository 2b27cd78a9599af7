package bookings

import (
	"github.com/gin-gonic/gin"

	"gigbook/internal/shared/middleware"
	"gigbook/pkg/ratelimit"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, limiter *ratelimit.RateLimiter) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.Identity())
	{
		reserveHandlers := []gin.HandlerFunc{controller.Reserve}
		if limiter != nil {
			reserveHandlers = append([]gin.HandlerFunc{ratelimit.Middleware(limiter)}, reserveHandlers...)
		}
		bookings.POST("/reserve", reserveHandlers...)   // POST /api/v1/bookings/reserve
		bookings.GET("", controller.GetUserBookings)    // GET /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)     // GET /api/v1/bookings/:id
		bookings.POST("/:id/cancel", controller.Cancel) // POST /api/v1/bookings/:id/cancel
	}

	// Operator-side status transitions.
	admin := rg.Group("/admin/bookings")
	admin.Use(middleware.Identity(), middleware.RequireAdmin())
	{
		admin.POST("/:id/transition", controller.ApplyTransition) // POST /api/v1/admin/bookings/:id/transition
	}
}
