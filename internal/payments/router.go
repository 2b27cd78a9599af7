package payments

import (
	"github.com/gin-gonic/gin"

	"gigbook/internal/shared/middleware"
)

func SetupPaymentRoutes(rg *gin.RouterGroup, controller *Controller) {
	payments := rg.Group("/payments")
	{
		// The gateway authenticates out of band, not with user headers.
		payments.POST("/callback", controller.GatewayCallback) // POST /api/v1/payments/callback
	}

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.Identity())
	{
		bookings.GET("/:id/payments", controller.GetBookingPayments) // GET /api/v1/bookings/:id/payments
	}
}
