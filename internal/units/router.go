package units

import (
	"github.com/gin-gonic/gin"

	"gigbook/internal/shared/middleware"
)

func SetupUnitRoutes(rg *gin.RouterGroup, controller *Controller) {
	venues := rg.Group("/venues")
	{
		venues.GET("/:venueId/units", controller.GetVenueUnits) // GET /api/v1/venues/:venueId/units
	}

	admin := rg.Group("/admin/units")
	admin.Use(middleware.Identity(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateUnit) // POST /api/v1/admin/units
	}
}
