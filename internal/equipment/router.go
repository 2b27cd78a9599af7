package equipment

import (
	"github.com/gin-gonic/gin"

	"gigbook/internal/shared/middleware"
)

func SetupEquipmentRoutes(rg *gin.RouterGroup, controller *Controller) {
	equipment := rg.Group("/equipment")
	{
		equipment.GET("/:id", controller.GetEquipment) // GET /api/v1/equipment/:id
	}

	admin := rg.Group("/admin/equipment")
	admin.Use(middleware.Identity(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateEquipment)                     // POST /api/v1/admin/equipment
		admin.POST("/:id/maintenance", controller.AddMaintenanceBlock) // POST /api/v1/admin/equipment/:id/maintenance
	}
}
