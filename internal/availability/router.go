package availability

import (
	"github.com/gin-gonic/gin"
)

func SetupAvailabilityRoutes(rg *gin.RouterGroup, controller *Controller) {
	availability := rg.Group("/availability")
	{
		availability.GET("", controller.Check)                 // GET /api/v1/availability
		availability.GET("/artists", controller.SearchArtists) // GET /api/v1/availability/artists
	}
}
