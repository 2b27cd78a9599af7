package artists

import (
	"github.com/gin-gonic/gin"

	"gigbook/internal/shared/middleware"
)

func SetupArtistRoutes(rg *gin.RouterGroup, controller *Controller) {
	artists := rg.Group("/artists")
	{
		artists.GET("/:id", controller.GetArtist) // GET /api/v1/artists/:id
	}

	admin := rg.Group("/admin/artists")
	admin.Use(middleware.Identity(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateArtist)                             // POST /api/v1/admin/artists
		admin.POST("/:id/unavailability", controller.DeclareUnavailability) // POST /api/v1/admin/artists/:id/unavailability
	}
}
