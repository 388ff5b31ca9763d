package http

import "github.com/gin-gonic/gin"

func RegisterPickupRoutes(r *gin.Engine, handler *PickupHandler) {
	pickups := r.Group("/pickups")
	{
		pickups.POST("", handler.CreatePickup)
		pickups.GET("", handler.ListPickups)
		pickups.GET("/:id", handler.GetPickup)
		pickups.PATCH("/:id", handler.UpdatePickup)
		pickups.DELETE("/:id", handler.DeletePickup)
	}
}
