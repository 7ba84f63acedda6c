package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
	"mutual_aid/internal/middleware"
)

// IncidentRoutes registers incident reports and their follow-up updates.
// Reports may be filed anonymously.
func IncidentRoutes(api *gin.RouterGroup, ic *controllers.IncidentController) {
	requireAuth := middleware.RequireAuth()

	incidents := api.Group("/incidents")
	{
		incidents.GET("", ic.List)
		incidents.POST("", ic.Create)
		incidents.GET("/my-updates", requireAuth, ic.MyUpdates)
		incidents.PUT("/updates/:updateId", requireAuth, ic.EditUpdate)
		incidents.DELETE("/updates/:updateId", requireAuth, ic.DeleteUpdate)

		incidents.GET("/:id", ic.Get)
		incidents.PUT("/:id", requireAuth, ic.Update)
		incidents.PUT("/:id/status", requireAuth, ic.UpdateStatus)
		incidents.DELETE("/:id", requireAuth, ic.Delete)
		incidents.GET("/:id/updates", ic.ListUpdates)
		incidents.POST("/:id/updates", requireAuth, ic.AddUpdate)
	}
}
