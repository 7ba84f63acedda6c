package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
	"mutual_aid/internal/middleware"
)

func HistoryRoutes(api *gin.RouterGroup, hc *controllers.HistoryController) {
	history := api.Group("/history", middleware.RequireAuth())
	{
		history.GET("", hc.List)
		history.POST("", hc.Record)
		history.GET("/stats", hc.Stats)
	}
}
