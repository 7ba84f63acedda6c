package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
)

func EmergencyRoutes(api *gin.RouterGroup, ec *controllers.EmergencyController) {
	emergency := api.Group("/emergency")
	{
		emergency.GET("", ec.List)
		emergency.GET("/category/:category", ec.ByCategory)
		emergency.GET("/search", ec.Search)
	}
}
