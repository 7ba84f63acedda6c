package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/models"
	"mutual_aid/internal/volunteer"
)

var decisions = []volunteer.Action{
	volunteer.ActionApprove,
	volunteer.ActionReject,
	volunteer.ActionHold,
	volunteer.ActionRevoke,
}

func VolunteerRoutes(api *gin.RouterGroup, vc *controllers.VolunteerController) {
	volunteers := api.Group("/volunteers")
	{
		volunteers.GET("", vc.List)
		volunteers.GET("/status/:status", vc.ByStatus)
		volunteers.POST("/request", middleware.RequireAuth(), vc.Request)

		admin := volunteers.Group("", middleware.RequireRole(models.RoleAdmin))
		admin.GET("/queue", vc.Queue)
		for _, action := range decisions {
			admin.POST("/"+string(action), vc.Decide(action))
		}
	}
}
