package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
	"mutual_aid/internal/middleware"
	"mutual_aid/internal/models"
)

type adminControllers struct {
	admin      *controllers.AdminController
	content    contentControllers
	incidents  *controllers.IncidentController
	volunteers *controllers.VolunteerController
	emergency  *controllers.EmergencyController
	history    *controllers.HistoryController
}

func AdminRoutes(api *gin.RouterGroup, ac adminControllers) {
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/stats", ac.admin.Dashboard)
		admin.GET("/users", ac.admin.ListUsers)
		admin.PUT("/users/:userId/role", ac.admin.ChangeRole)
		admin.DELETE("/users/:userId", ac.admin.DeleteUser)

		admin.GET("/volunteers/requests", ac.volunteers.AdminRequests)
		admin.GET("/volunteers/status", ac.volunteers.AdminByStatus)
		admin.GET("/volunteers/status/:status", ac.volunteers.AdminByStatus)
		for _, action := range decisions {
			admin.POST("/volunteers/:userId/"+string(action), ac.volunteers.Decide(action))
		}

		admin.DELETE("/posts/:id", ac.content.posts.AdminDelete)
		admin.DELETE("/donations/:id", ac.content.donations.AdminDelete)
		admin.DELETE("/events/:id", ac.content.events.AdminDelete)
		admin.DELETE("/learning/:id", ac.content.learning.AdminDelete)
		admin.DELETE("/incidents/:id", ac.incidents.AdminDelete)
		admin.GET("/incidents/stats", ac.incidents.Stats)

		admin.POST("/emergency", ac.emergency.Create)
		admin.DELETE("/emergency/:contactId", ac.emergency.Delete)

		admin.GET("/logs", ac.history.Latest)
	}
}
