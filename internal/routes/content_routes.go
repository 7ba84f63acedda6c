package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
	"mutual_aid/internal/middleware"
)

type contentControllers struct {
	posts     *controllers.PostController
	donations *controllers.DonationController
	events    *controllers.EventController
	learning  *controllers.LearningController
}

// ContentRoutes registers posts, donations, events and learning sessions.
// Listing is public; every write needs a token.
func ContentRoutes(api *gin.RouterGroup, cc contentControllers) {
	requireAuth := middleware.RequireAuth()

	posts := api.Group("/posts")
	{
		posts.GET("", cc.posts.List)
		posts.POST("", requireAuth, cc.posts.Create)
		posts.PUT("/:id", requireAuth, cc.posts.Update)
		posts.PUT("/:id/status", requireAuth, cc.posts.UpdateStatus)
		posts.DELETE("/:id", requireAuth, cc.posts.Delete)
	}

	donations := api.Group("/donations")
	{
		donations.GET("", cc.donations.List)
		donations.POST("", requireAuth, cc.donations.Create)
		donations.PUT("/:id", requireAuth, cc.donations.Update)
		donations.PUT("/:id/status", requireAuth, cc.donations.UpdateStatus)
		donations.DELETE("/:id", requireAuth, cc.donations.Delete)
	}

	events := api.Group("/events")
	{
		events.GET("", cc.events.List)
		events.POST("", requireAuth, cc.events.Create)
		events.PUT("/:id", requireAuth, cc.events.Update)
		events.PUT("/:id/status", requireAuth, cc.events.UpdateStatus)
		events.DELETE("/:id", requireAuth, cc.events.Delete)
	}

	learning := api.Group("/learning")
	{
		learning.GET("", cc.learning.List)
		learning.GET("/:id", cc.learning.Get)
		learning.POST("", requireAuth, cc.learning.Create)
		learning.PUT("/:id", requireAuth, cc.learning.Update)
		learning.PUT("/:id/status", requireAuth, cc.learning.UpdateStatus)
		learning.DELETE("/:id", requireAuth, cc.learning.Delete)
	}
}
