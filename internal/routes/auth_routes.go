package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
	"mutual_aid/internal/middleware"
)

func AuthRoutes(api *gin.RouterGroup, ac *controllers.AuthController, limiter gin.HandlerFunc) {
	users := api.Group("/users")
	{
		users.POST("/register", limiter, ac.Register)
		users.POST("/login", limiter, ac.Login)
		users.GET("/me", middleware.RequireAuth(), ac.Me)
	}
}
