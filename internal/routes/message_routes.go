package routes

import (
	"github.com/gin-gonic/gin"

	"mutual_aid/internal/controllers"
	"mutual_aid/internal/middleware"
)

// MessageRoutes registers direct messaging. The websocket authenticates
// itself so it can take the token from the query string.
func MessageRoutes(api *gin.RouterGroup, mc *controllers.MessageController) {
	messages := api.Group("/messages")
	{
		messages.GET("/ws", mc.Stream)

		authed := messages.Group("", middleware.RequireAuth())
		authed.POST("/send", mc.Send)
		authed.GET("/conversation/:userId", mc.Conversation)
		authed.GET("/conversations", mc.Conversations)
		authed.GET("/unread-count", mc.UnreadCount)
	}
}
