package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kidzonehq/kidzone-backend/internal/handlers"
	"github.com/kidzonehq/kidzone-backend/internal/middleware"
)

func RegisterChatRoutes(r gin.IRouter) {
	chat := r.Group("/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/contacts", handlers.GetContacts)
		chat.GET("/conversations", handlers.GetConversations)
		chat.GET("/messages", handlers.GetMessages) // ?userId=...
		chat.POST("/messages", middleware.ChatRateLimit(), handlers.SendMessage)
		chat.DELETE("/conversations/:userId", handlers.DeleteConversation)

		// Stuck optimistic sends: list, retry, discard.
		chat.GET("/pending", handlers.GetPending) // ?userId=...
		chat.POST("/pending/retry", handlers.RetryPending)
		chat.POST("/pending/discard", handlers.DiscardPending)
	}
}
