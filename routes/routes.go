package routes

import (
	"time"

	"chatgroup/handlers"
	"chatgroup/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Chat Group API is running",
			"time":    time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	// Chat group operations
	chats := router.Group("/api/chat-group")
	chats.Use(middleware.JWTAuthMiddleware())

	chats.GET("/", handlers.ListChats) // role-routed: Admin, Super Admin, everyone else
	chats.POST("/create", middleware.RequireGlobalRole(middleware.GlobalRoleAdmin), handlers.CreateChat)
	chats.GET("/organization/:id", handlers.GetOrganizationChats)
	chats.GET("/project/:id", handlers.GetProjectChats)
	chats.GET("/chat/:id", handlers.GetChatByID)
	chats.PUT("/update/:id", handlers.UpdateChat)
	chats.DELETE("/delete/:id", handlers.DeleteChat)
	chats.POST("/join", handlers.JoinChatViaLink)
	chats.POST("/:id/invitation-link", handlers.GenerateInvitationLink)
	chats.POST("/:id/remove-participant", handlers.RemoveParticipant)

	// Message operations
	messages := router.Group("/api/messages")
	messages.Use(middleware.JWTAuthMiddleware())

	messages.POST("/", handlers.SendMessage)
	messages.GET("/chat/:chatId", handlers.GetMessages)
	messages.PUT("/:id", handlers.UpdateMessage)
	messages.DELETE("/:id", handlers.DeleteMessage)
	messages.POST("/:id/read", handlers.MarkAsRead)
	messages.GET("/chat/:chatId/search", handlers.SearchMessages)

	router.NoRoute(func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(404, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
