package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskwise-dev/taskwise/internal/handlers"
	"github.com/taskwise-dev/taskwise/internal/middleware"
	"github.com/taskwise-dev/taskwise/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthCheck)

	auth := r.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
		auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		auth.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
	}

	api := r.Group("/api/:user_id", middleware.AuthMiddleware())
	{
		api.GET("/tasks", handlers.ListTasks)
		api.POST("/tasks", handlers.CreateTask)
		api.PUT("/tasks/:task_id", handlers.UpdateTask)
		api.DELETE("/tasks/:task_id", handlers.DeleteTask)
		api.PATCH("/tasks/:task_id/complete", handlers.ToggleTaskComplete)

		api.POST("/chat", handlers.Chat)
		api.GET("/chat/history", handlers.ChatHistory)
	}

	return r
}
