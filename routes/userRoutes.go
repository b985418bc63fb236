package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up profile, leaderboard, and notification routes
func UserRoutes(r *gin.Engine, uc *controllers.UserController) {
	user := r.Group("/api/user")
	{
		user.GET("/profile", middlewares.AuthMiddleware(), uc.GetProfile)
		user.GET("/leaderboard", uc.GetLeaderboard)
		user.GET("/notifications", middlewares.AuthMiddleware(), uc.GetNotifications)
		user.POST("/notifications/:id/read", middlewares.AuthMiddleware(), uc.MarkNotificationRead)
	}
}
