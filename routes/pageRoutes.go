package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// PageRoutes sets up municipal page and follow routes
func PageRoutes(r *gin.Engine, pc *controllers.PageController) {
	page := r.Group("/api/page")
	{
		page.POST("/create", middlewares.AuthMiddleware(), middlewares.RequireStaff(), pc.CreatePage)
		page.GET("/handle/:handle", pc.GetPage)
		page.POST("/:id/follow", middlewares.AuthMiddleware(), pc.FollowPage)
		page.DELETE("/:id/follow", middlewares.AuthMiddleware(), pc.UnfollowPage)
		page.POST("/:id/post", middlewares.AuthMiddleware(), middlewares.RequireStaff(), pc.PostUpdate)
	}
}
