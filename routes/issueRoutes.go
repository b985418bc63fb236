package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue lifecycle routes
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, submissionLimit int) {
	issue := r.Group("/api/issue")
	{
		issue.POST("/create", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(submissionLimit), ic.CreateIssue)
		issue.GET("/analytics", ic.GetIssueAnalytics)
		issue.GET("/mine", middlewares.AuthMiddleware(), ic.GetMyIssues)
		issue.GET("", ic.ListIssues)
		issue.GET("/:id", ic.GetIssue)
		issue.POST("/:id/upvote", middlewares.AuthMiddleware(), ic.UpvoteIssue)
		issue.POST("/:id/transition", middlewares.AuthMiddleware(), middlewares.RequireStaff(), ic.TransitionIssue)
		issue.POST("/:id/comments", middlewares.AuthMiddleware(), ic.AddComment)
		issue.GET("/:id/comments", ic.GetComments)
	}
}
