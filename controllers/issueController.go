package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/repository"
	"civicpulse-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// IssueController exposes the lifecycle engine over HTTP.
type IssueController struct {
	Intake   *services.IntakeOrchestrator
	Upvotes  *services.UpvoteService
	Machine  *services.StateMachine
	Issues   *repository.IssueRepository
	Comments *repository.CommentRepository
	Pages    *repository.PageRepository
}

func NewIssueController(intake *services.IntakeOrchestrator, upvotes *services.UpvoteService, machine *services.StateMachine, issues *repository.IssueRepository, comments *repository.CommentRepository, pages *repository.PageRepository) *IssueController {
	return &IssueController{
		Intake:   intake,
		Upvotes:  upvotes,
		Machine:  machine,
		Issues:   issues,
		Comments: comments,
		Pages:    pages,
	}
}

func requestCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func actorID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}
	objID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return objID, true
}

// CreateIssue runs a submission through intake. A nearby open duplicate comes
// back as 409 with the existing issue's id.
func (ic *IssueController) CreateIssue(c *gin.Context) {
	reporter, ok := actorID(c)
	if !ok {
		return
	}

	var input struct {
		Title       string   `json:"title" binding:"required,max=200"`
		Description string   `json:"description" binding:"required,max=1000"`
		Category    string   `json:"category" binding:"required"`
		ImageURL    string   `json:"imageUrl" binding:"required"`
		ProofImages []string `json:"proofImages,omitempty"`
		Latitude    float64  `json:"latitude" binding:"min=-90,max=90"`
		Longitude   float64  `json:"longitude" binding:"min=-180,max=180"`
		Address     string   `json:"address,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	sub := services.Submission{
		Reporter:    reporter,
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		ImageURL:    input.ImageURL,
		ProofImages: input.ProofImages,
		Longitude:   input.Longitude,
		Latitude:    input.Latitude,
		Address:     input.Address,
	}

	// Route the issue to the page owning its department, if one exists.
	if page, err := ic.Pages.FindByDepartment(ctx, services.DepartmentFor(sub.Category)); err == nil && page != nil {
		sub.Page = &page.ID
	}

	issue, err := ic.Intake.Submit(ctx, sub)
	if err != nil {
		var vErr *services.ValidationError
		var dupErr *services.DuplicateConflictError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
		case errors.As(err, &dupErr):
			c.JSON(http.StatusConflict, gin.H{
				"error":         "duplicate nearby",
				"existingIssue": dupErr.Existing.Hex(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		}
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// GetIssue retrieves an issue by its ID
func (ic *IssueController) GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	issue, err := ic.Issues.FindByID(ctx, issueID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, issue)
}

// ListIssues returns the triage queue with filtering, pagination, and
// priority ordering.
func (ic *IssueController) ListIssues(c *gin.Context) {
	ctx, cancel := requestCtx()
	defer cancel()

	category := c.Query("category")
	status := c.Query("status")
	sortField := c.DefaultQuery("sort", "priority")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	filter := bson.M{}
	if category != "" && category != "all" {
		filter["category"] = category
	}
	if status != "" && status != "all" {
		filter["status"] = status
	}

	issues, total, err := ic.Issues.List(ctx, filter, sortField, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, gin.H{
		"issues":      issues,
		"totalIssues": total,
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

// GetMyIssues retrieves the authenticated user's reports
func (ic *IssueController) GetMyIssues(c *gin.Context) {
	reporter, ok := actorID(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	issues, err := ic.Issues.FindByReporter(ctx, reporter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	c.JSON(http.StatusOK, issues)
}

// UpvoteIssue casts the user's upvote; repeating it is a no-op.
func (ic *IssueController) UpvoteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	voter, ok := actorID(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	issue, added, err := ic.Upvotes.Cast(ctx, issueID, voter)
	if err != nil {
		switch {
		case err == mongo.ErrNoDocuments:
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		case errors.Is(err, services.ErrIssueClosed):
			c.JSON(http.StatusConflict, gin.H{"error": "Issue is closed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cast vote"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"voted":         added,
		"upvotes":       issue.UpvoteCount(),
		"priorityScore": issue.PriorityScore,
	})
}

// TransitionIssue applies a staff status change through the state machine.
func (ic *IssueController) TransitionIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	actor, ok := actorID(c)
	if !ok {
		return
	}

	var input struct {
		Status          string `json:"status" binding:"required"`
		Comment         string `json:"comment,omitempty"`
		ResolutionProof string `json:"resolutionProof,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := services.TransitionRequest{
		Issue:   issueID,
		Target:  models.IssueStatus(input.Status),
		Actor:   actor,
		Comment: input.Comment,
	}
	if req.Target == models.Resolved {
		req.Resolution = &services.Resolution{
			ResolvedBy:      actor,
			ResolutionProof: input.ResolutionProof,
		}
	}

	ctx, cancel := requestCtx()
	defer cancel()

	issue, err := ic.Machine.Transition(ctx, req)
	if err != nil {
		var vErr *services.ValidationError
		var tErr *services.InvalidTransitionError
		switch {
		case err == mongo.ErrNoDocuments:
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
		case errors.As(err, &tErr):
			c.JSON(http.StatusConflict, gin.H{
				"error":         tErr.Error(),
				"currentStatus": tErr.From,
				"allowed":       tErr.Allowed,
			})
		case errors.Is(err, services.ErrTransientConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		}
		return
	}

	c.JSON(http.StatusOK, issue)
}

// AddComment attaches a (possibly nested) comment to an issue.
func (ic *IssueController) AddComment(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	author, ok := actorID(c)
	if !ok {
		return
	}

	var input struct {
		Body   string  `json:"body" binding:"required,max=2000"`
		Parent *string `json:"parent,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment := &models.Comment{
		Issue:  issueID,
		Author: author,
		Body:   input.Body,
	}
	if input.Parent != nil {
		parentID, err := primitive.ObjectIDFromHex(*input.Parent)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent comment ID"})
			return
		}
		comment.Parent = &parentID
	}

	ctx, cancel := requestCtx()
	defer cancel()

	if _, err := ic.Issues.FindByID(ctx, issueID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}

	if err := ic.Comments.Create(ctx, comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetComments lists an issue's comment thread.
func (ic *IssueController) GetComments(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	comments, err := ic.Comments.ForIssue(ctx, issueID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// GetIssueAnalytics returns analytical data about issues
func (ic *IssueController) GetIssueAnalytics(c *gin.Context) {
	ctx, cancel := requestCtx()
	defer cancel()

	issuesByCategory, err := ic.Issues.CategoryCounts(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get category analytics"})
		return
	}

	// Last 7 days of submissions
	var last7Days []gin.H
	for i := 6; i >= 0; i-- {
		date := time.Now().AddDate(0, 0, -i)
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
		nextDate := date.AddDate(0, 0, 1)

		count, err := ic.Issues.CountSince(ctx, date, nextDate)
		if err != nil {
			count = 0
		}

		last7Days = append(last7Days, gin.H{
			"date":  date.Format("2006-01-02"),
			"count": count,
		})
	}

	// Top of the triage queue by priority score
	topPriority, _, err := ic.Issues.List(ctx, bson.M{"open": true}, "priority", 1, 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve top issues"})
		return
	}

	openIssues, err := ic.Issues.CountOpen(ctx)
	if err != nil {
		openIssues = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"issuesByCategory": issuesByCategory,
		"last7Days":        last7Days,
		"topPriority":      topPriority,
		"openIssues":       openIssues,
	})
}
