package controllers

import (
	"net/http"

	"civicpulse-be/models"
	"civicpulse-be/repository"
	"civicpulse-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PageController manages municipal pages and their follower relationships.
type PageController struct {
	Pages    *repository.PageRepository
	Follows  *repository.FollowRepository
	Notifier *services.FollowNotifier
}

func NewPageController(pages *repository.PageRepository, follows *repository.FollowRepository, notifier *services.FollowNotifier) *PageController {
	return &PageController{Pages: pages, Follows: follows, Notifier: notifier}
}

// CreatePage registers a municipal page; the creating admin becomes its owner.
func (pc *PageController) CreatePage(c *gin.Context) {
	owner, ok := actorID(c)
	if !ok {
		return
	}

	var input struct {
		Handle     string `json:"handle" binding:"required,max=40"`
		Name       string `json:"name" binding:"required,max=100"`
		Department string `json:"department" binding:"required,max=60"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	page := &models.MunicipalPage{
		Handle:     input.Handle,
		Name:       input.Name,
		Department: input.Department,
		Owner:      owner,
	}

	if err := pc.Pages.Create(ctx, page); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Handle already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create page"})
		return
	}

	c.JSON(http.StatusCreated, page)
}

// GetPage looks a page up by its handle.
func (pc *PageController) GetPage(c *gin.Context) {
	ctx, cancel := requestCtx()
	defer cancel()

	page, err := pc.Pages.FindByHandle(ctx, c.Param("handle"))
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve page"})
		}
		return
	}

	c.JSON(http.StatusOK, page)
}

// FollowPage subscribes the user to a page; following twice is a no-op.
func (pc *PageController) FollowPage(c *gin.Context) {
	follower, ok := actorID(c)
	if !ok {
		return
	}

	pageID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page ID"})
		return
	}

	var input struct {
		NotifyEnabled *bool `json:"notifyEnabled,omitempty"`
	}
	_ = c.ShouldBindJSON(&input)
	notify := true
	if input.NotifyEnabled != nil {
		notify = *input.NotifyEnabled
	}

	ctx, cancel := requestCtx()
	defer cancel()

	if _, err := pc.Pages.FindByID(ctx, pageID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}

	follow, err := pc.Follows.Follow(ctx, follower, pageID, notify)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to follow page"})
		return
	}

	c.JSON(http.StatusOK, follow)
}

// UnfollowPage removes the relationship.
func (pc *PageController) UnfollowPage(c *gin.Context) {
	follower, ok := actorID(c)
	if !ok {
		return
	}

	pageID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page ID"})
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	if err := pc.Follows.Unfollow(ctx, follower, pageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow page"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unfollowed"})
}

// PostUpdate fans a page announcement out to followers.
func (pc *PageController) PostUpdate(c *gin.Context) {
	pageID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page ID"})
		return
	}

	var input struct {
		Message string `json:"message" binding:"required,max=500"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	if _, err := pc.Pages.FindByID(ctx, pageID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}

	count, err := pc.Notifier.NotifyFollowers(ctx, pageID, services.PageEvent{
		Event:   models.EventPagePosted,
		Message: input.Message,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to notify followers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notified": count})
}
