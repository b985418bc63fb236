package controllers

import (
	"net/http"
	"strconv"

	"civicpulse-be/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserController exposes profiles, the reward ledger, the leaderboard, and
// the notification inbox.
type UserController struct {
	Users         *repository.UserRepository
	Rewards       *repository.RewardRepository
	Notifications *repository.NotificationRepository
}

func NewUserController(users *repository.UserRepository, rewards *repository.RewardRepository, notifications *repository.NotificationRepository) *UserController {
	return &UserController{Users: users, Rewards: rewards, Notifications: notifications}
}

// GetProfile returns the authenticated user with their reward history.
func (uc *UserController) GetProfile(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	user, err := uc.Users.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	rewards, err := uc.Rewards.LedgerFor(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rewards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"rewards": rewards,
	})
}

// GetLeaderboard ranks users by points.
func (uc *UserController) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	ctx, cancel := requestCtx()
	defer cancel()

	users, err := uc.Users.Leaderboard(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve leaderboard"})
		return
	}

	type entry struct {
		Rank            int    `json:"rank"`
		ID              string `json:"id"`
		Name            string `json:"name"`
		Points          int    `json:"points"`
		ReportsResolved int    `json:"reportsResolved"`
		ImpactScore     int    `json:"impactScore"`
	}

	entries := make([]entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, entry{
			Rank:            i + 1,
			ID:              u.ID.Hex(),
			Name:            u.Name,
			Points:          u.Points,
			ReportsResolved: u.ReportsResolved,
			ImpactScore:     u.ImpactScore,
		})
	}

	c.JSON(http.StatusOK, entries)
}

// GetNotifications returns the user's notification inbox, newest first.
func (uc *UserController) GetNotifications(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := requestCtx()
	defer cancel()

	notifications, err := uc.Notifications.ForRecipient(ctx, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead flags a notification of the authenticated user.
func (uc *UserController) MarkNotificationRead(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	notifID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	ctx, cancel := requestCtx()
	defer cancel()

	if err := uc.Notifications.MarkRead(ctx, notifID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked read"})
}
