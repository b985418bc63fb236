package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"civicpulse-be/classifier"
	"civicpulse-be/config"
	"civicpulse-be/controllers"
	"civicpulse-be/models"
	"civicpulse-be/repository"
	"civicpulse-be/routes"
	"civicpulse-be/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	db := config.ConnectDB()
	if db == nil {
		log.Fatal("Failed to connect to MongoDB")
	}
	log.Println("MongoDB connection established successfully!")

	config.ConnectRedis()

	issueColl := config.GetCollection("issues")
	userColl := config.GetCollection("users")
	badgeColl := config.GetCollection("badges")
	rewardColl := config.GetCollection("rewards")
	pageColl := config.GetCollection("pages")
	followColl := config.GetCollection("follows")
	commentColl := config.GetCollection("comments")
	notifColl := config.GetCollection("notifications")

	if err := models.EnsureIssueIndexes(issueColl); err != nil {
		log.Fatalf("Failed to create issue indexes: %v", err)
	}
	if err := models.EnsureRewardIndex(rewardColl); err != nil {
		log.Fatalf("Failed to create reward index: %v", err)
	}
	if err := models.EnsureFollowIndex(followColl); err != nil {
		log.Fatalf("Failed to create follow index: %v", err)
	}
	if err := models.EnsurePageIndex(pageColl); err != nil {
		log.Fatalf("Failed to create page index: %v", err)
	}

	// Repositories
	issues := repository.NewIssueRepository(issueColl)
	users := repository.NewUserRepository(userColl, badgeColl)
	rewards := repository.NewRewardRepository(config.Client(), rewardColl, userColl)
	pages := repository.NewPageRepository(pageColl)
	follows := repository.NewFollowRepository(followColl, pageColl)
	comments := repository.NewCommentRepository(commentColl)
	notifications := repository.NewNotificationRepository(notifColl, config.RedisClient)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := users.SeedBadges(ctx); err != nil {
		log.Printf("Badge seed failed: %v", err)
	}
	cancel()

	// External AI collaborator; submissions fall back to the category map
	// when the endpoint is absent or down.
	var imageClassifier classifier.ImageClassifier
	if endpoint := os.Getenv("CLASSIFIER_ENDPOINT"); endpoint != "" {
		imageClassifier = classifier.NewHTTPClassifier(endpoint, 3*time.Second)
	}

	// Lifecycle engine
	rewardEngine := services.NewRewardEngine(rewards, users)
	notifier := services.NewFollowNotifier(follows, notifications)
	duplicates := services.NewGeoDuplicateIndex(issues)
	intake := services.NewIntakeOrchestrator(issues, duplicates, imageClassifier, rewardEngine)
	upvotes := services.NewUpvoteService(issues, rewardEngine)
	machine := services.NewStateMachine(issues, rewardEngine, notifier)

	// HTTP surface
	issueController := controllers.NewIssueController(intake, upvotes, machine, issues, comments, pages)
	pageController := controllers.NewPageController(pages, follows, notifier)
	userController := controllers.NewUserController(users, rewards, notifications)

	r := gin.Default()

	routes.AuthRoutes(r)
	routes.IssueRoutes(r, issueController, submissionLimit())
	routes.PageRoutes(r, pageController)
	routes.UserRoutes(r, userController)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func submissionLimit() int {
	if v := os.Getenv("ISSUE_SUBMISSIONS_PER_DAY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 5
}
