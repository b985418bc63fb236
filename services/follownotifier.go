package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FollowNotifier fans an update out to followers of a municipal page.
// Dispatch failures are logged and skipped; a notification problem must never
// roll back the status change that triggered it.
type FollowNotifier struct {
	Follows FollowRepository
	Sink    NotificationSink
}

func NewFollowNotifier(follows FollowRepository, sink NotificationSink) *FollowNotifier {
	return &FollowNotifier{Follows: follows, Sink: sink}
}

// PageEvent describes what happened on a page.
type PageEvent struct {
	Event   models.NotificationEvent
	Issue   primitive.ObjectID
	Message string
}

// NotifyFollowers dispatches one record per notification-enabled follower and
// returns the count delivered.
func (n *FollowNotifier) NotifyFollowers(ctx context.Context, pageID primitive.ObjectID, event PageEvent) (int, error) {
	follows, err := n.Follows.NotifiableFollowers(ctx, pageID)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, f := range follows {
		notification := &models.Notification{
			ID:        primitive.NewObjectID(),
			Recipient: f.Follower,
			Page:      pageID,
			Issue:     event.Issue,
			Event:     event.Event,
			Message:   event.Message,
			CreatedAt: time.Now(),
		}
		if err := n.Sink.Dispatch(ctx, notification); err != nil {
			log.Printf("notify follower %s failed: %v", f.Follower.Hex(), err)
			continue
		}
		notified++
	}
	return notified, nil
}

// StatusEventMessage builds the follower-facing text for a status change.
func StatusEventMessage(title string, status models.IssueStatus) string {
	return fmt.Sprintf("%q is now %s", title, status)
}
