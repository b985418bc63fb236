package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is threaded discussion on an issue; Parent nests replies with no
// enforced depth limit.
type Comment struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Issue     primitive.ObjectID  `bson:"issue" json:"issue"`
	Author    primitive.ObjectID  `bson:"author" json:"author"`
	Parent    *primitive.ObjectID `bson:"parent,omitempty" json:"parent,omitempty"`
	Body      string              `bson:"body" json:"body"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

// NotificationEvent enum
type NotificationEvent string

const (
	EventIssueResolved NotificationEvent = "issue_resolved"
	EventIssueRejected NotificationEvent = "issue_rejected"
	EventPagePosted    NotificationEvent = "page_posted"
)

// Notification is one delivered update for a follower; the transport that
// carries it to a device is external.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Page      primitive.ObjectID `bson:"page" json:"page"`
	Issue     primitive.ObjectID `bson:"issue,omitempty" json:"issue,omitempty"`
	Event     NotificationEvent  `bson:"event" json:"event"`
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
