package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardReason enum
type RewardReason string

const (
	ReasonReportSubmitted RewardReason = "report_submitted"
	ReasonUpvoteCast      RewardReason = "upvote_cast"
	ReasonReportResolved  RewardReason = "report_resolved"
)

// Reward is one ledger entry; the collection is append-only and is the audit
// trail behind User.Points. Unique per (user, issue, reason).
type Reward struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User   primitive.ObjectID `bson:"user" json:"user"`
	Issue  primitive.ObjectID `bson:"issue" json:"issue"`
	Reason RewardReason       `bson:"reason" json:"reason"`
	Points int                `bson:"points" json:"points"`
	At     time.Time          `bson:"at" json:"at"`
}

// Badge is a static achievement definition.
type Badge struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug        string             `bson:"slug" json:"slug"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Icon        string             `bson:"icon" json:"icon"`
}

// DefaultBadges is the seed catalog.
var DefaultBadges = []Badge{
	{Slug: "first-report", Name: "First Report", Description: "Submitted a first civic issue", Icon: "📣"},
	{Slug: "problem-solver", Name: "Problem Solver", Description: "Had a report resolved", Icon: "🛠️"},
	{Slug: "civic-champion", Name: "Civic Champion", Description: "Earned 100 points", Icon: "🏆"},
}
