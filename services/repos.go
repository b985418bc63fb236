package services

import (
	"context"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Repository interfaces consumed by the lifecycle engine. The Mongo
// implementations live in the repository package; tests inject in-memory
// fakes.

type IssueRepository interface {
	Insert(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// FindNearbyOpen returns open issues of the category within radiusMeters
	// of (lng, lat), nearest first.
	FindNearbyOpen(ctx context.Context, lng, lat, radiusMeters float64, category models.IssueCategory) ([]models.Issue, error)
	// ApplyTransition performs a compare-and-swap on status: the update only
	// lands when the stored status still equals from. It appends entry to the
	// timeline, sets resolution fields when res is non-nil, and reports
	// whether the swap matched.
	ApplyTransition(ctx context.Context, id primitive.ObjectID, from models.IssueStatus, entry models.StatusEntry, res *Resolution) (bool, error)
	// AddUpvote adds user to the upvote set; false means it was already there.
	AddUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error)
	SetPriorityScore(ctx context.Context, id primitive.ObjectID, score float64) error
}

// Resolution carries the inputs required to enter Resolved.
type Resolution struct {
	ResolvedBy      primitive.ObjectID
	ResolutionProof string
}

type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// RecordResolution bumps reportsResolved and impactScore for the reporter.
	RecordResolution(ctx context.Context, userID primitive.ObjectID) error
	AwardBadge(ctx context.Context, userID primitive.ObjectID, badgeSlug string) error
}

type RewardRepository interface {
	// GrantOnce appends the ledger entry and increments the user's cached
	// points as one atomic unit; false means the (user, issue, reason) entry
	// already exists and nothing was applied.
	GrantOnce(ctx context.Context, reward *models.Reward) (bool, error)
}

type FollowRepository interface {
	// NotifiableFollowers returns follows of the page with notifications on.
	NotifiableFollowers(ctx context.Context, pageID primitive.ObjectID) ([]models.Follow, error)
}

// NotificationSink accepts one event record per follower. Delivery is
// fire-and-forget; failures are logged by the notifier, never propagated.
type NotificationSink interface {
	Dispatch(ctx context.Context, n *models.Notification) error
}
