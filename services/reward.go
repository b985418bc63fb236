package services

import (
	"context"
	"log"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Point values per reward reason.
var rewardTable = map[models.RewardReason]int{
	models.ReasonReportSubmitted: 10,
	models.ReasonUpvoteCast:      2,
	models.ReasonReportResolved:  50,
}

// civicChampionPoints is the cumulative total that earns the badge.
const civicChampionPoints = 100

// RewardEngine appends ledger entries and keeps the user's cached points in
// step. Grants are idempotent per (user, issue, reason): the repository's
// uniqueness guard makes a repeat grant a no-op.
type RewardEngine struct {
	Rewards RewardRepository
	Users   UserRepository
}

func NewRewardEngine(rewards RewardRepository, users UserRepository) *RewardEngine {
	return &RewardEngine{Rewards: rewards, Users: users}
}

// Grant pays the user for the action on the issue. A duplicate grant returns
// ErrRewardAlreadyGranted without touching the ledger or the points.
func (e *RewardEngine) Grant(ctx context.Context, user, issue primitive.ObjectID, reason models.RewardReason) (*models.Reward, error) {
	reward := &models.Reward{
		ID:     primitive.NewObjectID(),
		User:   user,
		Issue:  issue,
		Reason: reason,
		Points: rewardTable[reason],
		At:     time.Now(),
	}

	applied, err := e.Rewards.GrantOnce(ctx, reward)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrRewardAlreadyGranted
	}

	if reason == models.ReasonReportResolved {
		if err := e.Users.RecordResolution(ctx, user); err != nil {
			return nil, err
		}
	}

	e.maybeAwardBadges(ctx, user, reason)
	return reward, nil
}

// maybeAwardBadges checks simple milestones after a grant. Badge awards are
// best-effort; a failure never undoes the grant.
func (e *RewardEngine) maybeAwardBadges(ctx context.Context, user primitive.ObjectID, reason models.RewardReason) {
	switch reason {
	case models.ReasonReportSubmitted:
		if err := e.Users.AwardBadge(ctx, user, "first-report"); err != nil {
			log.Printf("badge award failed for %s: %v", user.Hex(), err)
		}
	case models.ReasonReportResolved:
		if err := e.Users.AwardBadge(ctx, user, "problem-solver"); err != nil {
			log.Printf("badge award failed for %s: %v", user.Hex(), err)
		}
	}

	u, err := e.Users.FindByID(ctx, user)
	if err != nil {
		return
	}
	if u.Points >= civicChampionPoints {
		if err := e.Users.AwardBadge(ctx, user, "civic-champion"); err != nil {
			log.Printf("badge award failed for %s: %v", user.Hex(), err)
		}
	}
}

// RewardPoints exposes the configured value for a reason.
func RewardPoints(reason models.RewardReason) int {
	return rewardTable[reason]
}
