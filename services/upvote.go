package services

import (
	"context"
	"log"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpvoteService casts citizen support on an issue. Casting twice from the
// same user is a no-op: the storage-level set membership keeps cardinality
// unchanged and the reward idempotency guard prevents a second payout.
type UpvoteService struct {
	Issues  IssueRepository
	Rewards *RewardEngine
}

func NewUpvoteService(issues IssueRepository, rewards *RewardEngine) *UpvoteService {
	return &UpvoteService{Issues: issues, Rewards: rewards}
}

// Cast adds the user's upvote and rescores the issue. Returns the refreshed
// issue and whether the vote was newly added.
func (s *UpvoteService) Cast(ctx context.Context, issueID, userID primitive.ObjectID) (*models.Issue, bool, error) {
	issue, err := s.Issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, false, err
	}
	if issue.Status.Terminal() {
		return nil, false, ErrIssueClosed
	}

	added, err := s.Issues.AddUpvote(ctx, issueID, userID)
	if err != nil {
		return nil, false, err
	}

	issue, err = s.Issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, false, err
	}

	if added {
		score := PriorityScore(issue.AISeverity, issue.UpvoteCount(), issue.AgeHours(time.Now()))
		if err := s.Issues.SetPriorityScore(ctx, issueID, score); err != nil {
			return nil, false, err
		}
		issue.PriorityScore = score

		if _, err := s.Rewards.Grant(ctx, userID, issueID, models.ReasonUpvoteCast); err != nil && err != ErrRewardAlreadyGranted {
			log.Printf("upvote reward on issue %s failed: %v", issueID.Hex(), err)
		}
	}

	return issue, added, nil
}
