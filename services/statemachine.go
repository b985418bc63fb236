package services

import (
	"context"
	"log"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// legalTransitions is the single source of truth for status changes. No other
// component writes a status outside this table.
var legalTransitions = map[models.IssueStatus][]models.IssueStatus{
	models.Submitted:    {models.Acknowledged, models.Rejected},
	models.Acknowledged: {models.InProgress, models.Rejected},
	models.InProgress:   {models.Resolved, models.Rejected},
}

// AllowedTransitions returns the legal next statuses from a given status.
// Terminal statuses return an empty set.
func AllowedTransitions(from models.IssueStatus) []models.IssueStatus {
	return legalTransitions[from]
}

func transitionAllowed(from, to models.IssueStatus) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateMachine drives issues through their lifecycle. Each successful
// transition appends exactly one timeline entry under a compare-and-swap
// guard; entering Resolved pays the reporter and notifies page followers,
// entering Rejected notifies only.
type StateMachine struct {
	Issues   IssueRepository
	Rewards  *RewardEngine
	Notifier *FollowNotifier
}

func NewStateMachine(issues IssueRepository, rewards *RewardEngine, notifier *FollowNotifier) *StateMachine {
	return &StateMachine{Issues: issues, Rewards: rewards, Notifier: notifier}
}

// TransitionRequest is a staff action against an issue. The auth layer has
// already verified the actor holds a staff-capable role; the machine only
// records the reference. Resolution must be set when Target is Resolved.
type TransitionRequest struct {
	Issue      primitive.ObjectID
	Target     models.IssueStatus
	Actor      primitive.ObjectID
	Comment    string
	Resolution *Resolution
}

// Transition applies the requested status change. An illegal change returns
// InvalidTransitionError with the current status and its legal next set; the
// issue is left untouched. A concurrent transition that wins the race is
// retried once against fresh state, then surfaced as ErrTransientConflict.
func (m *StateMachine) Transition(ctx context.Context, req TransitionRequest) (*models.Issue, error) {
	for attempt := 0; attempt < 2; attempt++ {
		issue, err := m.Issues.FindByID(ctx, req.Issue)
		if err != nil {
			return nil, err
		}

		if !transitionAllowed(issue.Status, req.Target) {
			return nil, &InvalidTransitionError{
				From:    issue.Status,
				To:      req.Target,
				Allowed: AllowedTransitions(issue.Status),
			}
		}

		// resolvedBy/resolutionProof may only ever be written on the
		// transition into Resolved, where they are required.
		var res *Resolution
		if req.Target == models.Resolved {
			if req.Resolution == nil || req.Resolution.ResolutionProof == "" {
				return nil, &ValidationError{Field: "resolutionProof", Reason: "required to resolve"}
			}
			if req.Resolution.ResolvedBy.IsZero() {
				return nil, &ValidationError{Field: "resolvedBy", Reason: "required to resolve"}
			}
			res = req.Resolution
		}

		entry := models.StatusEntry{
			Status:  req.Target,
			At:      time.Now(),
			Actor:   req.Actor,
			Comment: req.Comment,
		}

		swapped, err := m.Issues.ApplyTransition(ctx, issue.ID, issue.Status, entry, res)
		if err != nil {
			return nil, err
		}
		if !swapped {
			// Lost the race; re-read and re-check the transition table.
			continue
		}

		updated, err := m.Issues.FindByID(ctx, issue.ID)
		if err != nil {
			return nil, err
		}

		m.fireSideEffects(ctx, updated, req)
		return updated, nil
	}
	return nil, ErrTransientConflict
}

// fireSideEffects runs the post-transition hooks. They are best-effort: the
// status change has already committed and is never rolled back.
func (m *StateMachine) fireSideEffects(ctx context.Context, issue *models.Issue, req TransitionRequest) {
	switch req.Target {
	case models.Resolved:
		if _, err := m.Rewards.Grant(ctx, issue.Reporter, issue.ID, models.ReasonReportResolved); err != nil && err != ErrRewardAlreadyGranted {
			log.Printf("resolution reward for issue %s failed: %v", issue.ID.Hex(), err)
		}
		m.notifyPage(ctx, issue, models.EventIssueResolved)
	case models.Rejected:
		m.notifyPage(ctx, issue, models.EventIssueRejected)
	}
}

func (m *StateMachine) notifyPage(ctx context.Context, issue *models.Issue, event models.NotificationEvent) {
	if issue.Page == nil {
		return
	}
	count, err := m.Notifier.NotifyFollowers(ctx, *issue.Page, PageEvent{
		Event:   event,
		Issue:   issue.ID,
		Message: StatusEventMessage(issue.Title, issue.Status),
	})
	if err != nil {
		log.Printf("notify followers of page %s failed: %v", issue.Page.Hex(), err)
		return
	}
	log.Printf("issue %s: notified %d followers", issue.ID.Hex(), count)
}
