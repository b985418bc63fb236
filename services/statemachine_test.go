package services

import (
	"context"
	"testing"
	"time"

	"civicpulse-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type machineFixture struct {
	machine  *StateMachine
	issues   *fakeIssueRepo
	users    *fakeUserRepo
	rewards  *fakeRewardRepo
	sink     *recordingSink
	reporter primitive.ObjectID
}

func newMachineFixture(t *testing.T) *machineFixture {
	t.Helper()
	issues := newFakeIssueRepo()
	reporter := models.User{ID: primitive.NewObjectID(), Name: "Asha"}
	users := newFakeUserRepo(reporter)
	rewards := newFakeRewardRepo(users)
	sink := &recordingSink{}
	notifier := NewFollowNotifier(&fakeFollowRepo{}, sink)
	machine := NewStateMachine(issues, NewRewardEngine(rewards, users), notifier)
	return &machineFixture{
		machine:  machine,
		issues:   issues,
		users:    users,
		rewards:  rewards,
		sink:     sink,
		reporter: reporter.ID,
	}
}

func (fx *machineFixture) seedIssue(t *testing.T, status models.IssueStatus, page *primitive.ObjectID) *models.Issue {
	t.Helper()
	now := time.Now()
	issue := &models.Issue{
		ID:       primitive.NewObjectID(),
		Reporter: fx.reporter,
		Title:    "Burst pipe on MG Road",
		Category: models.Water,
		Location: models.NewGeoPoint(72.75, 19.30),
		GeoCell:  GeoCell(72.75, 19.30),
		Status:   status,
		Open:     !status.Terminal(),
		Page:     page,
		StatusTimeline: []models.StatusEntry{
			{Status: models.Submitted, At: now, Actor: fx.reporter},
		},
		AISeverity: models.SeverityHigh,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, fx.issues.Insert(context.Background(), issue))
	return issue
}

func TestTransitionTable(t *testing.T) {
	all := []models.IssueStatus{
		models.Submitted, models.Acknowledged, models.InProgress,
		models.Resolved, models.Rejected,
	}
	legal := map[models.IssueStatus][]models.IssueStatus{
		models.Submitted:    {models.Acknowledged, models.Rejected},
		models.Acknowledged: {models.InProgress, models.Rejected},
		models.InProgress:   {models.Resolved, models.Rejected},
	}

	staff := primitive.NewObjectID()
	for _, from := range all {
		for _, to := range all {
			from, to := from, to
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				fx := newMachineFixture(t)
				issue := fx.seedIssue(t, from, nil)

				req := TransitionRequest{Issue: issue.ID, Target: to, Actor: staff}
				if to == models.Resolved {
					req.Resolution = &Resolution{ResolvedBy: staff, ResolutionProof: "img://proof.jpg"}
				}

				updated, err := fx.machine.Transition(context.Background(), req)

				allowed := false
				for _, s := range legal[from] {
					if s == to {
						allowed = true
					}
				}

				if allowed {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					assert.Len(t, updated.StatusTimeline, 2, "exactly one entry appended")
					assert.Equal(t, to, updated.StatusTimeline[1].Status)
					return
				}

				var tErr *InvalidTransitionError
				require.ErrorAs(t, err, &tErr)
				assert.Equal(t, from, tErr.From)
				assert.ElementsMatch(t, legal[from], tErr.Allowed)

				// Issue untouched.
				stored, ferr := fx.issues.FindByID(context.Background(), issue.ID)
				require.NoError(t, ferr)
				assert.Equal(t, from, stored.Status)
				assert.Len(t, stored.StatusTimeline, 1)
			})
		}
	}
}

func TestFullLifecycle(t *testing.T) {
	fx := newMachineFixture(t)
	issue := fx.seedIssue(t, models.Submitted, nil)
	staff := primitive.NewObjectID()

	var updated *models.Issue
	steps := []models.IssueStatus{models.Acknowledged, models.InProgress, models.Resolved}
	for _, target := range steps {
		req := TransitionRequest{Issue: issue.ID, Target: target, Actor: staff}
		if target == models.Resolved {
			req.Resolution = &Resolution{ResolvedBy: staff, ResolutionProof: "img://fixed.jpg"}
		}
		var err error
		updated, err = fx.machine.Transition(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, updated.Status, updated.StatusTimeline[len(updated.StatusTimeline)-1].Status)
	}

	require.Len(t, updated.StatusTimeline, 4)
	for i, want := range []models.IssueStatus{models.Submitted, models.Acknowledged, models.InProgress, models.Resolved} {
		assert.Equal(t, want, updated.StatusTimeline[i].Status)
	}
	assert.False(t, updated.Open)

	u, err := fx.users.FindByID(context.Background(), fx.reporter)
	require.NoError(t, err)
	assert.Equal(t, RewardPoints(models.ReasonReportResolved), u.Points)
	assert.Equal(t, 1, u.ReportsResolved)
}

func TestResolveRequiresProof(t *testing.T) {
	fx := newMachineFixture(t)
	issue := fx.seedIssue(t, models.InProgress, nil)

	_, err := fx.machine.Transition(context.Background(), TransitionRequest{
		Issue: issue.ID, Target: models.Resolved, Actor: primitive.NewObjectID(),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "resolutionProof", vErr.Field)

	stored, ferr := fx.issues.FindByID(context.Background(), issue.ID)
	require.NoError(t, ferr)
	assert.Equal(t, models.InProgress, stored.Status)
	assert.Nil(t, stored.ResolvedBy)
}

func TestResolveRequiresResolver(t *testing.T) {
	fx := newMachineFixture(t)
	issue := fx.seedIssue(t, models.InProgress, nil)

	_, err := fx.machine.Transition(context.Background(), TransitionRequest{
		Issue:      issue.ID,
		Target:     models.Resolved,
		Actor:      primitive.NewObjectID(),
		Resolution: &Resolution{ResolutionProof: "img://fixed.jpg"},
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "resolvedBy", vErr.Field)

	stored, ferr := fx.issues.FindByID(context.Background(), issue.ID)
	require.NoError(t, ferr)
	assert.Equal(t, models.InProgress, stored.Status)
	assert.Nil(t, stored.ResolvedBy)
}

func TestResolveRewardsReporterAndNotifies(t *testing.T) {
	fx := newMachineFixture(t)

	pageID := primitive.NewObjectID()
	follower := primitive.NewObjectID()
	fx.machine.Notifier.Follows = &fakeFollowRepo{follows: []models.Follow{
		{Follower: follower, Page: pageID, NotifyEnabled: true},
		{Follower: primitive.NewObjectID(), Page: pageID, NotifyEnabled: false},
	}}

	issue := fx.seedIssue(t, models.InProgress, &pageID)
	staff := primitive.NewObjectID()

	updated, err := fx.machine.Transition(context.Background(), TransitionRequest{
		Issue:      issue.ID,
		Target:     models.Resolved,
		Actor:      staff,
		Resolution: &Resolution{ResolvedBy: staff, ResolutionProof: "img://fixed.jpg"},
	})
	require.NoError(t, err)

	require.NotNil(t, updated.ResolvedBy)
	assert.Equal(t, staff, *updated.ResolvedBy)
	require.NotNil(t, updated.ResolutionProof)

	// Reporter paid exactly once, counters bumped.
	u, err := fx.users.FindByID(context.Background(), fx.reporter)
	require.NoError(t, err)
	assert.Equal(t, RewardPoints(models.ReasonReportResolved), u.Points)
	assert.Equal(t, 1, u.ReportsResolved)
	require.Len(t, fx.rewards.ledger, 1)

	// Only the notification-enabled follower heard about it.
	require.Len(t, fx.sink.sent, 1)
	assert.Equal(t, follower, fx.sink.sent[0].Recipient)
	assert.Equal(t, models.EventIssueResolved, fx.sink.sent[0].Event)
}

func TestDoubleResolvePaysOnce(t *testing.T) {
	fx := newMachineFixture(t)
	issue := fx.seedIssue(t, models.InProgress, nil)
	staff := primitive.NewObjectID()
	res := &Resolution{ResolvedBy: staff, ResolutionProof: "img://fixed.jpg"}

	_, err := fx.machine.Transition(context.Background(), TransitionRequest{
		Issue: issue.ID, Target: models.Resolved, Actor: staff, Resolution: res,
	})
	require.NoError(t, err)

	_, err = fx.machine.Transition(context.Background(), TransitionRequest{
		Issue: issue.ID, Target: models.Resolved, Actor: staff, Resolution: res,
	})
	var tErr *InvalidTransitionError
	require.ErrorAs(t, err, &tErr)

	u, ferr := fx.users.FindByID(context.Background(), fx.reporter)
	require.NoError(t, ferr)
	assert.Equal(t, RewardPoints(models.ReasonReportResolved), u.Points)
	assert.Equal(t, 1, u.ReportsResolved)
	assert.Len(t, fx.rewards.ledger, 1)
}

func TestRejectNotifiesWithoutReward(t *testing.T) {
	fx := newMachineFixture(t)

	pageID := primitive.NewObjectID()
	fx.machine.Notifier.Follows = &fakeFollowRepo{follows: []models.Follow{
		{Follower: primitive.NewObjectID(), Page: pageID, NotifyEnabled: true},
	}}

	issue := fx.seedIssue(t, models.Submitted, &pageID)

	_, err := fx.machine.Transition(context.Background(), TransitionRequest{
		Issue: issue.ID, Target: models.Rejected, Actor: primitive.NewObjectID(),
	})
	require.NoError(t, err)

	assert.Empty(t, fx.rewards.ledger)
	require.Len(t, fx.sink.sent, 1)
	assert.Equal(t, models.EventIssueRejected, fx.sink.sent[0].Event)
}

func TestTransitionRetriesOnceOnLostRace(t *testing.T) {
	fx := newMachineFixture(t)
	issue := fx.seedIssue(t, models.Submitted, nil)

	// First CAS attempt loses; the retry succeeds against fresh state.
	fx.issues.transitionBlocks = 1
	updated, err := fx.machine.Transition(context.Background(), TransitionRequest{
		Issue: issue.ID, Target: models.Acknowledged, Actor: primitive.NewObjectID(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.Acknowledged, updated.Status)

	// A conflict that persists through the retry surfaces as transient.
	fx2 := newMachineFixture(t)
	issue2 := fx2.seedIssue(t, models.Submitted, nil)
	fx2.issues.transitionBlocks = 2
	_, err = fx2.machine.Transition(context.Background(), TransitionRequest{
		Issue: issue2.ID, Target: models.Acknowledged, Actor: primitive.NewObjectID(),
	})
	assert.ErrorIs(t, err, ErrTransientConflict)
}
