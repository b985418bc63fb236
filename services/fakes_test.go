package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"civicpulse-be/classifier"
	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory fakes for the repository interfaces. They mirror the storage
// guarantees the Mongo implementations provide: set-membership upvotes, CAS
// status swaps, the (geoCell, category) open-issue constraint, and the
// (user, issue, reason) reward uniqueness.

var errNotFound = mongo.ErrNoDocuments

type fakeIssueRepo struct {
	mu     sync.Mutex
	issues map[primitive.ObjectID]models.Issue
	// transitionBlocks makes the next n CAS attempts lose the race.
	transitionBlocks int
	// onInsert runs once before the uniqueness check, with the lock held,
	// letting a test interleave a concurrent writer.
	onInsert func()
}

func newFakeIssueRepo() *fakeIssueRepo {
	return &fakeIssueRepo{issues: make(map[primitive.ObjectID]models.Issue)}
}

func duplicateKeyErr() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
}

func (f *fakeIssueRepo) Insert(_ context.Context, issue *models.Issue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onInsert != nil {
		f.onInsert()
		f.onInsert = nil
	}
	for _, existing := range f.issues {
		if existing.Open && existing.GeoCell == issue.GeoCell && existing.Category == issue.Category {
			return duplicateKeyErr()
		}
	}
	f.issues[issue.ID] = *issue
	return nil
}

func (f *fakeIssueRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return nil, errNotFound
	}
	return &issue, nil
}

func (f *fakeIssueRepo) FindNearbyOpen(_ context.Context, lng, lat, radiusMeters float64, category models.IssueCategory) ([]models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Issue
	for _, issue := range f.issues {
		if !issue.Open || issue.Category != category {
			continue
		}
		d := HaversineMeters(lng, lat, issue.Location.Longitude(), issue.Location.Latitude())
		if d <= radiusMeters {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (f *fakeIssueRepo) ApplyTransition(_ context.Context, id primitive.ObjectID, from models.IssueStatus, entry models.StatusEntry, res *Resolution) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return false, errNotFound
	}
	if f.transitionBlocks > 0 {
		f.transitionBlocks--
		return false, nil
	}
	if issue.Status != from {
		return false, nil
	}
	issue.Status = entry.Status
	issue.Open = !entry.Status.Terminal()
	issue.StatusTimeline = append(issue.StatusTimeline, entry)
	issue.UpdatedAt = entry.At
	if res != nil {
		issue.ResolvedBy = &res.ResolvedBy
		proof := res.ResolutionProof
		issue.ResolutionProof = &proof
	}
	f.issues[id] = issue
	return true, nil
}

func (f *fakeIssueRepo) AddUpvote(_ context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[issueID]
	if !ok {
		return false, errNotFound
	}
	for _, u := range issue.Upvotes {
		if u == userID {
			return false, nil
		}
	}
	issue.Upvotes = append(issue.Upvotes, userID)
	f.issues[issueID] = issue
	return true, nil
}

func (f *fakeIssueRepo) SetPriorityScore(_ context.Context, id primitive.ObjectID, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue, ok := f.issues[id]
	if !ok {
		return errNotFound
	}
	issue.PriorityScore = score
	f.issues[id] = issue
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[primitive.ObjectID]models.User
	badges map[primitive.ObjectID][]string
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	f := &fakeUserRepo{
		users:  make(map[primitive.ObjectID]models.User),
		badges: make(map[primitive.ObjectID][]string),
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, errNotFound
	}
	return &user, nil
}

func (f *fakeUserRepo) RecordResolution(_ context.Context, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return errNotFound
	}
	user.ReportsResolved++
	user.ImpactScore += 5
	f.users[userID] = user
	return nil
}

func (f *fakeUserRepo) AwardBadge(_ context.Context, userID primitive.ObjectID, badgeSlug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, slug := range f.badges[userID] {
		if slug == badgeSlug {
			return nil
		}
	}
	f.badges[userID] = append(f.badges[userID], badgeSlug)
	return nil
}

func (f *fakeUserRepo) addPoints(userID primitive.ObjectID, points int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.users[userID]
	user.Points += points
	f.users[userID] = user
}

// fakeRewardRepo couples the ledger and the cached points exactly like the
// transactional Mongo implementation: either both land or neither does.
type fakeRewardRepo struct {
	mu     sync.Mutex
	ledger []models.Reward
	seen   map[string]bool
	users  *fakeUserRepo
}

func newFakeRewardRepo(users *fakeUserRepo) *fakeRewardRepo {
	return &fakeRewardRepo{seen: make(map[string]bool), users: users}
}

func (f *fakeRewardRepo) GrantOnce(_ context.Context, reward *models.Reward) (bool, error) {
	f.mu.Lock()
	key := fmt.Sprintf("%s/%s/%s", reward.User.Hex(), reward.Issue.Hex(), reward.Reason)
	if f.seen[key] {
		f.mu.Unlock()
		return false, nil
	}
	f.seen[key] = true
	f.ledger = append(f.ledger, *reward)
	f.mu.Unlock()

	f.users.addPoints(reward.User, reward.Points)
	return true, nil
}

type fakeFollowRepo struct {
	follows []models.Follow
}

func (f *fakeFollowRepo) NotifiableFollowers(_ context.Context, pageID primitive.ObjectID) ([]models.Follow, error) {
	var out []models.Follow
	for _, fl := range f.follows {
		if fl.Page == pageID && fl.NotifyEnabled {
			out = append(out, fl)
		}
	}
	return out, nil
}

// recordingSink captures dispatched notifications; failFor simulates a
// transport failure for one recipient.
type recordingSink struct {
	mu      sync.Mutex
	sent    []models.Notification
	failFor map[primitive.ObjectID]bool
}

func (s *recordingSink) Dispatch(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[n.Recipient] {
		return errors.New("transport down")
	}
	s.sent = append(s.sent, *n)
	return nil
}

// stubClassifier returns a fixed analysis or error after an optional delay.
type stubClassifier struct {
	analysis *classifier.Analysis
	err      error
	delay    time.Duration
}

func (s *stubClassifier) Classify(ctx context.Context, _ string) (*classifier.Analysis, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}
