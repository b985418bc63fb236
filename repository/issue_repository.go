package repository

import (
	"context"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/services"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IssueRepository is the Mongo-backed store for issues. The 2dsphere index on
// location serves the duplicate check; status swaps are guarded updates.
type IssueRepository struct {
	collection *mongo.Collection
}

func NewIssueRepository(collection *mongo.Collection) *IssueRepository {
	return &IssueRepository{collection: collection}
}

func (r *IssueRepository) Insert(ctx context.Context, issue *models.Issue) error {
	_, err := r.collection.InsertOne(ctx, issue)
	return err
}

func (r *IssueRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// FindNearbyOpen runs the $nearSphere query; results come back nearest first.
func (r *IssueRepository) FindNearbyOpen(ctx context.Context, lng, lat, radiusMeters float64, category models.IssueCategory) ([]models.Issue, error) {
	filter := bson.M{
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry":    models.NewGeoPoint(lng, lat),
				"$maxDistance": radiusMeters,
			},
		},
		"category": category,
		"open":     true,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// ApplyTransition is the compare-and-swap status update: it only matches while
// the stored status still equals from, so two concurrent transitions cannot
// both succeed from the same prior state.
func (r *IssueRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, from models.IssueStatus, entry models.StatusEntry, res *services.Resolution) (bool, error) {
	set := bson.M{
		"status":    entry.Status,
		"open":      !entry.Status.Terminal(),
		"updatedAt": time.Now(),
	}
	if res != nil {
		set["resolvedBy"] = res.ResolvedBy
		set["resolutionProof"] = res.ResolutionProof
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$set":  set,
			"$push": bson.M{"statusTimeline": entry},
		},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount == 1, nil
}

// AddUpvote is an idempotent set add; false means the user had already voted.
func (r *IssueRepository) AddUpvote(ctx context.Context, issueID, userID primitive.ObjectID) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": issueID},
		bson.M{"$addToSet": bson.M{"upvotes": userID}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

func (r *IssueRepository) SetPriorityScore(ctx context.Context, id primitive.ObjectID, score float64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"priorityScore": score, "updatedAt": time.Now()}},
	)
	return err
}

// List returns issues filtered and paged for the triage queue; sort "priority"
// orders by the computed score.
func (r *IssueRepository) List(ctx context.Context, filter bson.M, sortField string, page, limit int) ([]models.Issue, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	sortOptions := bson.D{{Key: "createdAt", Value: -1}}
	if sortField == "priority" {
		sortOptions = bson.D{{Key: "priorityScore", Value: -1}}
	}

	findOptions := options.Find().
		SetSort(sortOptions).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, 0, err
	}
	return issues, total, nil
}

// FindByReporter returns a citizen's own reports, newest first.
func (r *IssueRepository) FindByReporter(ctx context.Context, reporter primitive.ObjectID) ([]models.Issue, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"reporter": reporter}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// CategoryCounts aggregates issues per category for the dashboard; open
// workload is reported separately via CountOpen.
func (r *IssueRepository) CategoryCounts(ctx context.Context) ([]bson.M, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}},
		{"$project": bson.M{"name": "$_id", "value": "$count", "_id": 0}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []bson.M
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *IssueRepository) CountSince(ctx context.Context, from, to time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"createdAt": bson.M{"$gte": from, "$lt": to},
	})
}

func (r *IssueRepository) CountOpen(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"open": true})
}
