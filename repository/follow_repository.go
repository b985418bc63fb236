package repository

import (
	"context"
	"time"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type FollowRepository struct {
	follows *mongo.Collection
	pages   *mongo.Collection
}

func NewFollowRepository(follows, pages *mongo.Collection) *FollowRepository {
	return &FollowRepository{follows: follows, pages: pages}
}

// Follow creates the relationship and bumps the page's denormalized counter.
// The unique (follower, page) index makes a concurrent duplicate a no-op, so
// the counter is only bumped when the insert actually lands.
func (r *FollowRepository) Follow(ctx context.Context, follower, page primitive.ObjectID, notify bool) (*models.Follow, error) {
	follow := &models.Follow{
		ID:            primitive.NewObjectID(),
		Follower:      follower,
		Page:          page,
		NotifyEnabled: notify,
		CreatedAt:     time.Now(),
	}

	if _, err := r.follows.InsertOne(ctx, follow); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var existing models.Follow
			if ferr := r.follows.FindOne(ctx, bson.M{"follower": follower, "page": page}).Decode(&existing); ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}

	_, err := r.pages.UpdateOne(ctx,
		bson.M{"_id": page},
		bson.M{"$inc": bson.M{"followersCount": 1}},
	)
	return follow, err
}

func (r *FollowRepository) Unfollow(ctx context.Context, follower, page primitive.ObjectID) error {
	result, err := r.follows.DeleteOne(ctx, bson.M{"follower": follower, "page": page})
	if err != nil {
		return err
	}
	if result.DeletedCount == 1 {
		_, err = r.pages.UpdateOne(ctx,
			bson.M{"_id": page},
			bson.M{"$inc": bson.M{"followersCount": -1}},
		)
	}
	return err
}

func (r *FollowRepository) NotifiableFollowers(ctx context.Context, pageID primitive.ObjectID) ([]models.Follow, error) {
	cursor, err := r.follows.Find(ctx, bson.M{"page": pageID, "notifyEnabled": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var follows []models.Follow
	if err := cursor.All(ctx, &follows); err != nil {
		return nil, err
	}
	return follows, nil
}
