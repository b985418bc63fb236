package repository

import (
	"context"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RewardRepository persists the append-only reward ledger.
type RewardRepository struct {
	client  *mongo.Client
	rewards *mongo.Collection
	users   *mongo.Collection
}

func NewRewardRepository(client *mongo.Client, rewards, users *mongo.Collection) *RewardRepository {
	return &RewardRepository{client: client, rewards: rewards, users: users}
}

// GrantOnce appends the ledger entry and increments the cached points in one
// transaction; the ledger's unique (user, issue, reason) index turns a repeat
// grant into a duplicate-key error, reported as applied=false. Partial
// application (entry without increment, or the reverse) is never observable.
func (r *RewardRepository) GrantOnce(ctx context.Context, reward *models.Reward) (bool, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return false, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.rewards.InsertOne(sc, reward); err != nil {
			return nil, err
		}
		_, err := r.users.UpdateOne(sc,
			bson.M{"_id": reward.User},
			bson.M{"$inc": bson.M{"points": reward.Points}},
		)
		return nil, err
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LedgerFor returns a user's reward history, newest first.
func (r *RewardRepository) LedgerFor(ctx context.Context, userID primitive.ObjectID) ([]models.Reward, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	cursor, err := r.rewards.Find(ctx, bson.M{"user": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rewards []models.Reward
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}
