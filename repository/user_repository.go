package repository

import (
	"context"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	users  *mongo.Collection
	badges *mongo.Collection
}

func NewUserRepository(users, badges *mongo.Collection) *UserRepository {
	return &UserRepository{users: users, badges: badges}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RecordResolution bumps the reporter's counters after a resolution reward.
func (r *UserRepository) RecordResolution(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"reportsResolved": 1, "impactScore": 5}},
	)
	return err
}

// AwardBadge resolves the badge by slug and adds it to the user's set; adding
// an already-earned badge is a no-op.
func (r *UserRepository) AwardBadge(ctx context.Context, userID primitive.ObjectID, badgeSlug string) error {
	var badge models.Badge
	if err := r.badges.FindOne(ctx, bson.M{"slug": badgeSlug}).Decode(&badge); err != nil {
		return err
	}

	_, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"badges": badge.ID}},
	)
	return err
}

// Leaderboard returns the top users by points.
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]models.User, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.users.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SeedBadges inserts the default badge catalog, skipping slugs that exist.
func (r *UserRepository) SeedBadges(ctx context.Context) error {
	for _, badge := range models.DefaultBadges {
		count, err := r.badges.CountDocuments(ctx, bson.M{"slug": badge.Slug})
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		badge.ID = primitive.NewObjectID()
		if _, err := r.badges.InsertOne(ctx, badge); err != nil {
			return err
		}
	}
	return nil
}
