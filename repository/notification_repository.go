package repository

import (
	"context"
	"encoding/json"

	"civicpulse-be/models"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// notificationQueue is the Redis list the delivery worker drains.
const notificationQueue = "civicpulse:notifications"

// NotificationRepository persists notification records and pushes each onto
// the Redis delivery queue. The queue push is fire-and-forget: the persisted
// record is the source of truth, transport is an external collaborator.
type NotificationRepository struct {
	collection *mongo.Collection
	redis      *redis.Client
}

func NewNotificationRepository(collection *mongo.Collection, redisClient *redis.Client) *NotificationRepository {
	return &NotificationRepository{collection: collection, redis: redisClient}
}

func (r *NotificationRepository) Dispatch(ctx context.Context, n *models.Notification) error {
	if _, err := r.collection.InsertOne(ctx, n); err != nil {
		return err
	}

	if r.redis != nil {
		if payload, err := json.Marshal(n); err == nil {
			// Best-effort; a queue hiccup does not fail the dispatch, the
			// record is already stored for pull-based delivery.
			r.redis.LPush(ctx, notificationQueue, payload)
		}
	}
	return nil
}

// ForRecipient returns a user's notifications, newest first.
func (r *NotificationRepository) ForRecipient(ctx context.Context, recipient primitive.ObjectID, limit int) ([]models.Notification, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"recipient": recipient}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead flags a notification as seen by its recipient.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipient primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "recipient": recipient},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}
