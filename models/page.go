package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MunicipalPage is an official account for a department, city, or authority.
// FollowersCount is denormalized; the follow repository keeps it in step with
// the Follow collection.
type MunicipalPage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Handle         string             `bson:"handle" json:"handle"`
	Name           string             `bson:"name" json:"name"`
	Department     string             `bson:"department" json:"department"`
	Owner          primitive.ObjectID `bson:"owner" json:"owner"`
	FollowersCount int                `bson:"followersCount" json:"followersCount"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Follow links a citizen to a MunicipalPage; unique per (follower, page).
type Follow struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Follower      primitive.ObjectID `bson:"follower" json:"follower"`
	Page          primitive.ObjectID `bson:"page" json:"page"`
	NotifyEnabled bool               `bson:"notifyEnabled" json:"notifyEnabled"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
