package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRole enum
type UserRole string

const (
	RoleCitizen UserRole = "citizen"
	RoleStaff   UserRole = "staff"
	RoleAdmin   UserRole = "admin"
)

// Staff reports whether the role may drive issue status transitions.
func (r UserRole) Staff() bool {
	return r == RoleStaff || r == RoleAdmin
}

type User struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	Password        string               `bson:"password,omitempty" json:"-"`
	Role            UserRole             `bson:"role" json:"role"`
	Points          int                  `bson:"points" json:"points"`
	Badges          []primitive.ObjectID `bson:"badges,omitempty" json:"badges,omitempty"`
	ReportsResolved int                  `bson:"reportsResolved" json:"reportsResolved"`
	ImpactScore     int                  `bson:"impactScore" json:"impactScore"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
