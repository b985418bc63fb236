package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	Pothole     IssueCategory = "Pothole"
	Road        IssueCategory = "Road"
	Water       IssueCategory = "Water"
	Sanitation  IssueCategory = "Sanitation"
	Electricity IssueCategory = "Electricity"
	Streetlight IssueCategory = "Streetlight"
	Garbage     IssueCategory = "Garbage"
	Other       IssueCategory = "Other"
)

// ValidCategories lists every category a citizen may report.
var ValidCategories = map[IssueCategory]bool{
	Pothole: true, Road: true, Water: true, Sanitation: true,
	Electricity: true, Streetlight: true, Garbage: true, Other: true,
}

// IssueStatus enum; legal transitions are owned by the state machine in services.
type IssueStatus string

const (
	Submitted    IssueStatus = "Submitted"
	Acknowledged IssueStatus = "Acknowledged"
	InProgress   IssueStatus = "InProgress"
	Resolved     IssueStatus = "Resolved"
	Rejected     IssueStatus = "Rejected"
)

// Terminal reports whether no further transitions are possible.
func (s IssueStatus) Terminal() bool {
	return s == Resolved || s == Rejected
}

// Severity enum, set once at intake.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Weight orders tiers for scoring: High=3, Medium=2, Low=1.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

// GeoPoint is a GeoJSON point; coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Longitude() float64 { return p.Coordinates[0] }
func (p GeoPoint) Latitude() float64  { return p.Coordinates[1] }

// StatusEntry is one row of the append-only status timeline.
type StatusEntry struct {
	Status  IssueStatus        `bson:"status" json:"status"`
	At      time.Time          `bson:"at" json:"at"`
	Actor   primitive.ObjectID `bson:"actor" json:"actor"`
	Comment string             `bson:"comment,omitempty" json:"comment,omitempty"`
}

// Issue represents a civic issue reported by a citizen.
type Issue struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Reporter        primitive.ObjectID   `bson:"reporter" json:"reporter"`
	Title           string               `bson:"title" json:"title"`
	Description     string               `bson:"description" json:"description"`
	Category        IssueCategory        `bson:"category" json:"category"`
	ImageURL        string               `bson:"imageUrl" json:"imageUrl"`
	ProofImages     []string             `bson:"proofImages,omitempty" json:"proofImages,omitempty"`
	Location        GeoPoint             `bson:"location" json:"location"`
	Address         string               `bson:"address,omitempty" json:"address,omitempty"`
	GeoCell         string               `bson:"geoCell" json:"-"`
	DepartmentTag   string               `bson:"departmentTag" json:"departmentTag"`
	Page            *primitive.ObjectID  `bson:"page,omitempty" json:"page,omitempty"`
	Status          IssueStatus          `bson:"status" json:"status"`
	Open            bool                 `bson:"open" json:"open"`
	StatusTimeline  []StatusEntry        `bson:"statusTimeline" json:"statusTimeline"`
	PriorityScore   float64              `bson:"priorityScore" json:"priorityScore"`
	AISeverity      Severity             `bson:"aiSeverity" json:"aiSeverity"`
	AITags          []string             `bson:"aiTags,omitempty" json:"aiTags,omitempty"`
	Upvotes         []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	ResolvedBy      *primitive.ObjectID  `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolutionProof *string              `bson:"resolutionProof,omitempty" json:"resolutionProof,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (i *Issue) UpvoteCount() int { return len(i.Upvotes) }

// HasUpvoteFrom reports whether user already upvoted the issue.
func (i *Issue) HasUpvoteFrom(user primitive.ObjectID) bool {
	for _, u := range i.Upvotes {
		if u == user {
			return true
		}
	}
	return false
}

// AgeHours is the age of the report at t, clamped at zero.
func (i *Issue) AgeHours(t time.Time) float64 {
	h := t.Sub(i.CreatedAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}
