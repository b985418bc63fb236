package services

import (
	"context"
	"log"
	"strings"
	"time"

	"civicpulse-be/classifier"
	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// classifierTimeout bounds the external AI call so a slow collaborator cannot
// stall a submission; on expiry classification falls back to the category map.
const classifierTimeout = 3 * time.Second

// Submission is a raw citizen report before intake.
type Submission struct {
	Reporter    primitive.ObjectID
	Title       string
	Description string
	Category    models.IssueCategory
	ImageURL    string
	ProofImages []string
	Longitude   float64
	Latitude    float64
	Address     string
	Page        *primitive.ObjectID
}

// IntakeOrchestrator sequences a new submission: validate, duplicate check,
// classify, score, persist. Persistence is the single commit point; nothing
// before it leaves observable state.
type IntakeOrchestrator struct {
	Issues     IssueRepository
	Duplicates *GeoDuplicateIndex
	Classifier classifier.ImageClassifier
	Rewards    *RewardEngine

	// DuplicateRadiusMeters defaults to DefaultDuplicateRadiusMeters.
	DuplicateRadiusMeters float64
}

func NewIntakeOrchestrator(issues IssueRepository, dup *GeoDuplicateIndex, cls classifier.ImageClassifier, rewards *RewardEngine) *IntakeOrchestrator {
	return &IntakeOrchestrator{
		Issues:                issues,
		Duplicates:            dup,
		Classifier:            cls,
		Rewards:               rewards,
		DuplicateRadiusMeters: DefaultDuplicateRadiusMeters,
	}
}

// Submit takes a raw report through intake. A near-identical open issue makes
// it return DuplicateConflictError carrying that issue's id; the caller
// surfaces the reference instead of creating a second report. A submission
// that loses the storage race against a concurrent twin is merged into the
// winner the same way.
func (o *IntakeOrchestrator) Submit(ctx context.Context, sub Submission) (*models.Issue, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	point := models.NewGeoPoint(sub.Longitude, sub.Latitude)

	existing, err := o.Duplicates.FindNearbyOpenIssue(ctx, point, sub.Category, o.DuplicateRadiusMeters)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateConflictError{Existing: existing.ID}
	}

	cls := o.classify(ctx, sub)
	now := time.Now()

	issue := &models.Issue{
		ID:            primitive.NewObjectID(),
		Reporter:      sub.Reporter,
		Title:         sub.Title,
		Description:   sub.Description,
		Category:      sub.Category,
		ImageURL:      sub.ImageURL,
		ProofImages:   sub.ProofImages,
		Location:      point,
		Address:       sub.Address,
		GeoCell:       GeoCell(sub.Longitude, sub.Latitude),
		DepartmentTag: DepartmentFor(sub.Category),
		Page:          sub.Page,
		Status:        models.Submitted,
		Open:          true,
		StatusTimeline: []models.StatusEntry{
			{Status: models.Submitted, At: now, Actor: sub.Reporter},
		},
		AISeverity: cls.Severity,
		AITags:     cls.Tags,
		Upvotes:    []primitive.ObjectID{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	issue.PriorityScore = PriorityScore(issue.AISeverity, 0, 0)

	if err := o.Issues.Insert(ctx, issue); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		// Lost the (geoCell, category) race, or the coarse cell is held
		// by a non-duplicate neighbor.
		if err := o.resolveInsertConflict(ctx, issue, point, sub); err != nil {
			return nil, err
		}
	}

	if _, err := o.Rewards.Grant(ctx, sub.Reporter, issue.ID, models.ReasonReportSubmitted); err != nil && err != ErrRewardAlreadyGranted {
		log.Printf("submission reward for issue %s failed: %v", issue.ID.Hex(), err)
	}

	return issue, nil
}

// resolveInsertConflict re-reads after a duplicate-key conflict on the
// (geoCell, category) constraint. A concurrent twin within the duplicate
// radius absorbs this submission as an upvote. An open issue that merely
// shares the ~38m coarse cell from beyond the radius is not a duplicate, so
// the insert is retried once under the finer sub-cell key; a conflict that
// survives the retry surfaces as transient.
func (o *IntakeOrchestrator) resolveInsertConflict(ctx context.Context, issue *models.Issue, point models.GeoPoint, sub Submission) error {
	existing, err := o.Duplicates.FindNearbyOpenIssue(ctx, point, sub.Category, o.DuplicateRadiusMeters)
	if err != nil {
		return err
	}
	if existing != nil {
		if _, err := o.Issues.AddUpvote(ctx, existing.ID, sub.Reporter); err != nil {
			log.Printf("merge upvote onto issue %s failed: %v", existing.ID.Hex(), err)
		}
		return &DuplicateConflictError{Existing: existing.ID}
	}

	issue.GeoCell = fineGeoCell(sub.Longitude, sub.Latitude)
	if err := o.Issues.Insert(ctx, issue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrTransientConflict
		}
		return err
	}
	return nil
}

// classify calls the external AI collaborator under a bounded timeout. Any
// failure degrades to the deterministic category mapping and is never
// surfaced to the citizen.
func (o *IntakeOrchestrator) classify(ctx context.Context, sub Submission) Classification {
	if o.Classifier == nil {
		return ClassifySeverity(sub.Category, nil)
	}

	cctx, cancel := context.WithTimeout(ctx, classifierTimeout)
	defer cancel()

	analysis, err := o.Classifier.Classify(cctx, sub.ImageURL)
	if err != nil {
		log.Printf("classifier unavailable, using category default: %v", err)
		return ClassifySeverity(sub.Category, nil)
	}
	return ClassifySeverity(sub.Category, analysis)
}

func validateSubmission(sub Submission) error {
	switch {
	case strings.TrimSpace(sub.Title) == "":
		return &ValidationError{Field: "title", Reason: "required"}
	case !models.ValidCategories[sub.Category]:
		return &ValidationError{Field: "category", Reason: "unknown category"}
	case sub.ImageURL == "":
		return &ValidationError{Field: "imageUrl", Reason: "required"}
	case sub.Longitude < -180 || sub.Longitude > 180:
		return &ValidationError{Field: "longitude", Reason: "out of range"}
	case sub.Latitude < -90 || sub.Latitude > 90:
		return &ValidationError{Field: "latitude", Reason: "out of range"}
	}
	return nil
}

// DepartmentFor routes a category to the municipal department tag.
func DepartmentFor(category models.IssueCategory) string {
	switch category {
	case models.Pothole, models.Road:
		return "Public Works"
	case models.Water, models.Sanitation, models.Garbage:
		return "Sanitation & Water"
	case models.Electricity, models.Streetlight:
		return "Power & Lighting"
	default:
		return "General"
	}
}
