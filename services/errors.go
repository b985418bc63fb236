package services

import (
	"errors"
	"fmt"

	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrRewardAlreadyGranted means the idempotency guard tripped; callers
	// treat it as a successful no-op.
	ErrRewardAlreadyGranted = errors.New("reward already granted")

	// ErrTransientConflict is returned after a storage conflict persisted
	// through one retry with fresh state.
	ErrTransientConflict = errors.New("transient storage conflict")

	// ErrIssueClosed rejects support actions against terminal issues.
	ErrIssueClosed = errors.New("issue is closed")
)

// ValidationError rejects a malformed submission before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateConflictError reports a near-identical open issue; it carries the
// existing issue so the caller can surface it.
type DuplicateConflictError struct {
	Existing primitive.ObjectID
}

func (e *DuplicateConflictError) Error() string {
	return fmt.Sprintf("duplicate nearby issue %s", e.Existing.Hex())
}

// InvalidTransitionError reports an illegal status change; the issue is left
// unchanged and Allowed lists the legal next statuses.
type InvalidTransitionError struct {
	From    models.IssueStatus
	To      models.IssueStatus
	Allowed []models.IssueStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s -> %s", e.From, e.To)
}
