package services

import "civicpulse-be/models"

// Priority score weighting. The score orders triage queues: monotonic in
// upvotes, monotonic in severity tier, and age contributes a bounded boost so
// an old unresolved hazard does not sink below fresh low-tier reports.
const (
	severityWeight = 20.0
	upvoteWeight   = 5.0
	ageBoostCap    = 10.0 // reached after ten days open
)

// PriorityScore combines severity weight, citizen support, and report age.
// It is recomputed on upvote changes and on the re-scoring cadence, never for
// closed issues.
func PriorityScore(severity models.Severity, upvotes int, ageHours float64) float64 {
	w := severity.Weight()
	if ageHours < 0 {
		ageHours = 0
	}
	ageBoost := ageHours / 24
	if ageBoost > ageBoostCap {
		ageBoost = ageBoostCap
	}
	return w*severityWeight + float64(upvotes)*upvoteWeight + ageBoost*w
}
