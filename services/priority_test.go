package services

import (
	"testing"

	"civicpulse-be/models"

	"github.com/stretchr/testify/assert"
)

func TestPriorityMonotonicInUpvotes(t *testing.T) {
	severities := []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh}
	ages := []float64{0, 1, 24, 72, 500}

	for _, sev := range severities {
		for _, age := range ages {
			prev := PriorityScore(sev, 0, age)
			for upvotes := 1; upvotes <= 50; upvotes++ {
				score := PriorityScore(sev, upvotes, age)
				assert.GreaterOrEqual(t, score, prev,
					"severity=%s age=%.0f upvotes=%d", sev, age, upvotes)
				prev = score
			}
		}
	}
}

func TestPriorityMonotonicInSeverity(t *testing.T) {
	for upvotes := 0; upvotes <= 20; upvotes += 5 {
		for _, age := range []float64{0, 12, 240} {
			low := PriorityScore(models.SeverityLow, upvotes, age)
			medium := PriorityScore(models.SeverityMedium, upvotes, age)
			high := PriorityScore(models.SeverityHigh, upvotes, age)
			assert.Greater(t, high, medium, "upvotes=%d age=%.0f", upvotes, age)
			assert.Greater(t, medium, low, "upvotes=%d age=%.0f", upvotes, age)
		}
	}
}

func TestPriorityAgeBoostIsBounded(t *testing.T) {
	capped := PriorityScore(models.SeverityHigh, 0, 10*24)
	beyond := PriorityScore(models.SeverityHigh, 0, 100*24)
	assert.Equal(t, capped, beyond, "age boost must stop growing after the cap")

	// Older never scores lower.
	young := PriorityScore(models.SeverityHigh, 0, 1)
	old := PriorityScore(models.SeverityHigh, 0, 48)
	assert.Greater(t, old, young)
}

func TestPriorityNegativeAgeClamped(t *testing.T) {
	assert.Equal(t,
		PriorityScore(models.SeverityMedium, 3, 0),
		PriorityScore(models.SeverityMedium, 3, -5),
	)
}
