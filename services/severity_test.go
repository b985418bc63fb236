package services

import (
	"testing"

	"civicpulse-be/classifier"
	"civicpulse-be/models"

	"github.com/stretchr/testify/assert"
)

func TestClassifySeverityDeterministicWithoutAI(t *testing.T) {
	for category := range models.ValidCategories {
		first := ClassifySeverity(category, nil)
		for i := 0; i < 3; i++ {
			again := ClassifySeverity(category, nil)
			assert.Equal(t, first, again, "category %s must classify deterministically", category)
		}
		assert.NotEmpty(t, first.Severity)
	}
}

func TestClassifySeverityBaseTiers(t *testing.T) {
	tests := []struct {
		category models.IssueCategory
		want     models.Severity
	}{
		{models.Electricity, models.SeverityHigh},
		{models.Water, models.SeverityHigh},
		{models.Pothole, models.SeverityMedium},
		{models.Road, models.SeverityMedium},
		{models.Garbage, models.SeverityLow},
		{models.Streetlight, models.SeverityLow},
		{models.Other, models.SeverityLow},
	}
	for _, tt := range tests {
		got := ClassifySeverity(tt.category, nil)
		assert.Equal(t, tt.want, got.Severity, "category %s", tt.category)
	}
}

func TestClassifySeverityAIOverride(t *testing.T) {
	tests := []struct {
		name     string
		category models.IssueCategory
		analysis *classifier.Analysis
		want     models.Severity
		wantTags []string
	}{
		{
			name:     "confident hazard raises tier",
			category: models.Garbage,
			analysis: &classifier.Analysis{IsValid: true, Confidence: 0.9, Tags: []string{"hazard", "overflow"}},
			want:     models.SeverityHigh,
			wantTags: []string{"hazard", "overflow"},
		},
		{
			name:     "ai never lowers the tier",
			category: models.Water,
			analysis: &classifier.Analysis{IsValid: true, Confidence: 0.95, Tags: []string{"cosmetic"}},
			want:     models.SeverityHigh,
			wantTags: []string{"cosmetic"},
		},
		{
			name:     "low confidence falls back",
			category: models.Garbage,
			analysis: &classifier.Analysis{IsValid: true, Confidence: 0.3, Tags: []string{"hazard"}},
			want:     models.SeverityLow,
		},
		{
			name:     "invalid image falls back",
			category: models.Pothole,
			analysis: &classifier.Analysis{IsValid: false, Confidence: 0.99, Tags: []string{"hazard"}},
			want:     models.SeverityMedium,
		},
		{
			name:     "nil analysis falls back",
			category: models.Road,
			analysis: nil,
			want:     models.SeverityMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySeverity(tt.category, tt.analysis)
			assert.Equal(t, tt.want, got.Severity)
			assert.Equal(t, tt.wantTags, got.Tags)
		})
	}
}
