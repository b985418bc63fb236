package services

import (
	"civicpulse-be/classifier"
	"civicpulse-be/models"
)

// minConfidence is the floor below which AI signals are ignored.
const minConfidence = 0.6

// baseSeverity is the deterministic category mapping used when the AI
// collaborator is unavailable or unsure. Safety hazards default High,
// cosmetic problems default Low.
var baseSeverity = map[models.IssueCategory]models.Severity{
	models.Electricity: models.SeverityHigh,
	models.Water:       models.SeverityHigh,
	models.Pothole:     models.SeverityMedium,
	models.Road:        models.SeverityMedium,
	models.Sanitation:  models.SeverityMedium,
	models.Garbage:     models.SeverityLow,
	models.Streetlight: models.SeverityLow,
	models.Other:       models.SeverityLow,
}

// aiSeverityTags maps tags the classifier emits to tier overrides.
var aiSeverityTags = map[string]models.Severity{
	"hazard":     models.SeverityHigh,
	"blocking":   models.SeverityHigh,
	"damage":     models.SeverityMedium,
	"cosmetic":   models.SeverityLow,
	"minor-wear": models.SeverityLow,
}

// Classification is the intake result: a severity tier plus descriptive tags.
type Classification struct {
	Severity models.Severity
	Tags     []string
}

// ClassifySeverity maps the reported category to a tier. A confident AI
// analysis may override the tier and contributes its tags; anything else
// falls back to the category default.
func ClassifySeverity(category models.IssueCategory, analysis *classifier.Analysis) Classification {
	out := Classification{Severity: baseSeverity[category]}
	if out.Severity == "" {
		out.Severity = models.SeverityLow
	}

	if analysis == nil || !analysis.IsValid || analysis.Confidence < minConfidence {
		return out
	}

	out.Tags = append(out.Tags, analysis.Tags...)
	for _, tag := range analysis.Tags {
		if tier, ok := aiSeverityTags[tag]; ok && tier.Weight() > out.Severity.Weight() {
			out.Severity = tier
		}
	}
	return out
}
