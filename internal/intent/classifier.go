package intent

import (
	"strings"

	"sshmate/internal/models"
)

// Scoring constants. A single pattern match on a short input lands at exactly
// 1.0; anything at or below the act threshold is reported as unknown.
const (
	matchWeight     = 0.8
	conciseBonus    = 0.2
	conciseTokenMax = 10

	// ActThreshold is the gate between acting on an intent and asking for
	// clarification. Callers must treat confidence below it as a hard stop.
	ActThreshold = 0.5
)

// Classifier scores raw input text against an intent catalog.
// Classification is pure and side-effect free; the classifier is safe for
// concurrent use as long as the catalog is.
type Classifier struct {
	catalog *Catalog
}

// NewClassifier creates a classifier over the given catalog.
func NewClassifier(catalog *Catalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// Catalog returns the catalog this classifier consults.
func (cl *Classifier) Catalog() *Catalog {
	return cl.catalog
}

// Classify maps free text to the best-matching intent, or the unknown sentinel
// when nothing scores above the act threshold.
func (cl *Classifier) Classify(text string) models.ResolvedIntent {
	normalized := strings.ToLower(strings.TrimSpace(text))
	tokenCount := len(strings.Fields(normalized))

	var (
		best      *models.IntentRule
		bestScore float64
	)

	cl.catalog.visit(func(cr compiledRule) {
		for _, re := range cr.patterns {
			matches := re.FindAllStringIndex(normalized, -1)
			if matches == nil {
				continue
			}

			score := matchWeight * float64(len(matches))
			if tokenCount <= conciseTokenMax {
				score += conciseBonus
			}

			// Strictly greater keeps the first-seen rule on ties.
			if score > bestScore {
				bestScore = score
				rule := cr.rule
				best = &rule
			}
		}
	})

	if best == nil || bestScore <= ActThreshold {
		return models.ResolvedIntent{
			Action:       models.ActionUnknown,
			Unknown:      &models.UnknownIntent{OriginalText: normalized},
			Confidence:   0.0,
			OriginalText: normalized,
		}
	}

	confidence := bestScore
	if confidence > 1.0 {
		confidence = 1.0
	}

	return models.ResolvedIntent{
		Action: best.Intent,
		Commands: &models.CommandIntent{
			Commands:      best.Commands,
			Description:   best.Description,
			MarkerCommand: best.MarkerCommand,
		},
		Confidence:   confidence,
		OriginalText: normalized,
	}
}
