package scoring

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// Attribute is one evaluated leaf value of a use case.
type Attribute struct {
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"`
}

// AttributeScore returns the score of the attribute with the given label.
// Labels are unique by contract, so a second match is reported as
// ErrDuplicateAttribute instead of picking one.
func AttributeScore(attrs []Attribute, label string) (float64, error) {
	found := -1
	for i, a := range attrs {
		if a.Label != label {
			continue
		}
		if found >= 0 {
			return 0, goerr.Wrap(ErrDuplicateAttribute, "label matched more than once", goerr.V(LabelKey, label))
		}
		found = i
	}
	if found < 0 {
		return 0, goerr.Wrap(ErrAttributeNotFound, "no attribute for label", goerr.V(LabelKey, label))
	}

	score := attrs[found].Score
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, goerr.Wrap(ErrInvalidScore, "bad attribute score", goerr.V(LabelKey, label))
	}
	return score, nil
}

// FlattenScores builds the attribute list of a use case from per-label scores,
// in template order. Every leaf of the tree must have a score.
func FlattenScores(t WeightTree, scores map[string]float64) ([]Attribute, error) {
	labels := t.Labels()
	attrs := make([]Attribute, 0, len(labels))
	for _, label := range labels {
		s, ok := scores[label]
		if !ok {
			return nil, goerr.Wrap(ErrAttributeNotFound, "template item has no score", goerr.V(LabelKey, label))
		}
		attrs = append(attrs, Attribute{Label: label, Score: s})
	}
	return attrs, nil
}
