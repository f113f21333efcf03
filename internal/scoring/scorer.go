package scoring

import (
	"log/slog"
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// ValueWeightResolver supplies the weight of a value-potential item for the
// process a use case belongs to.
type ValueWeightResolver interface {
	ValueWeight(label string) (float64, error)
}

// ValueWeightFunc adapts a function to ValueWeightResolver.
type ValueWeightFunc func(label string) (float64, error)

func (f ValueWeightFunc) ValueWeight(label string) (float64, error) { return f(label) }

// StaticWeights resolves value weights from a fixed label -> weight map.
type StaticWeights map[string]float64

func (s StaticWeights) ValueWeight(label string) (float64, error) {
	w, ok := s[label]
	if !ok {
		return 0, goerr.Wrap(ErrUnknownLabel, "no value weight for label", goerr.V(LabelKey, label))
	}
	return w, nil
}

// ProcessWeightResolver is the process catalog contract: the weight of a
// value item for a given process.
type ProcessWeightResolver interface {
	ProcessItemWeight(processID, label string) (float64, error)
}

// ForProcess binds a catalog resolver to one process.
func ForProcess(r ProcessWeightResolver, processID string) ValueWeightResolver {
	return ValueWeightFunc(func(label string) (float64, error) {
		return r.ProcessItemWeight(processID, label)
	})
}

// SubScore is the aggregate of one top-level branch.
type SubScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// CategoryScore explains how one node of the tree contributed.
type CategoryScore struct {
	Label    string          `json:"label"`
	Weight   float64         `json:"weight"`
	Score    float64         `json:"score"`
	Children []CategoryScore `json:"children,omitempty"`
}

// Rating is the result of rating one use case.
type Rating struct {
	Score     float64         `json:"score"`
	SubScores []SubScore      `json:"sub_scores"`
	Breakdown []CategoryScore `json:"breakdown,omitempty"`
}

// Rater aggregates attribute scores against a validated weight tree. It holds
// no mutable state and is safe for concurrent use.
type Rater struct {
	tree   WeightTree
	logger *slog.Logger
}

// NewRater validates the tree and returns a Rater bound to it.
func NewRater(tree WeightTree, logger *slog.Logger) (*Rater, error) {
	if err := tree.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid weight tree")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rater{tree: tree, logger: logger}, nil
}

// Tree returns the weight tree the rater was built with.
func (r *Rater) Tree() WeightTree {
	return r.tree
}

// ComputeRating validates tree and rates attrs against it.
func ComputeRating(attrs []Attribute, tree WeightTree, values ValueWeightResolver) (Rating, error) {
	r, err := NewRater(tree, nil)
	if err != nil {
		return Rating{}, err
	}
	return r.Rate(attrs, values)
}

// Rate computes the weighted-mean score of each branch and combines them:
//
//	score = (S*wS + R*wR*riskFactor + V*wV) / (wS + wR*riskFactor + wV)
//
// Value item weights come from values instead of the template.
func (r *Rater) Rate(attrs []Attribute, values ValueWeightResolver) (Rating, error) {
	static := func(it Item) (float64, error) { return it.Weight, nil }
	resolved := func(it Item) (float64, error) {
		if values == nil {
			return 0, goerr.Wrap(ErrInvalidWeight, "no value weight resolver", goerr.V(LabelKey, it.Label))
		}
		w, err := values.ValueWeight(it.Label)
		if err != nil {
			return 0, goerr.Wrap(err, "resolve value weight", goerr.V(LabelKey, it.Label))
		}
		if err := CheckWeight(it.Label, w); err != nil {
			return 0, err
		}
		return w, nil
	}

	strategic, err := categoryScore(r.tree.Strategic, attrs, static)
	if err != nil {
		return Rating{}, err
	}
	risk, err := categoryScore(r.tree.Risk.CompositeCategory, attrs, static)
	if err != nil {
		return Rating{}, err
	}
	value, err := categoryScore(r.tree.Value, attrs, resolved)
	if err != nil {
		return Rating{}, err
	}

	wS := r.tree.Strategic.Weight
	wR := r.tree.Risk.Weight * r.tree.Risk.RiskFactor
	wV := r.tree.Value.Weight
	score, err := weightedMean(strategic.Score*wS+risk.Score*wR+value.Score*wV, wS+wR+wV)
	if err != nil {
		return Rating{}, goerr.Wrap(err, "combine branch scores")
	}

	r.logger.Debug("rating computed",
		"score", score,
		"strategic", strategic.Score,
		"risk", risk.Score,
		"value", value.Score,
	)

	return Rating{
		Score: score,
		SubScores: []SubScore{
			{Label: strategic.Label, Score: strategic.Score},
			{Label: risk.Label, Score: risk.Score},
			{Label: value.Label, Score: value.Score},
		},
		Breakdown: []CategoryScore{strategic, risk, value},
	}, nil
}

// categoryScore is the weighted mean of a category's children: item scores
// for a leaf, subcategory scores for a composite.
func categoryScore(c Category, attrs []Attribute, itemWeight func(Item) (float64, error)) (CategoryScore, error) {
	if c == nil {
		return CategoryScore{}, goerr.Wrap(ErrInvalidCategoryShape, "nil category")
	}
	out := CategoryScore{Label: c.CategoryLabel(), Weight: c.CategoryWeight()}

	var sum, weights float64
	switch c := c.(type) {
	case LeafCategory:
		if len(c.Items) == 0 {
			return CategoryScore{}, goerr.Wrap(ErrInvalidCategoryShape, "leaf category without items", goerr.V(CategoryKey, c.Label))
		}
		for _, it := range c.Items {
			w, err := itemWeight(it)
			if err != nil {
				return CategoryScore{}, err
			}
			s, err := AttributeScore(attrs, it.Label)
			if err != nil {
				return CategoryScore{}, goerr.Wrap(err, "score item", goerr.V(CategoryKey, c.Label))
			}
			sum += w * s
			weights += w
			out.Children = append(out.Children, CategoryScore{Label: it.Label, Weight: w, Score: s})
		}
	case CompositeCategory:
		if len(c.Categories) == 0 {
			return CategoryScore{}, goerr.Wrap(ErrInvalidCategoryShape, "composite category without subcategories", goerr.V(CategoryKey, c.Label))
		}
		for _, sub := range c.Categories {
			cs, err := categoryScore(sub, attrs, itemWeight)
			if err != nil {
				return CategoryScore{}, err
			}
			sum += cs.Weight * cs.Score
			weights += cs.Weight
			out.Children = append(out.Children, cs)
		}
	default:
		return CategoryScore{}, goerr.Wrap(ErrInvalidCategoryShape, "unknown category kind", goerr.V(CategoryKey, c.CategoryLabel()))
	}

	score, err := weightedMean(sum, weights)
	if err != nil {
		return CategoryScore{}, goerr.Wrap(err, "aggregate category", goerr.V(CategoryKey, out.Label))
	}
	out.Score = score
	return out, nil
}

// weightedMean divides an accumulated weighted sum by its total weight and
// rejects results that overflowed float64.
func weightedMean(sum, weights float64) (float64, error) {
	if math.IsInf(weights, 0) || math.IsNaN(weights) {
		return 0, goerr.Wrap(ErrInvalidWeight, "weight total overflowed", goerr.V(WeightKey, weights))
	}
	if weights == 0 {
		return 0, goerr.Wrap(ErrZeroWeightDenominator, "weights sum to zero")
	}
	mean := sum / weights
	if math.IsInf(mean, 0) || math.IsNaN(mean) {
		return 0, goerr.Wrap(ErrInvalidScore, "weighted mean is not finite", goerr.V("sum", sum))
	}
	return mean, nil
}
