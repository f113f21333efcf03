package scoring

import (
	"github.com/m-mizutani/goerr/v2"
)

// Importance scale bounds. 8 means both categories matter equally; values
// below favour the first category, values above favour the second.
const (
	MinImportance   = 1
	EqualImportance = 8
	MaxImportance   = 15
)

// Layer names the level of the template a judgment applies to.
type Layer string

const (
	// LayerCategories compares the three top-level branches.
	LayerCategories Layer = "categories"
	// LayerRisk compares the subcategories of the risk branch.
	LayerRisk Layer = "risk"
)

// CategoryPair is one pairwise importance judgment between two categories.
type CategoryPair struct {
	Layer      Layer  `json:"layer" yaml:"layer"`
	Category1  string `json:"category1" yaml:"category1"`
	Category2  string `json:"category2" yaml:"category2"`
	Importance int    `json:"importance" yaml:"importance"`
}

// PairWeighting states that Label1 is Ratio times as important as Label2.
type PairWeighting struct {
	Label1 string  `json:"label1"`
	Label2 string  `json:"label2"`
	Ratio  float64 `json:"ratio"`
}

// Ratio maps an ordinal importance judgment onto the AHP ratio scale.
//
//	importance == 8 -> 1
//	importance <  8 -> 9 - importance        (2..8, first category favoured)
//	importance >  8 -> 1 / (importance - 7)  (1/2..1/8, second category favoured)
//
// Ratio(i) and Ratio(16-i) are reciprocal.
func Ratio(importance int) (float64, error) {
	switch {
	case importance < MinImportance || importance > MaxImportance:
		return 0, goerr.Wrap(ErrInvalidJudgment, "importance out of range",
			goerr.V(ImportanceKey, importance))
	case importance == EqualImportance:
		return 1, nil
	case importance < EqualImportance:
		return float64(9 - importance), nil
	default:
		return 1 / float64(importance-7), nil
	}
}

// ToPairWeighting converts a judgment into the ratio triple consumed by the solver.
func ToPairWeighting(p CategoryPair) (PairWeighting, error) {
	r, err := Ratio(p.Importance)
	if err != nil {
		return PairWeighting{}, goerr.Wrap(err, "convert judgment",
			goerr.V("category1", p.Category1), goerr.V("category2", p.Category2))
	}
	return PairWeighting{Label1: p.Category1, Label2: p.Category2, Ratio: r}, nil
}
