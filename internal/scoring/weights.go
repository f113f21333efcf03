package scoring

import (
	"github.com/m-mizutani/goerr/v2"
)

// LayerWeights is the solved weight vector of one judged layer.
type LayerWeights struct {
	Layer Layer `json:"layer"`
	WeightVector
}

// ApplyJudgments derives category weights from pairwise judgments and returns
// a new tree carrying them. Judgments of the categories layer reweight the
// three top-level branches; judgments of the risk layer reweight the risk
// subcategories. A layer without judgments keeps its current weights and is
// not reported. The input tree is not modified.
func ApplyJudgments(tree WeightTree, pairs []CategoryPair) (WeightTree, []LayerWeights, error) {
	byLayer := make(map[Layer][]CategoryPair)
	for _, p := range pairs {
		switch p.Layer {
		case LayerCategories, LayerRisk:
			byLayer[p.Layer] = append(byLayer[p.Layer], p)
		default:
			return WeightTree{}, nil, goerr.Wrap(ErrInvalidJudgment, "unknown judgment layer", goerr.V(LayerKey, p.Layer))
		}
	}

	out := tree
	out.Strategic.Items = append([]Item(nil), tree.Strategic.Items...)
	out.Value.Items = append([]Item(nil), tree.Value.Items...)
	out.Risk.Categories = append([]Category(nil), tree.Risk.Categories...)

	var report []LayerWeights

	if judged := byLayer[LayerCategories]; len(judged) > 0 {
		labels := []string{tree.Strategic.Label, tree.Risk.Label, tree.Value.Label}
		v, err := ComputeWeights(labels, judged)
		if err != nil {
			return WeightTree{}, nil, goerr.Wrap(err, "solve layer", goerr.V(LayerKey, LayerCategories))
		}
		out.Strategic.Weight = v.Weights[0]
		out.Risk.Weight = v.Weights[1]
		out.Value.Weight = v.Weights[2]
		report = append(report, LayerWeights{Layer: LayerCategories, WeightVector: v})
	}

	if judged := byLayer[LayerRisk]; len(judged) > 0 {
		v, err := ComputeWeights(tree.RiskLabels(), judged)
		if err != nil {
			return WeightTree{}, nil, goerr.Wrap(err, "solve layer", goerr.V(LayerKey, LayerRisk))
		}
		out.Risk.Categories = withCategoryWeights(tree.Risk.Categories, v)
		report = append(report, LayerWeights{Layer: LayerRisk, WeightVector: v})
	}

	return out, report, nil
}

// CheckLayers returns ErrInconsistentJudgments for the first layer whose
// consistency ratio exceeds maxCR.
func CheckLayers(layers []LayerWeights, maxCR float64) error {
	for _, l := range layers {
		if err := l.Check(maxCR); err != nil {
			return goerr.Wrap(err, "inconsistent layer", goerr.V(LayerKey, l.Layer))
		}
	}
	return nil
}
