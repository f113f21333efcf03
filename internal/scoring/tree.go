package scoring

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
)

// Top-level branch labels. The tree always has these three branches in this order.
const (
	LabelStrategic = "Strategic goals"
	LabelRisk      = "Risk minimization"
	LabelValue     = "Value potential"
)

// Item is a leaf criterion scored per use case.
type Item struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
}

// Category is a node of the weight tree. It is either a LeafCategory holding
// items or a CompositeCategory holding subcategories.
type Category interface {
	CategoryLabel() string
	CategoryWeight() float64
	isCategory()
}

// LeafCategory groups items.
type LeafCategory struct {
	Label  string  `json:"label"`
	Weight float64 `json:"weight"`
	Items  []Item  `json:"items"`
}

func (c LeafCategory) CategoryLabel() string   { return c.Label }
func (c LeafCategory) CategoryWeight() float64 { return c.Weight }
func (LeafCategory) isCategory()               {}

// CompositeCategory groups subcategories.
type CompositeCategory struct {
	Label      string     `json:"label"`
	Weight     float64    `json:"weight"`
	Categories []Category `json:"categories"`
}

func (c CompositeCategory) CategoryLabel() string   { return c.Label }
func (c CompositeCategory) CategoryWeight() float64 { return c.Weight }
func (CompositeCategory) isCategory()               {}

// RiskCategory is the risk branch: subcategories plus a multiplier applied to
// the branch weight in the final combination.
type RiskCategory struct {
	CompositeCategory
	RiskFactor float64 `json:"risk_factor"`
}

// WeightTree is the immutable three-branch template a rating is computed against.
type WeightTree struct {
	Strategic LeafCategory `json:"strategic"`
	Risk      RiskCategory `json:"risk"`
	// Value item weights are placeholders; ratings resolve them per process.
	Value LeafCategory `json:"value"`
}

// DefaultTemplate returns the stock template with every weight set to 1.
func DefaultTemplate() WeightTree {
	leaf := func(label string, items ...string) LeafCategory {
		c := LeafCategory{Label: label, Weight: 1}
		for _, it := range items {
			c.Items = append(c.Items, Item{Label: it, Weight: 1})
		}
		return c
	}

	return WeightTree{
		Strategic: leaf(LabelStrategic, "Goal1", "Goal2", "Goal3"),
		Risk: RiskCategory{
			CompositeCategory: CompositeCategory{
				Label:  LabelRisk,
				Weight: 1,
				Categories: []Category{
					leaf("Challenges and issues", "Involvement of external partners", "Deviations / process variants", "Processual weaknesses"),
					leaf("State of data", "Availability of data", "Data quality"),
					leaf("Organizational support", "Management support", "Department support", "Employee support"),
					leaf("Skills and capabilities", "Technological skills", "analytical skills", "Process expertise"),
				},
			},
			RiskFactor: 1,
		},
		Value: leaf(LabelValue, "Time", "Cost", "Quality", "Flexibility"),
	}
}

// Branches returns the three top-level categories in their fixed order.
func (t WeightTree) Branches() []Category {
	return []Category{t.Strategic, t.Risk.CompositeCategory, t.Value}
}

// Labels returns every leaf item label in template order.
func (t WeightTree) Labels() []string {
	var labels []string
	for _, b := range t.Branches() {
		walkItems(b, func(it Item) { labels = append(labels, it.Label) })
	}
	return labels
}

// RiskLabels returns the labels of the risk subcategories in order.
func (t WeightTree) RiskLabels() []string {
	labels := make([]string, 0, len(t.Risk.Categories))
	for _, c := range t.Risk.Categories {
		if c != nil {
			labels = append(labels, c.CategoryLabel())
		}
	}
	return labels
}

// Validate checks the tree shape, weights and leaf label uniqueness.
func (t WeightTree) Validate() error {
	for _, b := range t.Branches() {
		if err := validateCategory(b); err != nil {
			return err
		}
	}
	if err := CheckWeight(LabelRisk+" risk factor", t.Risk.RiskFactor); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, label := range t.Labels() {
		if _, ok := seen[label]; ok {
			return goerr.Wrap(ErrDuplicateLabel, "leaf labels must be unique", goerr.V(LabelKey, label))
		}
		seen[label] = struct{}{}
	}
	return nil
}

func validateCategory(c Category) error {
	if c == nil {
		return goerr.Wrap(ErrInvalidCategoryShape, "nil category")
	}
	if err := CheckWeight(c.CategoryLabel(), c.CategoryWeight()); err != nil {
		return err
	}

	switch c := c.(type) {
	case LeafCategory:
		if len(c.Items) == 0 {
			return goerr.Wrap(ErrInvalidCategoryShape, "leaf category without items", goerr.V(CategoryKey, c.Label))
		}
		for _, it := range c.Items {
			if err := CheckWeight(it.Label, it.Weight); err != nil {
				return err
			}
		}
	case CompositeCategory:
		if len(c.Categories) == 0 {
			return goerr.Wrap(ErrInvalidCategoryShape, "composite category without subcategories", goerr.V(CategoryKey, c.Label))
		}
		for _, sub := range c.Categories {
			if err := validateCategory(sub); err != nil {
				return goerr.Wrap(err, "invalid subcategory", goerr.V(CategoryKey, c.Label))
			}
		}
	default:
		return goerr.Wrap(ErrInvalidCategoryShape, "unknown category kind", goerr.V(CategoryKey, c.CategoryLabel()))
	}
	return nil
}

// CheckWeight rejects negative and non-finite weights with ErrInvalidWeight.
func CheckWeight(label string, w float64) error {
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return goerr.Wrap(ErrInvalidWeight, "bad weight", goerr.V(LabelKey, label), goerr.V(WeightKey, w))
	}
	return nil
}

func walkItems(c Category, fn func(Item)) {
	switch c := c.(type) {
	case LeafCategory:
		for _, it := range c.Items {
			fn(it)
		}
	case CompositeCategory:
		for _, sub := range c.Categories {
			walkItems(sub, fn)
		}
	}
}

// withCategoryWeights returns a copy of the subcategory list with weights
// replaced from the vector. Labels missing from the vector keep their weight.
func withCategoryWeights(cats []Category, v WeightVector) []Category {
	out := make([]Category, len(cats))
	for i, c := range cats {
		w, ok := v.Weight(c.CategoryLabel())
		if !ok {
			out[i] = c
			continue
		}
		switch c := c.(type) {
		case LeafCategory:
			c.Items = append([]Item(nil), c.Items...)
			c.Weight = w
			out[i] = c
		case CompositeCategory:
			c.Categories = append([]Category(nil), c.Categories...)
			c.Weight = w
			out[i] = c
		default:
			out[i] = c
		}
	}
	return out
}
