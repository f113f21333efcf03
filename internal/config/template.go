package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

// TemplateConfig is the YAML form of a weight template.
type TemplateConfig struct {
	Strategic CategoryConfig `yaml:"strategic"`
	Risk      CategoryConfig `yaml:"risk"`
	Value     CategoryConfig `yaml:"value"`
}

// CategoryConfig is one category node. Exactly one of Items and Categories
// must be set. Omitted weights default to 1.
type CategoryConfig struct {
	Label      string           `yaml:"label"`
	Weight     *float64         `yaml:"weight,omitempty"`
	RiskFactor *float64         `yaml:"risk_factor,omitempty"`
	Items      []ItemConfig     `yaml:"items,omitempty"`
	Categories []CategoryConfig `yaml:"categories,omitempty"`
}

type ItemConfig struct {
	Label  string   `yaml:"label"`
	Weight *float64 `yaml:"weight,omitempty"`
}

func weightOr1(w *float64) float64 {
	if w == nil {
		return 1
	}
	return *w
}

// Tree converts the raw template into a validated weight tree. The strategic
// and value branches must hold items; the risk branch must hold categories.
func (t TemplateConfig) Tree() (scoring.WeightTree, error) {
	strategic, err := t.Strategic.leaf()
	if err != nil {
		return scoring.WeightTree{}, goerr.Wrap(err, "strategic branch")
	}
	value, err := t.Value.leaf()
	if err != nil {
		return scoring.WeightTree{}, goerr.Wrap(err, "value branch")
	}
	riskNode, err := t.Risk.category()
	if err != nil {
		return scoring.WeightTree{}, goerr.Wrap(err, "risk branch")
	}
	composite, ok := riskNode.(scoring.CompositeCategory)
	if !ok {
		return scoring.WeightTree{}, goerr.Wrap(scoring.ErrInvalidCategoryShape, "risk branch must hold categories",
			goerr.V(scoring.CategoryKey, t.Risk.Label))
	}

	tree := scoring.WeightTree{
		Strategic: strategic,
		Risk: scoring.RiskCategory{
			CompositeCategory: composite,
			RiskFactor:        weightOr1(t.Risk.RiskFactor),
		},
		Value: value,
	}
	if err := tree.Validate(); err != nil {
		return scoring.WeightTree{}, err
	}
	return tree, nil
}

func (c CategoryConfig) leaf() (scoring.LeafCategory, error) {
	node, err := c.category()
	if err != nil {
		return scoring.LeafCategory{}, err
	}
	leaf, ok := node.(scoring.LeafCategory)
	if !ok {
		return scoring.LeafCategory{}, goerr.Wrap(scoring.ErrInvalidCategoryShape, "category must hold items",
			goerr.V(scoring.CategoryKey, c.Label))
	}
	return leaf, nil
}

func (c CategoryConfig) category() (scoring.Category, error) {
	hasItems, hasCategories := len(c.Items) > 0, len(c.Categories) > 0
	if hasItems == hasCategories {
		return nil, goerr.Wrap(scoring.ErrInvalidCategoryShape, "category needs items or categories, not both",
			goerr.V(scoring.CategoryKey, c.Label))
	}

	if hasItems {
		leaf := scoring.LeafCategory{Label: c.Label, Weight: weightOr1(c.Weight)}
		for _, it := range c.Items {
			leaf.Items = append(leaf.Items, scoring.Item{Label: it.Label, Weight: weightOr1(it.Weight)})
		}
		return leaf, nil
	}

	composite := scoring.CompositeCategory{Label: c.Label, Weight: weightOr1(c.Weight)}
	for _, sub := range c.Categories {
		node, err := sub.category()
		if err != nil {
			return nil, goerr.Wrap(err, "invalid subcategory", goerr.V(scoring.CategoryKey, c.Label))
		}
		composite.Categories = append(composite.Categories, node)
	}
	return composite, nil
}

// TemplateFromTree is the inverse of Tree.
func TemplateFromTree(tree scoring.WeightTree) TemplateConfig {
	risk := categoryConfig(tree.Risk.CompositeCategory)
	rf := tree.Risk.RiskFactor
	risk.RiskFactor = &rf
	return TemplateConfig{
		Strategic: categoryConfig(tree.Strategic),
		Risk:      risk,
		Value:     categoryConfig(tree.Value),
	}
}

func categoryConfig(c scoring.Category) CategoryConfig {
	w := c.CategoryWeight()
	out := CategoryConfig{Label: c.CategoryLabel(), Weight: &w}
	switch c := c.(type) {
	case scoring.LeafCategory:
		for _, it := range c.Items {
			iw := it.Weight
			out.Items = append(out.Items, ItemConfig{Label: it.Label, Weight: &iw})
		}
	case scoring.CompositeCategory:
		for _, sub := range c.Categories {
			out.Categories = append(out.Categories, categoryConfig(sub))
		}
	}
	return out
}

// ParseTemplate decodes a YAML weight template.
func ParseTemplate(data []byte) (scoring.WeightTree, error) {
	var raw TemplateConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return scoring.WeightTree{}, goerr.Wrap(err, "parse template")
	}
	return raw.Tree()
}

// LoadTemplate reads and decodes a YAML weight template file.
func LoadTemplate(path string) (scoring.WeightTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.WeightTree{}, goerr.Wrap(err, "read template", goerr.V("path", path))
	}
	return ParseTemplate(data)
}

// MarshalTemplate renders a weight tree as YAML.
func MarshalTemplate(tree scoring.WeightTree) ([]byte, error) {
	data, err := yaml.Marshal(TemplateFromTree(tree))
	if err != nil {
		return nil, goerr.Wrap(err, "marshal template")
	}
	return data, nil
}

// DiffTemplates renders a unified diff between two templates in their YAML
// form. Identical templates yield an empty string.
func DiffTemplates(from, to scoring.WeightTree, fromName, toName string) (string, error) {
	a, err := MarshalTemplate(from)
	if err != nil {
		return "", err
	}
	b, err := MarshalTemplate(to)
	if err != nil {
		return "", err
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return "", goerr.Wrap(err, "diff templates")
	}
	return diff, nil
}
