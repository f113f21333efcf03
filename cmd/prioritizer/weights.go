package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Prioritizer/internal/config"
	"github.com/MikeSquared-Agency/Prioritizer/internal/report"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

var weightsCmd = &cobra.Command{
	Use:   "weights <judgments.yaml>",
	Short: "Derive template weights from a judgments file.",
	Long: `Solve the pairwise judgments in the given file against the configured
template and print the derived weights per layer with their consistency ratio.

The file lists the judgments under "pairs":

  pairs:
    - layer: categories
      category1: Strategic goals
      category2: Value potential
      importance: 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		diff, _ := cmd.Flags().GetBool("diff")
		return runWeights(cmd.OutOrStdout(), cfg, args[0], diff)
	},
}

type judgmentsFile struct {
	Pairs []scoring.CategoryPair `yaml:"pairs"`
}

func loadJudgments(path string) ([]scoring.CategoryPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read judgments: %w", err)
	}
	var f judgmentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse judgments: %w", err)
	}
	return f.Pairs, nil
}

func runWeights(w io.Writer, cfg *config.Config, path string, diff bool) error {
	base, err := cfg.WeightTree()
	if err != nil {
		return err
	}
	pairs, err := loadJudgments(path)
	if err != nil {
		return err
	}
	tree, layers, err := scoring.ApplyJudgments(base, pairs)
	if err != nil {
		return err
	}

	if err := report.WriteWeightsTable(w, layers); err != nil {
		return err
	}
	for _, l := range layers {
		if !l.Consistent(cfg.Scoring.MaxConsistencyRatio) {
			if _, err := fmt.Fprintf(w, "warning: %s judgments are inconsistent (CR %.4f > %.2f)\n",
				l.Layer, l.ConsistencyRatio, cfg.Scoring.MaxConsistencyRatio); err != nil {
				return err
			}
		}
	}

	if !diff {
		return nil
	}
	out, err := config.DiffTemplates(base, tree, "current", "reweighted")
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
