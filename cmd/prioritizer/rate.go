package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Prioritizer/internal/config"
	"github.com/MikeSquared-Agency/Prioritizer/internal/report"
	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

var rateCmd = &cobra.Command{
	Use:   "rate <usecase.yaml>",
	Short: "Rate a use case file against the configured template.",
	Long: `Rate a single use case offline, without a database.

The file holds the item scores and the value weights of its process:

  label: Invoice matching
  scores:
    Goal1: 4
    ...
  value_weights:
    Time: 1
    Cost: 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		judgments, _ := cmd.Flags().GetString("judgments")
		explain, _ := cmd.Flags().GetBool("explain")
		return runRate(cmd.OutOrStdout(), cfg, logger, args[0], judgments, explain)
	},
}

type useCaseFile struct {
	Label        string              `yaml:"label"`
	Scores       map[string]float64  `yaml:"scores"`
	Attributes   []scoring.Attribute `yaml:"attributes"`
	ValueWeights map[string]float64  `yaml:"value_weights"`
}

func runRate(w io.Writer, cfg *config.Config, logger *slog.Logger, path, judgmentsPath string, explain bool) error {
	tree, err := cfg.WeightTree()
	if err != nil {
		return err
	}
	if judgmentsPath != "" {
		pairs, err := loadJudgments(judgmentsPath)
		if err != nil {
			return err
		}
		var layers []scoring.LayerWeights
		if tree, layers, err = scoring.ApplyJudgments(tree, pairs); err != nil {
			return err
		}
		maxCR := cfg.Scoring.MaxConsistencyRatio
		if cfg.Scoring.RejectInconsistent {
			if err := scoring.CheckLayers(layers, maxCR); err != nil {
				return err
			}
		}
		for _, l := range layers {
			if !l.Consistent(maxCR) {
				logger.Warn("inconsistent judgments",
					"layer", l.Layer,
					"consistency_ratio", l.ConsistencyRatio,
					"max", maxCR,
				)
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read use case: %w", err)
	}
	var uc useCaseFile
	if err := yaml.Unmarshal(data, &uc); err != nil {
		return fmt.Errorf("parse use case: %w", err)
	}

	attrs := uc.Attributes
	if uc.Scores != nil {
		if attrs, err = scoring.FlattenScores(tree, uc.Scores); err != nil {
			return err
		}
	}

	rater, err := scoring.NewRater(tree, logger)
	if err != nil {
		return err
	}
	r, err := rater.Rate(attrs, scoring.StaticWeights(uc.ValueWeights))
	if err != nil {
		return err
	}

	if explain {
		return report.WriteRatingBreakdown(w, r)
	}
	if _, err := fmt.Fprintf(w, "%s: %.3f\n", uc.Label, r.Score); err != nil {
		return err
	}
	for _, s := range r.SubScores {
		if _, err := fmt.Fprintf(w, "  %s: %.3f\n", s.Label, s.Score); err != nil {
			return err
		}
	}
	return nil
}
