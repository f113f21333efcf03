// Package report renders ratings and derived weights for humans and for
// offline analysis.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// subScore returns the branch score with the given label, if present.
func subScore(subs []scoring.SubScore, label string) (float64, bool) {
	for _, s := range subs {
		if s.Label == label {
			return s.Score, true
		}
	}
	return 0, false
}

func optional(f float64, ok bool) string {
	if !ok {
		return "-"
	}
	return formatFloat(f)
}

// WriteRatingsTable writes use cases as a ranked table in the order given.
// Unrated use cases show "-" in the score columns.
func WriteRatingsTable(w io.Writer, useCases []*store.UseCase) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Use case", "State", "Score", "Strategic", "Risk", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	rated := 0
	for i, uc := range useCases {
		score := "-"
		if uc.Score != nil {
			score = formatFloat(*uc.Score)
			rated++
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			uc.Label,
			string(uc.State),
			score,
			optional(subScore(uc.SubScores, scoring.LabelStrategic)),
			optional(subScore(uc.SubScores, scoring.LabelRisk)),
			optional(subScore(uc.SubScores, scoring.LabelValue)),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d use cases (%d rated)\n", len(useCases), rated)
	return err
}

// WriteWeightsTable writes the weights derived for each judged layer followed
// by the layer's consistency figures.
func WriteWeightsTable(w io.Writer, layers []scoring.LayerWeights) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Layer", "Category", "Weight"})

	var data [][]string
	for _, l := range layers {
		for i, label := range l.Labels {
			data = append(data, []string{string(l.Layer), label, formatFloat(l.Weights[i])})
		}
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	for _, l := range layers {
		if _, err := fmt.Fprintf(w, "%s: lambda_max=%.4f CI=%.4f CR=%.4f\n",
			l.Layer, l.LambdaMax, l.ConsistencyIndex, l.ConsistencyRatio); err != nil {
			return err
		}
	}
	return nil
}

// WriteRatingBreakdown writes one rating as an indented category tree.
func WriteRatingBreakdown(w io.Writer, r scoring.Rating) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Category", "Weight", "Score"})

	var data [][]string
	var walk func(cs []scoring.CategoryScore, depth int)
	walk = func(cs []scoring.CategoryScore, depth int) {
		for _, c := range cs {
			indent := ""
			for i := 0; i < depth; i++ {
				indent += "  "
			}
			data = append(data, []string{indent + c.Label, formatFloat(c.Weight), formatFloat(c.Score)})
			walk(c.Children, depth+1)
		}
	}
	walk(r.Breakdown, 0)

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Score: %s\n", formatFloat(r.Score))
	return err
}
