package report

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

// RatingRow is one use case in the columnar export. Score columns are null
// until the use case has been rated.
type RatingRow struct {
	UseCaseID   string     `parquet:"use_case_id,snappy"`
	Label       string     `parquet:"label,snappy"`
	ProcessID   string     `parquet:"process_id,snappy"`
	State       string     `parquet:"state,snappy"`
	Score       *float64   `parquet:"score,optional,snappy"`
	Strategic   *float64   `parquet:"strategic,optional,snappy"`
	Risk        *float64   `parquet:"risk,optional,snappy"`
	Value       *float64   `parquet:"value,optional,snappy"`
	RatingError *string    `parquet:"rating_error,optional,snappy"`
	RatedAt     *time.Time `parquet:"rated_at,optional,snappy"`
	UpdatedAt   time.Time  `parquet:"updated_at,snappy"`
}

// RatingRows converts stored use cases for export.
func RatingRows(useCases []*store.UseCase) []RatingRow {
	ptr := func(f float64, ok bool) *float64 {
		if !ok {
			return nil
		}
		return &f
	}

	rows := make([]RatingRow, 0, len(useCases))
	for _, uc := range useCases {
		row := RatingRow{
			UseCaseID: uc.ID.String(),
			Label:     uc.Label,
			ProcessID: uc.ProcessID.String(),
			State:     string(uc.State),
			Score:     uc.Score,
			Strategic: ptr(subScore(uc.SubScores, scoring.LabelStrategic)),
			Risk:      ptr(subScore(uc.SubScores, scoring.LabelRisk)),
			Value:     ptr(subScore(uc.SubScores, scoring.LabelValue)),
			RatedAt:   uc.RatedAt,
			UpdatedAt: uc.UpdatedAt,
		}
		if uc.RatingError != "" {
			reason := uc.RatingError
			row.RatingError = &reason
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteRatingsParquet writes rows to a new Parquet file at path.
func WriteRatingsParquet(path string, rows []RatingRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[RatingRow](file)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("write ratings: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return file.Close()
}
