package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
	"github.com/MikeSquared-Agency/Prioritizer/internal/store"
)

var unprocessable = []error{
	scoring.ErrInvalidJudgment,
	scoring.ErrUnknownLabel,
	scoring.ErrAttributeNotFound,
	scoring.ErrDuplicateAttribute,
	scoring.ErrInvalidScore,
	scoring.ErrInvalidCategoryShape,
	scoring.ErrDuplicateLabel,
	scoring.ErrInvalidWeight,
	scoring.ErrZeroWeightDenominator,
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, scoring.ErrInconsistentJudgments):
		return http.StatusConflict
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		attrs := []any{"error", err}
		if ge := goerr.Unwrap(err); ge != nil {
			attrs = append(attrs, "values", ge.Values())
		}
		logger.Error("request failed", attrs...)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
