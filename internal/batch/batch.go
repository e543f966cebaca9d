// Package batch scores a CSV file of prediction requests offline, one row at
// a time, through the same path the HTTP service uses.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/couchcryptid/road-risk-service/internal/observability"
	"github.com/couchcryptid/road-risk-service/internal/scoring"
	"github.com/gocarina/gocsv"
)

// Column names outside the feature set.
const (
	ColumnID     = "id"
	ColumnTarget = "accident_risk"
)

// Scorer scores one decoded payload.
type Scorer interface {
	Score(ctx context.Context, payload map[string]any) (scoring.Result, error)
}

// Prediction is one output row.
type Prediction struct {
	ID           string  `csv:"id"`
	AccidentRisk float64 `csv:"predicted_accident_risk"`
}

// Summary counts what happened to the input rows.
type Summary struct {
	Rows    int
	Scored  int
	Skipped int
}

// Runner scores CSV input with a Scorer.
type Runner struct {
	scorer  Scorer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRunner creates a Runner.
func NewRunner(scorer Scorer, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{scorer: scorer, logger: logger, metrics: metrics}
}

// Run reads requests from in and writes id,predicted_accident_risk rows to
// out in input order. Rows that fail validation or scoring are logged and
// skipped. An unavailable model aborts the run.
func (r *Runner) Run(ctx context.Context, in io.Reader, out io.Writer) (Summary, error) {
	rows, err := gocsv.CSVToMaps(in)
	if err != nil {
		return Summary{}, fmt.Errorf("read batch csv: %w", err)
	}

	summary := Summary{Rows: len(rows)}
	predictions := make([]*Prediction, 0, len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := r.scorer.Score(ctx, RowPayload(row))
		if err != nil {
			if isFatal(err) {
				return summary, err
			}
			// Row numbers are 1-based and count the header line.
			r.logger.Warn("batch row skipped", "row", i+2, "id", row[ColumnID], "error", err)
			r.metrics.BatchRows.WithLabelValues("skipped").Inc()
			summary.Skipped++
			continue
		}

		predictions = append(predictions, &Prediction{ID: row[ColumnID], AccidentRisk: result.Risk})
		r.metrics.BatchRows.WithLabelValues("scored").Inc()
		summary.Scored++
	}

	if err := gocsv.Marshal(&predictions, out); err != nil {
		return summary, fmt.Errorf("write predictions csv: %w", err)
	}

	r.logger.Info("batch complete", "rows", summary.Rows, "scored", summary.Scored, "skipped", summary.Skipped)
	return summary, nil
}

func isFatal(err error) bool {
	return errors.Is(err, domain.ErrModelUnavailable)
}

// RowPayload converts a CSV record into the payload shape the validator
// expects. Enum cells stay strings. Other cells become float64 or bool when
// they parse as such and stay strings otherwise. The id and target columns
// are dropped.
func RowPayload(row map[string]string) map[string]any {
	payload := make(map[string]any, len(row))
	for k, v := range row {
		if k == ColumnID || k == ColumnTarget {
			continue
		}
		if domain.IsCategorical(k) {
			payload[k] = v
			continue
		}
		cell := strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			payload[k] = f
			continue
		}
		switch strings.ToLower(cell) {
		case "true":
			payload[k] = true
		case "false":
			payload[k] = false
		default:
			payload[k] = v
		}
	}
	return payload
}
