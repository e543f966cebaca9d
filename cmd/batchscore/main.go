// Command batchscore scores a CSV of prediction requests offline with the
// same validation, coercion, and model the HTTP service uses. Output is a CSV
// with columns id,predicted_accident_risk. Rows that fail validation are
// logged and left out.
//
// Usage:
//
//	go run ./cmd/batchscore -model model.json -in data/test.csv -out predictions.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/road-risk-service/internal/batch"
	"github.com/couchcryptid/road-risk-service/internal/model"
	"github.com/couchcryptid/road-risk-service/internal/observability"
	"github.com/couchcryptid/road-risk-service/internal/scoring"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	modelPath := flag.String("model", "model.json", "path to the model artifact")
	in := flag.String("in", "", "input request CSV")
	out := flag.String("out", "-", `output CSV path, "-" for stdout`)
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, *logLevel, *out)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *modelPath, *in, *out); err != nil {
		logger.Error("batch scoring failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// newLogger uses the shared service logger unless the CSV goes to stdout, in
// which case logs move to stderr at the same level.
func newLogger(stderr io.Writer, level, outPath string) *slog.Logger {
	if outPath != "-" {
		return sharedobs.NewLogger(level, "text")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

func run(ctx context.Context, logger *slog.Logger, modelPath, inPath, outPath string) error {
	clock := clockwork.NewRealClock()
	handle := model.NewHandle(modelPath, clock)
	ensemble, err := handle.Load()
	if err != nil {
		return err
	}
	logger.Info("model loaded", "model_path", modelPath, "trees", ensemble.Trees())

	metrics := observability.NewMetrics()
	svc := scoring.New(handle, nil, logger, metrics, clock)
	runner := batch.NewRunner(svc, logger, metrics)

	inFile, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inFile.Close()

	var w io.Writer = os.Stdout
	if outPath != "-" {
		outFile, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer outFile.Close()
		w = outFile
	}

	summary, err := runner.Run(ctx, inFile, w)
	if err != nil {
		return err
	}
	if summary.Scored == 0 && summary.Rows > 0 {
		return fmt.Errorf("no rows scored out of %d", summary.Rows)
	}
	return nil
}
