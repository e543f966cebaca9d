package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_StdoutOutputLogsToStderr(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stderr bytes.Buffer
	logger := newLogger(&stderr, "warn", "-")

	logger.Info("hidden")
	logger.Warn("batch row skipped", "row", 3)
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), `msg="batch row skipped"`)
	assert.Same(t, logger, slog.Default())
}

func TestNewLogger_FileOutputUsesSharedLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var stderr bytes.Buffer
	logger := newLogger(&stderr, "debug", "predictions.csv")

	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Empty(t, stderr.String())
}

func TestRun_WritesPredictions(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	in := filepath.Join(dir, "requests.csv")
	out := filepath.Join(dir, "predictions.csv")
	require.NoError(t, os.WriteFile(in, []byte(
		"id,road_type,num_lanes,curvature,speed_limit,lighting,weather,road_signs_present,public_road,time_of_day,holiday,school_season,num_reported_accidents\n"+
			"7,urban,2,0.5,60,daylight,clear,1,1,morning,0,0,0\n"), 0o600))

	var stderr bytes.Buffer
	logger := newLogger(&stderr, "error", "-")
	require.NoError(t, run(context.Background(), logger, "../../internal/model/testdata/ensemble.json", in, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,predicted_accident_risk", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "7,0.2"), lines[1])
}
