package main

import (
	"bytes"
	"testing"

	"github.com/couchcryptid/road-risk-service/internal/batch"
	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/gocarina/gocsv"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip writes rows as CSV and reads them back the way the batch scorer does.
func roundTrip(t *testing.T, rows []*mockRow) []map[string]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gocsv.Marshal(&rows, &buf))
	maps, err := gocsv.CSVToMaps(&buf)
	require.NoError(t, err)
	return maps
}

func scoreable(row map[string]string) bool {
	req, err := domain.Validate(batch.RowPayload(row))
	if err != nil {
		return false
	}
	_, err = domain.Normalize(req)
	return err == nil
}

func TestGenerate_Deterministic(t *testing.T) {
	a := generate(50, 7, 0.2)
	b := generate(50, 7, 0.2)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different rows (-first +second):\n%s", diff)
	}

	c := generate(50, 8, 0.2)
	assert.NotEqual(t, a, c)
}

func TestGenerate_ValidRowsPass(t *testing.T) {
	for i, row := range roundTrip(t, generate(200, 1, 0)) {
		assert.True(t, scoreable(row), "row %d: %v", i, row)
	}
}

func TestGenerate_CorruptRowsFail(t *testing.T) {
	for i, row := range roundTrip(t, generate(100, 1, 1)) {
		assert.False(t, scoreable(row), "row %d: %v", i, row)
	}
}

func TestGenerate_IDsSequential(t *testing.T) {
	rows := generate(5, 3, 0)
	for i, r := range rows {
		assert.Equal(t, i, r.ID)
	}
}
