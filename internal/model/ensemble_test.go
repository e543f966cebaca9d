package model

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testArtifact = "testdata/ensemble.json"

const columnsJSON = `["road_type","num_lanes","curvature","speed_limit","lighting","weather","road_signs_present","public_road","time_of_day","holiday","school_season","num_reported_accidents"]`

func referenceRow() domain.FeatureRow {
	return domain.FeatureRow{
		RoadType:         "urban",
		NumLanes:         2,
		Curvature:        0.5,
		SpeedLimit:       60,
		Lighting:         "daylight",
		Weather:          "clear",
		RoadSignsPresent: 1,
		PublicRoad:       1,
		TimeOfDay:        "morning",
	}
}

func artifactWithTrees(trees string) []byte {
	return []byte(`{"format":"tree-ensemble/v1","columns":` + columnsJSON + `,"base_score":0.5,"trees":` + trees + `}`)
}

func TestLoad_TestArtifact(t *testing.T) {
	e, err := Load(testArtifact)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Trees())
}

func TestLoad_RepositoryArtifact(t *testing.T) {
	e, err := Load(filepath.Join("..", "..", "model.json"))
	require.NoError(t, err)

	risk, err := e.Predict(context.Background(), referenceRow())
	require.NoError(t, err)
	assert.Greater(t, risk, 0.0)
	assert.Less(t, risk, 1.0)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPredict(t *testing.T) {
	e, err := Load(testArtifact)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("reference request", func(t *testing.T) {
		// 0.3 base - 0.05 (curvature <= 0.5) + 0 (not night) - 0.02 (speed <= 60)
		risk, err := e.Predict(ctx, referenceRow())
		require.NoError(t, err)
		assert.InDelta(t, 0.23, risk, 1e-9)
	})

	t.Run("night in the rain on a fast bend", func(t *testing.T) {
		row := referenceRow()
		row.Lighting = "night"
		row.Weather = "rainy"
		row.Curvature = 0.9
		row.SpeedLimit = 100

		risk, err := e.Predict(ctx, row)
		require.NoError(t, err)
		assert.InDelta(t, 0.59, risk, 1e-9)
	})

	t.Run("night and clear", func(t *testing.T) {
		row := referenceRow()
		row.Lighting = "night"

		risk, err := e.Predict(ctx, row)
		require.NoError(t, err)
		assert.InDelta(t, 0.31, risk, 1e-9)
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := e.Predict(ctx, referenceRow())
		require.NoError(t, err)
		b, err := e.Predict(ctx, referenceRow())
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := e.Predict(cctx, referenceRow())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParse_Errors(t *testing.T) {
	leaf := `[{"nodes":[{"leaf":true,"value":0.1}]}]`

	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"invalid json", `{`, "decode model artifact"},
		{"wrong format", `{"format":"pickle","columns":` + columnsJSON + `,"trees":` + leaf + `}`, `unsupported model format "pickle"`},
		{"missing columns", `{"format":"tree-ensemble/v1","columns":["road_type"],"trees":` + leaf + `}`, "do not match feature columns"},
		{"reordered columns", strings.Replace(string(artifactWithTrees(leaf)), `"road_type","num_lanes"`, `"num_lanes","road_type"`, 1), "do not match feature columns"},
		{"no trees", string(artifactWithTrees(`[]`)), "no trees"},
		{"empty tree", string(artifactWithTrees(`[{"nodes":[]}]`)), "tree 0: no nodes"},
		{"unknown column", string(artifactWithTrees(`[{"nodes":[{"column":"speed","threshold":1,"left":1,"right":2},{"leaf":true},{"leaf":true}]}]`)), `unknown column "speed"`},
		{"backward child", string(artifactWithTrees(`[{"nodes":[{"leaf":true},{"column":"curvature","threshold":1,"left":0,"right":2},{"leaf":true}]}]`)), "must point forward"},
		{"child out of range", string(artifactWithTrees(`[{"nodes":[{"column":"curvature","threshold":1,"left":1,"right":5},{"leaf":true}]}]`)), "must point forward"},
		{"numeric without threshold", string(artifactWithTrees(`[{"nodes":[{"column":"curvature","left":1,"right":2},{"leaf":true},{"leaf":true}]}]`)), "needs a threshold"},
		{"categorical with threshold", string(artifactWithTrees(`[{"nodes":[{"column":"weather","threshold":1,"categories":["clear"],"left":1,"right":2},{"leaf":true},{"leaf":true}]}]`)), "needs categories"},
		{"trees missing", `{"format":"tree-ensemble/v1","columns":` + columnsJSON + `}`, "does not match schema"},
		{"leaf not boolean", string(artifactWithTrees(`[{"nodes":[{"leaf":"yes","value":0.1}]}]`)), "does not match schema"},
		{"negative child", string(artifactWithTrees(`[{"nodes":[{"column":"curvature","threshold":1,"left":-1,"right":2},{"leaf":true},{"leaf":true}]}]`)), "does not match schema"},
		{"unknown node key", string(artifactWithTrees(`[{"nodes":[{"leaf":true,"weight":2}]}]`)), "does not match schema"},
		{"categorical without categories", string(artifactWithTrees(`[{"nodes":[{"column":"weather","left":1,"right":2},{"leaf":true},{"leaf":true}]}]`)), "needs categories"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_LeafOnlyTree(t *testing.T) {
	e, err := Parse(artifactWithTrees(`[{"nodes":[{"leaf":true,"value":0.1}]}]`))
	require.NoError(t, err)

	risk, err := e.Predict(context.Background(), referenceRow())
	require.NoError(t, err)
	assert.InDelta(t, 0.6, risk, 1e-9)
}

func TestPredict_UnknownCategoryGoesRight(t *testing.T) {
	e, err := Parse(artifactWithTrees(`[{"nodes":[
		{"column":"road_type","categories":["highway"],"left":1,"right":2},
		{"leaf":true,"value":0.2},
		{"leaf":true,"value":-0.2}]}]`))
	require.NoError(t, err)

	row := referenceRow()
	row.RoadType = "highway"
	risk, err := e.Predict(context.Background(), row)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, risk, 1e-9)

	row.RoadType = "gravel"
	risk, err = e.Predict(context.Background(), row)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, risk, 1e-9)
}
