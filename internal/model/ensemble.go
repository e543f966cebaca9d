// Package model loads the accident-risk model artifact and exposes it as a
// domain.Predictor.
//
// The artifact is a JSON tree ensemble:
//
//	{
//	  "format": "tree-ensemble/v1",
//	  "columns": ["road_type", "num_lanes", ...],
//	  "base_score": 0.35,
//	  "trees": [{"nodes": [
//	    {"column": "curvature", "threshold": 0.5, "left": 1, "right": 2},
//	    {"leaf": true, "value": -0.04},
//	    {"leaf": true, "value": 0.07}
//	  ]}]
//	}
//
// Numeric splits send value <= threshold left. Categorical splits list
// "categories" and send members left. Child indices always point forward, so
// every walk terminates. The prediction is base_score plus the sum of the
// leaf values reached in each tree.
package model

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/road-risk-service/internal/domain"
	"github.com/xeipuuv/gojsonschema"
)

// FormatTreeEnsemble identifies the only artifact format this package reads.
const FormatTreeEnsemble = "tree-ensemble/v1"

//go:embed artifact.schema.json
var artifactSchemaJSON []byte

var artifactSchema = mustCompileSchema(artifactSchemaJSON)

func mustCompileSchema(doc []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("model: compile artifact schema: %v", err))
	}
	return s
}

type artifact struct {
	Format    string     `json:"format"`
	Columns   []string   `json:"columns"`
	BaseScore float64    `json:"base_score"`
	Trees     []treeSpec `json:"trees"`
}

type treeSpec struct {
	Nodes []nodeSpec `json:"nodes"`
}

type nodeSpec struct {
	Leaf       bool     `json:"leaf,omitempty"`
	Value      float64  `json:"value,omitempty"`
	Column     string   `json:"column,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Left       int      `json:"left,omitempty"`
	Right      int      `json:"right,omitempty"`
}

// Ensemble is an immutable, compiled tree ensemble. It is safe for concurrent
// use.
type Ensemble struct {
	base  float64
	trees []tree
}

type tree []node

type node struct {
	leaf        bool
	value       float64
	col         int
	categorical bool
	threshold   float64
	categories  map[string]struct{}
	left, right int
}

// Load reads and compiles the artifact at path.
func Load(path string) (*Ensemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	return Parse(data)
}

// Parse compiles an artifact document. The artifact's columns must match
// domain.Columns exactly.
func Parse(data []byte) (*Ensemble, error) {
	if err := checkShape(data); err != nil {
		return nil, err
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if a.Format != FormatTreeEnsemble {
		return nil, fmt.Errorf("unsupported model format %q", a.Format)
	}

	want := domain.Columns()
	if !slices.Equal(a.Columns, want) {
		return nil, fmt.Errorf("model columns %v do not match feature columns %v", a.Columns, want)
	}
	if len(a.Trees) == 0 {
		return nil, errors.New("model artifact has no trees")
	}

	index := make(map[string]int, len(want))
	for i, c := range want {
		index[c] = i
	}

	e := &Ensemble{base: a.BaseScore, trees: make([]tree, len(a.Trees))}
	for i, spec := range a.Trees {
		t, err := compileTree(spec, index)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		e.trees[i] = t
	}
	return e, nil
}

// checkShape validates the document against the embedded JSON schema.
// Semantic checks that need the feature columns happen in Parse.
func checkShape(data []byte) error {
	result, err := artifactSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("decode model artifact: %w", err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return fmt.Errorf("model artifact does not match schema: %s", strings.Join(errs, "; "))
}

func compileTree(spec treeSpec, index map[string]int) (tree, error) {
	if len(spec.Nodes) == 0 {
		return nil, errors.New("no nodes")
	}

	t := make(tree, len(spec.Nodes))
	for i, n := range spec.Nodes {
		if n.Leaf {
			t[i] = node{leaf: true, value: n.Value}
			continue
		}

		col, ok := index[n.Column]
		if !ok {
			return nil, fmt.Errorf("node %d: unknown column %q", i, n.Column)
		}
		if n.Left <= i || n.Right <= i || n.Left >= len(t) || n.Right >= len(t) {
			return nil, fmt.Errorf("node %d: children (%d, %d) must point forward within %d nodes", i, n.Left, n.Right, len(t))
		}

		compiled := node{col: col, left: n.Left, right: n.Right}
		if domain.IsCategorical(n.Column) {
			if len(n.Categories) == 0 || n.Threshold != nil {
				return nil, fmt.Errorf("node %d: categorical column %q needs categories and no threshold", i, n.Column)
			}
			compiled.categorical = true
			compiled.categories = make(map[string]struct{}, len(n.Categories))
			for _, c := range n.Categories {
				compiled.categories[c] = struct{}{}
			}
		} else {
			if n.Threshold == nil || len(n.Categories) > 0 {
				return nil, fmt.Errorf("node %d: numeric column %q needs a threshold and no categories", i, n.Column)
			}
			compiled.threshold = *n.Threshold
		}
		t[i] = compiled
	}
	return t, nil
}

// Predict implements domain.Predictor.
func (e *Ensemble) Predict(ctx context.Context, row domain.FeatureRow) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	values := row.Values()
	score := e.base
	for _, t := range e.trees {
		score += t.eval(values)
	}
	return score, nil
}

// Trees returns the number of trees in the ensemble.
func (e *Ensemble) Trees() int { return len(e.trees) }

func (t tree) eval(values []any) float64 {
	i := 0
	for {
		n := t[i]
		if n.leaf {
			return n.value
		}
		if n.goesLeft(values[n.col]) {
			i = n.left
		} else {
			i = n.right
		}
	}
}

func (n node) goesLeft(v any) bool {
	if n.categorical {
		s, _ := v.(string)
		_, ok := n.categories[s]
		return ok
	}
	return toFloat(v) <= n.threshold
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}
