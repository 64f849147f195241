package main

import (
	"bytes"
	"testing"

	"changerisk/internal/score"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	result := &score.Result{Version: 2, Score: 612.5, Band: "LOW", FeatureScores: map[string]float64{"size": 12.5}, RawPoints: 12.5}

	var out bytes.Buffer
	require.NoError(t, write(&out, "json", result))
	assert.JSONEq(t, `{"version":2,"score":612.5,"band":"LOW","feature_scores":{"size":12.5},"raw_points":12.5}`, out.String())

	out.Reset()
	require.NoError(t, write(&out, "YAML", result))
	assert.YAMLEq(t, "version: 2\nscore: 612.5\nband: LOW\nfeature_scores:\n  size: 12.5\nraw_points: 12.5\n", out.String())

	assert.Error(t, write(&out, "xml", result))
}
