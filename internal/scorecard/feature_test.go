package scorecard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFeature(t *testing.T, name string, decls ...any) *FeatureScorecard {
	t.Helper()
	require.Zero(t, len(decls)%2, "decls are label/points pairs")
	var bins []BinSpec
	for i := 0; i < len(decls); i += 2 {
		bin, err := ParseBin(decls[i].(string), float64(decls[i+1].(int)))
		require.NoError(t, err)
		bins = append(bins, bin)
	}
	feature, err := NewFeatureScorecard(name, bins)
	require.NoError(t, err)
	return feature
}

func TestFeatureScorecard_MatchNumeric(t *testing.T) {
	feature := mustFeature(t, "apps",
		"[-inf,2)", 0,
		"[2,4)", 10,
		"[4,10)", 20,
		"[10,inf)", 30,
	)

	tests := []struct {
		value float64
		label string
	}{
		{-1000, "[-inf,2)"},
		{0, "[-inf,2)"},
		{1.999, "[-inf,2)"},
		{2, "[2,4)"},
		{3.5, "[2,4)"},
		{4, "[4,10)"},
		{9.999999, "[4,10)"},
		{10, "[10,inf)"},
		{1e12, "[10,inf)"},
		{math.Inf(1), "[10,inf)"},
	}
	for _, tt := range tests {
		bin, err := feature.MatchNumeric(tt.value)
		require.NoError(t, err, tt.value)
		assert.Equal(t, tt.label, bin.Label, "value %v", tt.value)
	}
}

func TestFeatureScorecard_MatchNumeric_IntervalProperty(t *testing.T) {
	feature := mustFeature(t, "size",
		"[-inf,2)", 1,
		"[2,4)", 2,
		"[4,inf)", 3,
	)

	for v := -5.0; v <= 10; v += 0.25 {
		bin, err := feature.MatchNumeric(v)
		require.NoError(t, err)
		for _, candidate := range feature.Bins() {
			matches := candidate.Low <= v && (v < candidate.High || candidate.OpenEnded())
			assert.Equal(t, matches, candidate.Label == bin.Label, "value %v, bin %s", v, candidate.Label)
		}
	}
}

func TestFeatureScorecard_MatchNumeric_FirstMatchWins(t *testing.T) {
	feature := mustFeature(t, "size",
		"[10,inf)", 30,
		"[-inf,10)", 5,
	)

	bin, err := feature.MatchNumeric(50)
	require.NoError(t, err)
	assert.Equal(t, 30.0, bin.Points)

	bin, err = feature.MatchNumeric(5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, bin.Points)
}

func TestFeatureScorecard_MatchNumeric_Gap(t *testing.T) {
	feature := mustFeature(t, "deps",
		"[0,2)", 0,
		"[3,inf)", 10,
	)

	for _, v := range []float64{2, 2.5, -1, math.NaN()} {
		_, err := feature.MatchNumeric(v)
		var unmatched *UnmatchedValueError
		require.ErrorAs(t, err, &unmatched, "value %v", v)
		assert.Equal(t, "deps", unmatched.Feature)
	}
}

func TestFeatureScorecard_MatchCategorical(t *testing.T) {
	feature := mustFeature(t, "change_size",
		"S", 0,
		"M", 10,
		"L", 25,
	)

	bin, err := feature.MatchCategorical("M")
	require.NoError(t, err)
	assert.Equal(t, 10.0, bin.Points)

	for _, v := range []string{"m", " M", "XL", ""} {
		_, err := feature.MatchCategorical(v)
		var mismatch *CategoricalMismatchError
		require.ErrorAs(t, err, &mismatch, "value %q", v)
		assert.Equal(t, v, mismatch.Value)
	}
}

func TestNewFeatureScorecard_Invalid(t *testing.T) {
	numeric, err := ParseBin("[0,1)", 1)
	require.NoError(t, err)
	categorical, err := ParseBin("A", 1)
	require.NoError(t, err)

	tests := map[string][]BinSpec{
		"no bins":   nil,
		"mixed":     {numeric, categorical},
		"duplicate": {categorical, categorical},
	}
	for name, bins := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewFeatureScorecard("f", bins)
			var parseErr *ConfigParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "f", parseErr.Feature)
		})
	}
}

func TestFeatureScorecard_Lint(t *testing.T) {
	covered := mustFeature(t, "a", "[-inf,1)", 0, "[1,inf)", 1)
	assert.Empty(t, covered.lint())

	gappy := mustFeature(t, "b", "[0,1)", 0, "[2,3)", 1, "[2.5,5)", 2)
	issues := gappy.lint()
	require.Len(t, issues, 4)
	assert.Contains(t, issues[0].Message, "below 0")
	assert.Contains(t, issues[1].Message, "from 5 upwards")
	assert.Contains(t, issues[2].Message, "gap between [0,1) and [2,3)")
	assert.Contains(t, issues[3].Message, "[2.5,5) overlaps [2,3)")

	categorical := mustFeature(t, "c", "A", 0)
	assert.Empty(t, categorical.lint())
}
