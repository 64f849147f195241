package scorecard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `
version: 7
score_name: ChangeRisk
scaling:
  points0: 600
bands:
  - max_score: 650
    name: LOW
  - max_score: 750
    name: MEDIUM
scorecard:
  size:
    - bin: "[-inf,2)"
      points: -10
    - bin: "[2,inf)"
      points: 20
  test_depth:
    - bin: NONE
      points: 40
    - bin: FULL
      points: 0
  resilience_category:
    - bin: 0
      points: 30
    - bin: "1"
      points: 20.5
`

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scorecard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParse(t *testing.T) {
	card, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, 7, card.Version)
	assert.Equal(t, "ChangeRisk", card.ScoreName)
	assert.Equal(t, 600.0, card.BasePoints)
	assert.Equal(t, []Band{{650, "LOW"}, {750, "MEDIUM"}}, card.Bands())
	assert.Equal(t, []string{"size", "test_depth", "resilience_category"}, card.Features(), "declaration order is kept")
	assert.Equal(t, 6, card.BinCount())

	size, err := card.Feature("size")
	require.NoError(t, err)
	assert.Equal(t, KindNumeric, size.Kind)

	resilience, err := card.Feature("resilience_category")
	require.NoError(t, err)
	assert.Equal(t, KindCategorical, resilience.Kind)
	assert.Equal(t, "0", resilience.Bins()[0].Label, "unquoted scalars are read as labels")
	assert.Equal(t, 20.5, resilience.Bins()[1].Points)

	_, err = card.Feature("missing")
	var unknown *UnknownFeatureError
	assert.ErrorAs(t, err, &unknown)
}

func TestParse_Defaults(t *testing.T) {
	card, err := Parse([]byte(`
scorecard:
  change_size:
    - bin: S
      points: 0
`))
	require.NoError(t, err)

	assert.Equal(t, 1, card.Version)
	assert.Equal(t, "RiskScore", card.ScoreName)
	assert.Equal(t, 600.0, card.BasePoints)
	assert.Empty(t, card.Bands())
	assert.Equal(t, TerminalBand, card.Classify(0), "without bands every score is terminal")
}

func TestParse_Rows(t *testing.T) {
	card, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	rows := card.Rows()
	require.Len(t, rows, 6)
	assert.Equal(t, Row{Variable: "size", Bin: "[-inf,2)", Points: -10}, rows[0])
	assert.Equal(t, Row{Variable: "resilience_category", Bin: "1", Points: 20.5}, rows[5])
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":             ``,
		"malformed yaml":    "version: [1\n",
		"no features":       "version: 1\n",
		"scorecard list":    "scorecard:\n  - a\n",
		"missing bracket":   "scorecard:\n  size:\n    - bin: \"[1,2\"\n      points: 1\n",
		"missing points":    "scorecard:\n  size:\n    - bin: A\n",
		"missing label":     "scorecard:\n  size:\n    - points: 1\n",
		"empty feature":     "scorecard:\n  size: []\n",
		"mixed kinds":       "scorecard:\n  size:\n    - bin: \"[0,inf)\"\n      points: 1\n    - bin: A\n      points: 1\n",
		"duplicate feature": "scorecard:\n  a:\n    - {bin: X, points: 1}\n  a:\n    - {bin: Y, points: 1}\n",
		"bands descending":  "bands:\n  - {max_score: 700, name: B}\n  - {max_score: 650, name: A}\nscorecard:\n  a:\n    - {bin: X, points: 1}\n",
		"band without name": "bands:\n  - {max_score: 700}\nscorecard:\n  a:\n    - {bin: X, points: 1}\n",
		"band without max":  "bands:\n  - {name: LOW}\nscorecard:\n  a:\n    - {bin: X, points: 1}\n",
		"points not number": "scorecard:\n  a:\n    - {bin: X, points: many}\n",
		"nan points":        "scorecard:\n  size:\n    - {bin: \"[-inf,inf)\", points: .nan}\n",
		"inf points":        "scorecard:\n  size:\n    - {bin: \"[-inf,inf)\", points: .inf}\n",
		"negative inf":      "scorecard:\n  a:\n    - {bin: X, points: -.inf}\n",
		"inf base points":   "scaling: {points0: .inf}\nscorecard:\n  a:\n    - {bin: X, points: 1}\n",
		"nan base points":   "scaling: {points0: .nan}\nscorecard:\n  a:\n    - {bin: X, points: 1}\n",
		"nan max_score":     "bands:\n  - {max_score: .nan, name: LOW}\nscorecard:\n  a:\n    - {bin: X, points: 1}\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			card, err := Parse([]byte(doc))
			assert.Nil(t, card)
			var parseErr *ConfigParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParse_NonFiniteNumbersNameTheirOwner(t *testing.T) {
	_, err := Parse([]byte("scorecard:\n  size:\n    - {bin: \"[-inf,inf)\", points: .nan}\n"))
	var parseErr *ConfigParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "size", parseErr.Feature)
	assert.Contains(t, err.Error(), "non-finite points")

	_, err = Parse([]byte("bands:\n  - {max_score: .inf, name: HIGH}\nscorecard:\n  a:\n    - {bin: X, points: 1}\n"))
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "band HIGH")
}

func TestScorecard_AccessorsReturnCopies(t *testing.T) {
	card, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	bands := card.Bands()
	bands[0].Name = "CHANGED"
	bands[0].MaxScore = 0
	assert.Equal(t, []Band{{650, "LOW"}, {750, "MEDIUM"}}, card.Bands())
	assert.Equal(t, "LOW", card.Classify(600))

	feature, err := card.Feature("resilience_category")
	require.NoError(t, err)
	feature.Name = "renamed"
	feature.Kind = KindNumeric
	bins := feature.Bins()
	bins[0].Points = 1000

	again, err := card.Feature("resilience_category")
	require.NoError(t, err)
	assert.Equal(t, "resilience_category", again.Name)
	assert.Equal(t, KindCategorical, again.Kind)
	assert.Equal(t, Row{Variable: "resilience_category", Bin: "0", Points: 30}, card.Rows()[4])
}

func TestParse_MalformedIntervalNamesFeature(t *testing.T) {
	_, err := Parse([]byte("scorecard:\n  size:\n    - bin: \"[1,2\"\n      points: 1\n"))
	var parseErr *ConfigParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "size", parseErr.Feature)
	assert.Contains(t, err.Error(), `"[1,2"`)
}

func TestLoad(t *testing.T) {
	path := writeDocument(t, sampleDocument)

	card, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, card.Version)

	again, err := Load(path)
	require.NoError(t, err)
	assert.NotSame(t, card, again, "every load builds an independent snapshot")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var parseErr *ConfigParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeDocument(t, "scorecard:\n  size: []\n")
	_, err = Load(path)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.Path)
	assert.Contains(t, err.Error(), path)
}

func TestScorecard_Classify(t *testing.T) {
	card, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "LOW", card.Classify(-1e9))
	assert.Equal(t, "LOW", card.Classify(650))
	assert.Equal(t, "MEDIUM", card.Classify(650.01))
	assert.Equal(t, "MEDIUM", card.Classify(750))
	assert.Equal(t, TerminalBand, card.Classify(750.01))
}

func TestScorecard_ClassifyMonotonic(t *testing.T) {
	card, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	rank := map[string]int{"LOW": 0, "MEDIUM": 1, TerminalBand: 2}
	prev := 0
	for score := 500.0; score <= 900; score += 0.5 {
		current := rank[card.Classify(score)]
		assert.GreaterOrEqual(t, current, prev, "score %v", score)
		prev = current
	}
}
