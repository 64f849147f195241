package score

import (
	"fmt"
	"log/slog"
	"sort"

	"changerisk/internal/scorecard"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Calculator scores records against the snapshot currently published by its source.
// The snapshot is captured once at the start of each call, so a reload that happens
// while a record is being scored does not affect that record.
type Calculator struct {
	source SnapshotSource
}

// NewCalculator creates a calculator reading snapshots from source.
func NewCalculator(source SnapshotSource) *Calculator {
	return &Calculator{source: source}
}

// Score scores the record against the current snapshot.
func (c *Calculator) Score(record Record) (*Result, error) {
	card := c.source.Current()
	if card == nil {
		return nil, scorecard.ErrUninitialized
	}
	return ScoreWith(card, record)
}

// ScoreWith scores the record against the given snapshot.
//
// Every feature present in the record is resolved to exactly one bin: numeric
// features by interval, categorical features by exact label. The whole call fails
// on the first feature that cannot be resolved; no partial score is returned.
func ScoreWith(card *scorecard.Scorecard, record Record) (*Result, error) {
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	// Sorted so that the reported error is deterministic for bad records.
	sort.Strings(names)

	featureScores := make(map[string]float64, len(record))
	raw := decimal.Zero
	for _, name := range names {
		bin, err := resolve(card, name, record[name])
		if err != nil {
			return nil, err
		}
		featureScores[name] = bin.Points
		raw = raw.Add(decimal.NewFromFloat(bin.Points))
		slog.Debug("Feature binned", "feature", name, "value", record[name], "bin", bin.Label, "points", bin.Points)
	}

	total := decimal.NewFromFloat(card.BasePoints).Add(raw)
	score := round2(total)

	return &Result{
		Version:       card.Version,
		Score:         score,
		Band:          card.Classify(total.InexactFloat64()),
		FeatureScores: featureScores,
		RawPoints:     round2(raw),
	}, nil
}

// resolve finds the bin of one feature value.
func resolve(card *scorecard.Scorecard, name string, value any) (scorecard.BinSpec, error) {
	feature, err := card.Feature(name)
	if err != nil {
		return scorecard.BinSpec{}, err
	}

	switch {
	case value == nil && feature.Kind == scorecard.KindNumeric:
		return scorecard.BinSpec{}, scorecard.NewUnmatchedValueError(name, value)
	case value == nil:
		return scorecard.BinSpec{}, scorecard.NewCategoricalMismatchError(name, "")
	case feature.Kind == scorecard.KindNumeric:
		number, err := cast.ToFloat64E(value)
		if err != nil {
			return scorecard.BinSpec{}, fmt.Errorf("%w: %v", scorecard.NewUnmatchedValueError(name, value), err)
		}
		return feature.MatchNumeric(number)
	default:
		label, err := cast.ToStringE(value)
		if err != nil {
			return scorecard.BinSpec{}, fmt.Errorf("%w: %v", scorecard.NewCategoricalMismatchError(name, fmt.Sprint(value)), err)
		}
		return feature.MatchCategorical(label)
	}
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
